package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guessle/guessle/internal/game"
	"github.com/guessle/guessle/internal/history"
	"github.com/guessle/guessle/internal/store"
	"github.com/guessle/guessle/internal/words"
)

func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()
	db, err := history.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, history.Migrate(db))

	srv := New(words.Default(game.DefaultWordLength), store.NewMemoryStore(), db)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return ts, &http.Client{Jar: jar}
}

func postJSON(t *testing.T, c *http.Client, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := c.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return res
}

func decode[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	defer res.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return out
}

func newSession(t *testing.T, c *http.Client, base, answer string) game.Snapshot {
	t.Helper()
	res := postJSON(t, c, base+"/session/new", map[string]string{"answer": answer})
	require.Equal(t, http.StatusOK, res.StatusCode)
	return decode[game.Snapshot](t, res)
}

func TestHealth(t *testing.T) {
	ts, c := newTestServer(t)
	res, err := c.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	body, _ := io.ReadAll(res.Body)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestSessionLifecycle(t *testing.T) {
	ts, c := newTestServer(t)

	snap := newSession(t, c, ts.URL, "crane")
	require.NotEmpty(t, snap.ID)
	assert.Equal(t, game.StatePlaying, snap.State)
	assert.Empty(t, snap.Board)
	assert.Empty(t, snap.Answer, "answer must not leak while playing")

	// Guess input is normalized at the boundary.
	res := postJSON(t, c, ts.URL+"/session/"+snap.ID+"/guess", map[string]string{"guess": " TRACE "})
	require.Equal(t, http.StatusOK, res.StatusCode)
	snap = decode[game.Snapshot](t, res)
	require.Len(t, snap.Board, 1)
	assert.Equal(t, "trace", snap.Board[0].Word)
	assert.Equal(t, game.Feedback{game.Absent, game.Correct, game.Correct, game.Present, game.Correct},
		snap.Board[0].Feedback)
	assert.Equal(t, game.Correct, snap.Keyboard["e"])
	assert.Equal(t, game.Absent, snap.Keyboard["t"])

	// Winning reveals the answer.
	res = postJSON(t, c, ts.URL+"/session/"+snap.ID+"/guess", map[string]string{"guess": "crane"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	snap = decode[game.Snapshot](t, res)
	assert.Equal(t, game.StateWon, snap.State)
	assert.Equal(t, "crane", snap.Answer)

	// Terminal sessions reject further guesses.
	res = postJSON(t, c, ts.URL+"/session/"+snap.ID+"/guess", map[string]string{"guess": "trace"})
	defer res.Body.Close()
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	// Snapshot query still works and keeps the revealed answer.
	getRes, err := c.Get(ts.URL + "/session/" + snap.ID)
	require.NoError(t, err)
	got := decode[game.Snapshot](t, getRes)
	assert.Equal(t, game.StateWon, got.State)
	assert.Equal(t, "crane", got.Answer)

	// Restart wipes the board and hides the new answer.
	res = postJSON(t, c, ts.URL+"/session/"+snap.ID+"/restart", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	snap = decode[game.Snapshot](t, res)
	assert.Equal(t, game.StatePlaying, snap.State)
	assert.Empty(t, snap.Board)
	assert.Empty(t, snap.Keyboard)
	assert.Empty(t, snap.Answer)
}

func TestGuessErrorMapping(t *testing.T) {
	ts, c := newTestServer(t)
	snap := newSession(t, c, ts.URL, "crane")

	for _, bad := range []string{"abcd", "ab3de", "abcdef"} {
		res := postJSON(t, c, ts.URL+"/session/"+snap.ID+"/guess", map[string]string{"guess": bad})
		body := decode[map[string]string](t, res)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode, "input %q", bad)
		assert.Equal(t, "invalid_guess", body["error"])
	}

	// History is untouched by rejected input.
	getRes, err := c.Get(ts.URL + "/session/" + snap.ID)
	require.NoError(t, err)
	got := decode[game.Snapshot](t, getRes)
	assert.Empty(t, got.Board)
}

func TestUnknownSessionIs404(t *testing.T) {
	ts, c := newTestServer(t)

	res := postJSON(t, c, ts.URL+"/session/nope/guess", map[string]string{"guess": "crane"})
	defer res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	getRes, err := c.Get(ts.URL + "/session/nope")
	require.NoError(t, err)
	defer getRes.Body.Close()
	assert.Equal(t, http.StatusNotFound, getRes.StatusCode)
}

func TestLossAfterMaxGuesses(t *testing.T) {
	ts, c := newTestServer(t)
	snap := newSession(t, c, ts.URL, "crane")

	var last game.Snapshot
	for i := 0; i < game.DefaultMaxGuesses; i++ {
		res := postJSON(t, c, ts.URL+"/session/"+snap.ID+"/guess", map[string]string{"guess": "wrong"})
		require.Equal(t, http.StatusOK, res.StatusCode)
		last = decode[game.Snapshot](t, res)
	}
	assert.Equal(t, game.StateLost, last.State)
	assert.Equal(t, "crane", last.Answer)
}

func TestDeleteSession(t *testing.T) {
	ts, c := newTestServer(t)
	snap := newSession(t, c, ts.URL, "crane")

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/session/"+snap.ID, nil)
	require.NoError(t, err)
	res, err := c.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	getRes, err := c.Get(ts.URL + "/session/" + snap.ID)
	require.NoError(t, err)
	getRes.Body.Close()
	assert.Equal(t, http.StatusNotFound, getRes.StatusCode)
}

func TestAuthFlowAndStats(t *testing.T) {
	ts, c := newTestServer(t)

	// Gated route rejects guests.
	res, err := c.Get(ts.URL + "/stats/me")
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res = postJSON(t, c, ts.URL+"/auth/signup", map[string]string{
		"username": "tester", "password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	created := decode[map[string]any](t, res)
	assert.Equal(t, "tester", created["username"])

	// Cookie from signup authenticates /auth/me.
	res, err = c.Get(ts.URL + "/auth/me")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	me := decode[map[string]any](t, res)
	assert.Equal(t, "tester", me["username"])

	// Win a game while signed in; stats pick it up.
	snap := newSession(t, c, ts.URL, "crane")
	res = postJSON(t, c, ts.URL+"/session/"+snap.ID+"/guess", map[string]string{"guess": "crane"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	res.Body.Close()

	res, err = c.Get(ts.URL + "/stats/me")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	stats := decode[map[string]any](t, res)
	assert.EqualValues(t, 1, stats["gamesPlayed"])
	assert.EqualValues(t, 1, stats["wins"])
	assert.EqualValues(t, 1, stats["streak"])

	res, err = c.Get(ts.URL + "/games/mine")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	rows := decode[[]history.GameRow](t, res)
	require.Len(t, rows, 1)
	assert.Equal(t, "won", rows[0].Status)
	assert.Equal(t, 1, rows[0].Guesses)

	// Logout clears the cookie; gated routes reject again.
	res = postJSON(t, c, ts.URL+"/auth/logout", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	res.Body.Close()

	res, err = c.Get(ts.URL + "/stats/me")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	// Login works with the same credentials.
	res = postJSON(t, c, ts.URL+"/auth/login", map[string]string{
		"username": "tester", "password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	res.Body.Close()

	res, err = c.Get(ts.URL + "/auth/me")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestSignupValidation(t *testing.T) {
	ts, c := newTestServer(t)

	for name, body := range map[string]map[string]string{
		"short username": {"username": "ab", "password": "longenough"},
		"bad characters": {"username": "not ok!", "password": "longenough"},
		"short password": {"username": "tester", "password": "short"},
	} {
		res := postJSON(t, c, ts.URL+"/auth/signup", body)
		res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode, name)
	}

	res := postJSON(t, c, ts.URL+"/auth/signup", map[string]string{
		"username": "tester", "password": "longenough",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	res.Body.Close()

	res = postJSON(t, c, ts.URL+"/auth/signup", map[string]string{
		"username": "TESTER", "password": "longenough",
	})
	res.Body.Close()
	assert.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestAnonGamesClaimedOnSignup(t *testing.T) {
	ts, c := newTestServer(t)

	// Play (and lose fast would take 6 guesses; win instead) as a guest.
	snap := newSession(t, c, ts.URL, "crane")
	res := postJSON(t, c, ts.URL+"/session/"+snap.ID+"/guess", map[string]string{"guess": "crane"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	res.Body.Close()

	// Sign up with the same cookie jar; the anon game follows the account.
	res = postJSON(t, c, ts.URL+"/auth/signup", map[string]string{
		"username": "claimer", "password": "longenough",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	res.Body.Close()

	res, err := c.Get(ts.URL + "/games/mine")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	rows := decode[[]history.GameRow](t, res)
	require.Len(t, rows, 1)
	assert.Equal(t, "won", rows[0].Status)
}

func TestRestartMarksAbandoned(t *testing.T) {
	ts, c := newTestServer(t)

	res := postJSON(t, c, ts.URL+"/auth/signup", map[string]string{
		"username": "quitter", "password": "longenough",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	res.Body.Close()

	snap := newSession(t, c, ts.URL, "crane")
	res = postJSON(t, c, ts.URL+"/session/"+snap.ID+"/guess", map[string]string{"guess": "wrong"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	res.Body.Close()

	res = postJSON(t, c, ts.URL+"/session/"+snap.ID+"/restart", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	res.Body.Close()

	res, err := c.Get(ts.URL + "/games/mine")
	require.NoError(t, err)
	rows := decode[[]history.GameRow](t, res)
	require.Len(t, rows, 2)

	statuses := map[string]int{}
	for _, r := range rows {
		statuses[r.Status]++
	}
	assert.Equal(t, 1, statuses["abandoned"])
	assert.Equal(t, 1, statuses["playing"], "restart opens a fresh history row")

	// Abandoning a game never counts toward stats.
	res, err = c.Get(ts.URL + "/stats/me")
	require.NoError(t, err)
	stats := decode[map[string]any](t, res)
	assert.EqualValues(t, 0, stats["gamesPlayed"])
}
