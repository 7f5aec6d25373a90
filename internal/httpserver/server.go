// internal/httpserver/server.go
//
// HTTP wiring for the game backend: the presentation-adapter boundary.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/debug/words".
//   - Session endpoints (optional auth): create, snapshot, guess, restart.
//   - Auth + profile/stat endpoints: /auth/*, /stats/me, /games/mine.
//
// The server holds no game rules of its own: it relays raw guess input to
// the owned game.Session, maps the session's errors onto HTTP statuses, and
// returns the session snapshot for the client to render. Each session is
// keyed by a random ID and serializes its own mutations, so concurrent
// players never share mutable state.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/guessle/guessle/internal/game"
	"github.com/guessle/guessle/internal/history"
	"github.com/guessle/guessle/internal/store"
	"github.com/guessle/guessle/internal/words"
)

// Server bundles router, word list, live session registry, and history DB.
type Server struct {
	r        *chi.Mux
	words    *words.List
	sessions store.Store
	history  *history.Store

	// rows maps a live session ID to its current history row. A restart
	// closes the old row and opens a fresh one.
	mu   sync.Mutex
	rows map[string]string
}

// New constructs a Server, installs middleware, and registers routes.
func New(list *words.List, sessions store.Store, db *sql.DB) *Server {
	s := &Server{
		r:        chi.NewRouter(),
		words:    list,
		sessions: sessions,
		history:  history.NewStore(db),
		rows:     make(map[string]string),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)
	s.r.Use(corsFromEnv)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"guessle","endpoints":["/health","POST /session/new","GET /session/{id}","POST /session/{id}/guess","POST /session/{id}/restart","/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]int{
			"words":      s.words.Len(),
			"wordLength": s.words.WordLength(),
		})
	})

	// Session endpoints — OPTIONAL AUTH (guests can play)
	s.r.With(s.withOptionalAuth()).Route("/session", func(r chi.Router) {
		r.Post("/new", s.handleNewSession)
		r.Get("/{id}", s.handleSnapshot)
		r.Post("/{id}/guess", s.handleGuess)
		r.Post("/{id}/restart", s.handleRestart)
		r.Delete("/{id}", s.handleDeleteSession)
	})

	// Auth + profile/stats
	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := getEnv("CLIENT_ORIGIN", "http://localhost:5173")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ----------------------------- sessions ------------------------------------

// newSessionReq is the payload for POST /session/new.
type newSessionReq struct {
	Answer     string `json:"answer"` // optional fixed answer (testing)
	WordLength int    `json:"wordLength,omitempty"`
	MaxGuesses int    `json:"maxGuesses,omitempty"`
}

// handleNewSession creates a session, registers it, and opens a history row
// for the current owner (user or anonymous cookie).
func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	var req newSessionReq
	_ = json.NewDecoder(r.Body).Decode(&req)

	cfg := game.Config{WordLength: req.WordLength, MaxGuesses: req.MaxGuesses}
	if cfg.WordLength != 0 && cfg.WordLength != s.words.WordLength() {
		http.Error(w, `{"error":"unsupported_word_length"}`, http.StatusBadRequest)
		return
	}
	sess, err := game.New(s.words, cfg, req.Answer)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	if err := s.sessions.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save session")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	s.openRow(w, r, sess.ID())
	_ = json.NewEncoder(w).Encode(sess.Snapshot())
}

// handleSnapshot returns the current board, keyboard, and state.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	_ = json.NewEncoder(w).Encode(sess.Snapshot())
}

// guessReq is the payload for POST /session/{id}/guess.
type guessReq struct {
	Guess string `json:"guess"`
}

// handleGuess relays one guess to the session and maps its errors:
// invalid input → 400, terminal session → 409. Input normalization (trim,
// lowercase) is presentation-side and happens here, not in the engine.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}

	snap, err := sess.SubmitGuess(normalizeGuess(req.Guess))
	switch {
	case errors.Is(err, game.ErrInvalidGuess):
		http.Error(w, `{"error":"invalid_guess"}`, http.StatusBadRequest)
		return
	case errors.Is(err, game.ErrSessionTerminated):
		http.Error(w, `{"error":"session_finished"}`, http.StatusConflict)
		return
	case err != nil:
		http.Error(w, `{"error":"guess_failed"}`, http.StatusInternalServerError)
		return
	}

	// Persist counters/result (best effort, non-fatal if it fails).
	owner := s.ownerFor(w, r)
	rowID := s.rowFor(sess.ID())
	if rowID != "" {
		if err := s.history.RecordGuess(r.Context(), rowID, owner); err != nil {
			log.Warn().Err(err).Str("game", rowID).Msg("record guess")
		}
		if snap.State != game.StatePlaying {
			if err := s.history.FinishGame(r.Context(), rowID, owner, string(snap.State)); err != nil {
				log.Warn().Err(err).Str("game", rowID).Msg("finish game")
			}
		}
	}
	_ = json.NewEncoder(w).Encode(snap)
}

// handleRestart replaces the session's game wholesale: new answer, cleared
// board and keyboard. The previous history row is closed as "abandoned" if
// the game was still running, and a fresh row is opened.
func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	wasPlaying := sess.Snapshot().State == game.StatePlaying

	snap, err := sess.Restart()
	if err != nil {
		log.Error().Err(err).Msg("restart session")
		http.Error(w, `{"error":"restart_failed"}`, http.StatusInternalServerError)
		return
	}

	owner := s.ownerFor(w, r)
	if rowID := s.rowFor(sess.ID()); rowID != "" && wasPlaying {
		if err := s.history.FinishGame(r.Context(), rowID, owner, "abandoned"); err != nil {
			log.Warn().Err(err).Str("game", rowID).Msg("abandon game")
		}
	}
	s.openRow(w, r, sess.ID())
	_ = json.NewEncoder(w).Encode(snap)
}

// handleDeleteSession discards a live session. An unfinished game is closed
// in history as "abandoned"; nothing about the session survives.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	wasPlaying := sess.Snapshot().State == game.StatePlaying
	if rowID := s.rowFor(sess.ID()); rowID != "" && wasPlaying {
		if err := s.history.FinishGame(r.Context(), rowID, s.ownerFor(w, r), "abandoned"); err != nil {
			log.Warn().Err(err).Str("game", rowID).Msg("abandon game")
		}
	}
	if err := s.sessions.Delete(r.Context(), sess.ID()); err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	s.mu.Lock()
	delete(s.rows, sess.ID())
	s.mu.Unlock()
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// ----------------------------- helpers -------------------------------------

// lookup resolves {id} to a live session or writes a 404.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*game.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

// ownerFor returns the history owner for this request: the authenticated
// user if present, otherwise the anonymous cookie ID.
func (s *Server) ownerFor(w http.ResponseWriter, r *http.Request) history.Owner {
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		return history.Owner{UserID: me.ID}
	}
	return history.Owner{AnonID: s.ensureAnonID(w, r)}
}

// openRow starts a fresh history row for a session and remembers it.
func (s *Server) openRow(w http.ResponseWriter, r *http.Request, sessionID string) {
	rowID := history.NewID()
	if err := s.history.StartGame(r.Context(), rowID, s.ownerFor(w, r)); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("start game row")
		return
	}
	s.mu.Lock()
	s.rows[sessionID] = rowID
	s.mu.Unlock()
}

// rowFor returns the active history row for a session, if any.
func (s *Server) rowFor(sessionID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[sessionID]
}

// normalizeGuess trims surrounding whitespace and lowercases raw input.
// Anything else (length, alphabet) is for the session to judge.
func normalizeGuess(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// parseLimit reads an integer query param with a default and a cap.
func parseLimit(r *http.Request, name string, def, max int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
