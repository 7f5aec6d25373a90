// internal/game/session.go
//
// Session is the state machine for one player's game.
// Responsibilities:
//   - Choose a secret answer from an AnswerSource.
//   - Validate and apply guesses (length, lowercase alphabetic).
//   - Track board history, keyboard status, and playing → won/lost
//     transitions.
//   - Restart in place with a fresh answer from any state.
//
// Each Session owns a mutex so guess submissions from a hosting server are
// serialized per session; independent sessions share no mutable state.

package game

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
)

// Session holds the full state of a single game. All exported methods are
// safe for concurrent use; callers only ever see copies via Snapshot.
type Session struct {
	mu sync.Mutex

	id     string
	cfg    Config
	src    AnswerSource
	answer string
	board  []GuessRecord
	keys   Keyboard
	state  State
}

// Snapshot is the render-ready view of a session: everything a presentation
// layer needs to draw the board and keyboard without reaching into internals.
// The answer is populated only once the session is terminal.
type Snapshot struct {
	ID         string        `json:"sessionId"`
	State      State         `json:"state"`
	WordLength int           `json:"wordLength"`
	MaxGuesses int           `json:"maxGuesses"`
	Board      []GuessRecord `json:"board"`
	Keyboard   Keyboard      `json:"keyboard"`
	Answer     string        `json:"answer,omitempty"`
}

// New constructs a session with an empty board and a freshly chosen answer.
// If withAnswer is non-empty it is used instead of drawing from src (useful
// for tests and scripted games); it must fit the configured word length.
func New(src AnswerSource, cfg Config, withAnswer string) (*Session, error) {
	cfg = cfg.withDefaults()
	ans := strings.ToLower(strings.TrimSpace(withAnswer))
	if ans == "" {
		var err error
		ans, err = src.Pick()
		if err != nil {
			return nil, fmt.Errorf("choose answer: %w", err)
		}
	}
	if len(ans) != cfg.WordLength || !isLowerAlpha(ans) {
		return nil, fmt.Errorf("answer must be %d lowercase letters", cfg.WordLength)
	}
	return &Session{
		id:     randomID(),
		cfg:    cfg,
		src:    src,
		answer: ans,
		board:  []GuessRecord{},
		keys:   Keyboard{},
		state:  StatePlaying,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// SubmitGuess validates and applies one guess, returning the post-transition
// snapshot. The error cases leave the session untouched:
//   - ErrSessionTerminated if the session is already won or lost.
//   - ErrInvalidGuess if raw is not exactly WordLength lowercase letters.
//
// A matching guess transitions to won; a non-matching guess that exhausts
// the guess limit transitions to lost.
func (s *Session) SubmitGuess(raw string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePlaying {
		return s.snapshotLocked(), ErrSessionTerminated
	}
	if len(raw) != s.cfg.WordLength || !isLowerAlpha(raw) {
		return s.snapshotLocked(), ErrInvalidGuess
	}

	fb := Score(raw, s.answer)
	s.board = append(s.board, GuessRecord{Word: raw, Feedback: fb})
	s.keys.Update(raw, fb)

	if raw == s.answer {
		s.state = StateWon
	} else if len(s.board) >= s.cfg.MaxGuesses {
		s.state = StateLost
	}
	return s.snapshotLocked(), nil
}

// Restart replaces the whole game in place: new answer, empty board, empty
// keyboard, state playing. Valid from any state, including mid-game.
func (s *Session) Restart() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ans, err := s.src.Pick()
	if err != nil {
		return s.snapshotLocked(), fmt.Errorf("choose answer: %w", err)
	}
	s.answer = ans
	s.board = []GuessRecord{}
	s.keys = Keyboard{}
	s.state = StatePlaying
	return s.snapshotLocked(), nil
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// snapshotLocked deep-copies board and keyboard so callers can never alias
// live session state. Caller must hold s.mu.
func (s *Session) snapshotLocked() Snapshot {
	board := make([]GuessRecord, len(s.board))
	for i, rec := range s.board {
		fb := make(Feedback, len(rec.Feedback))
		copy(fb, rec.Feedback)
		board[i] = GuessRecord{Word: rec.Word, Feedback: fb}
	}
	snap := Snapshot{
		ID:         s.id,
		State:      s.state,
		WordLength: s.cfg.WordLength,
		MaxGuesses: s.cfg.MaxGuesses,
		Board:      board,
		Keyboard:   s.keys.clone(),
	}
	if s.state != StatePlaying {
		snap.Answer = s.answer
	}
	return snap
}

// randomID returns a compact 16-hex-char identifier.
// Collisions are extremely unlikely given crypto/rand entropy.
func randomID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
