// internal/game/types.go
//
// Core type definitions for the game engine.
// Defines:
//   - Code: per-letter feedback for a guess (absent/present/correct).
//   - Feedback: one Code per letter position of a guess.
//   - GuessRecord: a submitted guess together with its feedback.
//   - State: session lifecycle (playing/won/lost).
//   - Config: per-session board dimensions.

package game

import "errors"

// Code classifies a single letter of a guess. Codes are ordered by
// informativeness: Correct > Present > Absent. The numeric values are part
// of the JSON contract with renderers (0=absent, 1=present, 2=correct).
type Code int

const (
	Absent Code = iota
	Present
	Correct
)

// Feedback holds one Code per letter position of a guess.
type Feedback []Code

// GuessRecord pairs a guess with its feedback. Immutable once appended to
// a session's board.
type GuessRecord struct {
	Word     string   `json:"word"`
	Feedback Feedback `json:"feedback"`
}

// State is the coarse session lifecycle.
// Once won or lost, a session only accepts Restart.
type State string

const (
	StatePlaying State = "playing"
	StateWon     State = "won"
	StateLost    State = "lost"
)

const (
	DefaultWordLength = 5
	DefaultMaxGuesses = 6
)

// Config fixes the dimensions of a session. Zero values fall back to the
// classic 6x5 board.
type Config struct {
	WordLength int
	MaxGuesses int
}

func (c Config) withDefaults() Config {
	if c.WordLength <= 0 {
		c.WordLength = DefaultWordLength
	}
	if c.MaxGuesses <= 0 {
		c.MaxGuesses = DefaultMaxGuesses
	}
	return c
}

var (
	// ErrInvalidGuess rejects raw input that is not exactly WordLength
	// lowercase ASCII letters. The session is left unchanged.
	ErrInvalidGuess = errors.New("invalid guess")

	// ErrSessionTerminated rejects guesses after a session is won or lost.
	// Only Restart is valid from a terminal state.
	ErrSessionTerminated = errors.New("session finished")
)

// AnswerSource supplies secret answers. Implemented by words.List.
type AnswerSource interface {
	Pick() (string, error)
}
