// internal/history/store.go
//
// Query layer over the history database: user accounts, finished game
// results, and per-user aggregates (games played, wins, streak). Each game
// row is owned either by a user or by an anonymous cookie ID; anonymous
// rows can be claimed by an account on signup/login.

package history

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"time"
)

// ErrUsernameTaken is returned by CreateUser for duplicate usernames.
var ErrUsernameTaken = errors.New("username taken")

// Owner identifies who a game row belongs to: a signed-in user or an
// anonymous cookie holder. Exactly one field should be set.
type Owner struct {
	UserID string
	AnonID string
}

func (o Owner) clause() (string, any) {
	if o.UserID != "" {
		return "user_id=?", o.UserID
	}
	return "anonymous_id=?", o.AnonID
}

// User matches the users table shape.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	GamesPlayed  int
	Wins         int
	Streak       int
}

// GameRow is one entry of a user's game history.
type GameRow struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Guesses    int    `json:"guesses"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt,omitempty"`
}

// Store wraps the history database.
type Store struct {
	db *sql.DB
}

// NewStore constructs a Store over an opened, migrated database.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// StartGame inserts a fresh game row in "playing" status.
func (s *Store) StartGame(ctx context.Context, gameID string, o Owner) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO games (id, user_id, anonymous_id, status, guesses, started_at)
		 VALUES (?, NULLIF(?,''), NULLIF(?,''), 'playing', 0, ?)`,
		gameID, o.UserID, o.AnonID, now)
	return err
}

// RecordGuess increments the guess counter of an in-progress game row.
func (s *Store) RecordGuess(ctx context.Context, gameID string, o Owner) error {
	clause, arg := o.clause()
	_, err := s.db.ExecContext(ctx,
		`UPDATE games SET guesses = guesses + 1 WHERE id=? AND `+clause, gameID, arg)
	return err
}

// FinishGame marks a game row terminal and, for won/lost games owned by a
// user, bumps that user's aggregates in the same transaction. Status
// "abandoned" (restart mid-game) never touches stats.
func (s *Store) FinishGame(ctx context.Context, gameID string, o Owner, status string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	clause, arg := o.clause()
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx,
		`UPDATE games SET status=?, finished_at=? WHERE id=? AND `+clause,
		status, now, gameID, arg); err != nil {
		return err
	}
	if o.UserID != "" && (status == "won" || status == "lost") {
		if err := bumpStats(ctx, tx, o.UserID, status == "won"); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// bumpStats increments games played; updates wins and streak based on the
// result. Runs inside the FinishGame transaction.
func bumpStats(ctx context.Context, tx *sql.Tx, userID string, won bool) error {
	var gp, wins, streak int
	row := tx.QueryRowContext(ctx,
		`SELECT games_played, wins, streak FROM users WHERE id=?`, userID)
	if err := row.Scan(&gp, &wins, &streak); err != nil {
		return err
	}
	gp++
	if won {
		wins++
		streak++
	} else {
		streak = 0
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE users SET games_played=?, wins=?, streak=? WHERE id=?`,
		gp, wins, streak, userID)
	return err
}

// RecentGames returns a user's latest game rows, newest first.
func (s *Store) RecentGames(ctx context.Context, userID string, limit int) ([]GameRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, guesses, started_at, COALESCE(finished_at,'')
		 FROM games WHERE user_id=? ORDER BY started_at DESC, id DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []GameRow{}
	for rows.Next() {
		var gr GameRow
		if err := rows.Scan(&gr.ID, &gr.Status, &gr.Guesses, &gr.StartedAt, &gr.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, gr)
	}
	return out, rows.Err()
}

// ClaimAnonGames transfers anonymous game rows to a user account after auth.
func (s *Store) ClaimAnonGames(ctx context.Context, anonID, userID string) error {
	if anonID == "" || userID == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE games SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`,
		userID, anonID)
	return err
}

// CreateUser inserts a new user with a pre-hashed password.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (*User, error) {
	var exists int
	_ = s.db.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE lower(username)=lower(?)`, username).Scan(&exists)
	if exists == 1 {
		return nil, ErrUsernameTaken
	}
	now := time.Now().UTC()
	id := NewID()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		id, username, passwordHash, now.Format(time.RFC3339)); err != nil {
		return nil, err
	}
	return &User{ID: id, Username: username, PasswordHash: passwordHash, CreatedAt: now}, nil
}

// UserByUsername loads a user row by name (case-insensitive).
func (s *Store) UserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at, games_played, wins, streak
		 FROM users WHERE lower(username)=lower(?)`, username)
	return scanUser(row)
}

// UserByID loads a user row by ID.
func (s *Store) UserByID(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at, games_played, wins, streak
		 FROM users WHERE id=?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var created string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created,
		&u.GamesPlayed, &u.Wins, &u.Streak); err != nil {
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &u, nil
}

// NewID creates a 22-char URL-safe, crypto-random identifier (no padding).
func NewID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	s := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(b[:])
	if len(s) > 22 {
		return s[:22]
	}
	return s
}
