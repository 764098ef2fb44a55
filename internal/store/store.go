// Package store handles SQLite persistence for accounts and activity history.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.

	"github.com/MarvglobalStartup/ProSpeech/internal/model"
	"github.com/MarvglobalStartup/ProSpeech/internal/progress"
)

// Store wraps SQLite access for users and activity logs.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS activity (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL REFERENCES users(username),
			date TEXT NOT NULL,
			exercise_type TEXT NOT NULL,
			interest TEXT NOT NULL,
			wpm REAL NOT NULL,
			filler_count INTEGER NOT NULL,
			word_count INTEGER NOT NULL,
			transcript TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			username TEXT NOT NULL REFERENCES users(username)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_activity_username_date ON activity(username, date);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SignupUser creates an account and remembers it as the current user.
// The password is accepted but not stored or checked.
func (s *Store) SignupUser(ctx context.Context, username, email, password string) (model.User, error) {
	_ = password
	if username == "" {
		return model.User{}, fmt.Errorf("username must not be empty")
	}
	if email == "" {
		return model.User{}, fmt.Errorf("email must not be empty")
	}
	var taken int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE username = ?`, username).Scan(&taken); err != nil {
		return model.User{}, err
	}
	if taken > 0 {
		return model.User{}, fmt.Errorf("username %q is already taken", username)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&taken); err != nil {
		return model.User{}, err
	}
	if taken > 0 {
		return model.User{}, fmt.Errorf("an account already exists for %s", email)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, email, created_at) VALUES (?, ?, ?)`,
		username, email, time.Now().Format(time.RFC3339Nano),
	); err != nil {
		return model.User{}, err
	}
	user := model.User{Username: username, Email: email}
	if err := s.rememberUser(ctx, username); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// LoginUser looks an account up by email and remembers it as the current
// user. The password is accepted but not checked.
func (s *Store) LoginUser(ctx context.Context, email, password string) (model.User, error) {
	_ = password
	var user model.User
	err := s.db.QueryRowContext(ctx,
		`SELECT username, email FROM users WHERE email = ?`, email,
	).Scan(&user.Username, &user.Email)
	if err == sql.ErrNoRows {
		return model.User{}, fmt.Errorf("no account found for %s", email)
	}
	if err != nil {
		return model.User{}, err
	}
	if err := s.rememberUser(ctx, user.Username); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// LogoutUser forgets the remembered current user.
func (s *Store) LogoutUser(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session`)
	return err
}

// GetCurrentUser returns the remembered user, or nil when nobody is logged in.
func (s *Store) GetCurrentUser(ctx context.Context) (*model.User, error) {
	var user model.User
	err := s.db.QueryRowContext(ctx,
		`SELECT u.username, u.email FROM session s JOIN users u ON u.username = s.username WHERE s.id = 1`,
	).Scan(&user.Username, &user.Email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) rememberUser(ctx context.Context, username string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session (id, username) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET username = excluded.username`, username)
	return err
}

// GetUserData recomputes the streak and new-user flag from the full activity
// history. Call it after every RecordActivity; cached values go stale.
func (s *Store) GetUserData(ctx context.Context, username string) (model.UserData, error) {
	var user model.User
	err := s.db.QueryRowContext(ctx,
		`SELECT username, email FROM users WHERE username = ?`, username,
	).Scan(&user.Username, &user.Email)
	if err == sql.ErrNoRows {
		return model.UserData{}, fmt.Errorf("unknown user %q", username)
	}
	if err != nil {
		return model.UserData{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT date FROM activity WHERE username = ? ORDER BY date ASC`, username)
	if err != nil {
		return model.UserData{}, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var dates []string
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return model.UserData{}, err
		}
		dates = append(dates, date)
	}
	if err := rows.Err(); err != nil {
		return model.UserData{}, err
	}

	return model.UserData{
		User:      user,
		Streak:    progress.Streak(dates, progress.Today()),
		IsNewUser: len(dates) == 0,
	}, nil
}

// ListUsers returns all accounts ordered by signup time.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT username, email FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var users []model.User
	for rows.Next() {
		var user model.User
		if err := rows.Scan(&user.Username, &user.Email); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// RecordActivity appends one activity entry. Entries are never updated.
func (s *Store) RecordActivity(ctx context.Context, username string, activity model.ActivityLog) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity (id, username, date, exercise_type, interest, wpm, filler_count, word_count, transcript, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		activity.ID,
		username,
		activity.Date,
		activity.ExerciseType,
		activity.Interest,
		activity.Analysis.WPM,
		activity.Analysis.FillerCount,
		activity.Analysis.WordCount,
		activity.Transcript,
		time.Now().Format(time.RFC3339Nano),
	)
	return err
}

// ListActivity returns a user's history ordered oldest first.
func (s *Store) ListActivity(ctx context.Context, username string) ([]model.ActivityLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, exercise_type, interest, wpm, filler_count, word_count, transcript
		 FROM activity WHERE username = ? ORDER BY date ASC, created_at ASC`, username)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var logs []model.ActivityLog
	for rows.Next() {
		var entry model.ActivityLog
		if err := rows.Scan(
			&entry.ID,
			&entry.Date,
			&entry.ExerciseType,
			&entry.Interest,
			&entry.Analysis.WPM,
			&entry.Analysis.FillerCount,
			&entry.Analysis.WordCount,
			&entry.Transcript,
		); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}
