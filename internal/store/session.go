package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/techpulse/techpulse/internal/model"
)

// sessionTTL is the absolute lifetime of a session token.
const sessionTTL = 7 * 24 * time.Hour

type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

func scanSession(scanner interface{ Scan(...any) error }) (*model.Session, error) {
	var s model.Session
	var adminID, userID sql.NullInt64
	err := scanner.Scan(
		&s.ID, &s.Token, &s.Kind, &adminID, &userID,
		&s.ExpiresAt, &s.LastSeenAt, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if adminID.Valid {
		s.AdminID = &adminID.Int64
	}
	if userID.Valid {
		s.UserID = &userID.Int64
	}
	return &s, nil
}

const sessionCols = `id, token, kind, admin_id, user_id, expires_at, last_seen_at, created_at`

func newToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(tokenBytes), nil
}

// CreateAdmin establishes an admin session with a crypto-random token.
func (s *SessionStore) CreateAdmin(adminID int64) (*model.Session, error) {
	return s.create(model.SessionKindAdmin, adminID)
}

// CreateUser establishes a user session with a crypto-random token.
func (s *SessionStore) CreateUser(userID int64) (*model.Session, error) {
	return s.create(model.SessionKindUser, userID)
}

func (s *SessionStore) create(kind string, principalID int64) (*model.Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().UTC().Add(sessionTTL)

	var adminID, userID sql.NullInt64
	if kind == model.SessionKindAdmin {
		adminID = sql.NullInt64{Int64: principalID, Valid: true}
	} else {
		userID = sql.NullInt64{Int64: principalID, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO sessions (token, kind, admin_id, user_id, expires_at) VALUES (?, ?, ?, ?, ?)`,
		token, kind, adminID, userID, expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

// GetByToken returns the session for the given token, or nil if expired or
// not found.
func (s *SessionStore) GetByToken(token string) (*model.Session, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionCols+` FROM sessions WHERE token = ? AND expires_at > datetime('now')`,
		token,
	)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session by token: %w", err)
	}
	return sess, nil
}

// Touch stamps last_seen_at so the idle sweep treats the session as active.
func (s *SessionStore) Touch(id int64) error {
	_, err := s.db.Exec(`UPDATE sessions SET last_seen_at = datetime('now') WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteByUserID(userID int64) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete sessions by user: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at <= datetime('now')`)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

// SweepIdle deletes sessions idle for longer than the given timeout and
// marks users with no remaining session as offline. Returns the number of
// sessions removed.
func (s *SessionStore) SweepIdle(idle time.Duration) (int64, error) {
	modifier := fmt.Sprintf("-%d seconds", int64(idle.Seconds()))

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin sweep: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`DELETE FROM sessions WHERE last_seen_at <= datetime('now', ?)`,
		modifier,
	)
	if err != nil {
		return 0, fmt.Errorf("sweep idle sessions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	// is_online is derived from live sessions, never written by handlers
	// out-of-band.
	_, err = tx.Exec(
		`UPDATE users SET is_online = 0
		 WHERE is_online = 1
		   AND id NOT IN (SELECT user_id FROM sessions WHERE kind = 'user')`,
	)
	if err != nil {
		return 0, fmt.Errorf("mark idle users offline: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit sweep: %w", err)
	}
	return count, nil
}
