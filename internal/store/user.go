package store

import (
	"database/sql"
	"fmt"

	"github.com/techpulse/techpulse/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var lastLogin sql.NullTime
	err := scanner.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name,
		&u.IsVerified, &u.IsOnline, &lastLogin, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	return &u, nil
}

const userCols = `id, email, password_hash, name, is_verified, is_online, last_login, created_at`

// Create inserts an unverified user. Returns ErrDuplicateEmail if the email
// is already registered.
func (s *UserStore) Create(email, passwordHash, name string) (*model.User, error) {
	result, err := s.db.Exec(
		`INSERT INTO users (email, password_hash, name, is_verified) VALUES (?, ?, ?, 0)`,
		email, passwordHash, name,
	)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) List() ([]model.User, error) {
	rows, err := s.db.Query(`SELECT ` + userCols + ` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// MarkVerified flips is_verified for the given email. Idempotent.
func (s *UserStore) MarkVerified(email string) error {
	_, err := s.db.Exec(`UPDATE users SET is_verified = 1 WHERE email = ?`, email)
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	return nil
}

// RecordLogin stamps last_login and marks the user online.
func (s *UserStore) RecordLogin(id int64) error {
	_, err := s.db.Exec(
		`UPDATE users SET last_login = datetime('now'), is_online = 1 WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	return nil
}

func (s *UserStore) SetOnline(id int64, online bool) error {
	result, err := s.db.Exec(`UPDATE users SET is_online = ? WHERE id = ?`, online, id)
	if err != nil {
		return fmt.Errorf("set online: %w", err)
	}
	changes, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if changes == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a user. Comments and sessions cascade via foreign keys.
func (s *UserStore) Delete(id int64) error {
	result, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	changes, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if changes == 0 {
		return sql.ErrNoRows
	}
	return nil
}
