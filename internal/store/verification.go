package store

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/techpulse/techpulse/internal/model"
)

// codeTTL is how long an issued verification code remains valid.
const codeTTL = 10 * time.Minute

type VerificationStore struct {
	db *sql.DB
}

func NewVerificationStore(db *sql.DB) *VerificationStore {
	return &VerificationStore{db: db}
}

func scanVerification(scanner interface{ Scan(...any) error }) (*model.EmailVerification, error) {
	var v model.EmailVerification
	err := scanner.Scan(&v.ID, &v.Email, &v.Code, &v.ExpiresAt, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

const verificationCols = `id, email, code, expires_at, created_at`

// generateCode returns a 6-digit numeric code (100000–999999).
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Issue generates a fresh code for the email with a 10-minute expiry.
// All previously issued codes for the same email are deleted first, so at
// most one code is ever live per address.
func (s *VerificationStore) Issue(email string) (*model.EmailVerification, error) {
	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().UTC().Add(codeTTL)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin issue: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM email_verifications WHERE email = ?`, email); err != nil {
		return nil, fmt.Errorf("delete prior codes: %w", err)
	}
	result, err := tx.Exec(
		`INSERT INTO email_verifications (email, code, expires_at) VALUES (?, ?, ?)`,
		email, code, expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert verification: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit issue: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+verificationCols+` FROM email_verifications WHERE id = ?`, id)
	return scanVerification(row)
}

// Consume atomically redeems a code. It succeeds only if a matching,
// unexpired record exists; on success every code for the email is deleted,
// so a second redemption of the same code observes nothing and fails.
func (s *VerificationStore) Consume(email, code string) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin consume: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`DELETE FROM email_verifications WHERE email = ? AND code = ? AND expires_at > datetime('now')`,
		email, code,
	)
	if err != nil {
		return false, fmt.Errorf("consume verification: %w", err)
	}
	matched, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if matched == 0 {
		return false, nil
	}

	// Invalidate anything else outstanding for this address.
	if _, err := tx.Exec(`DELETE FROM email_verifications WHERE email = ?`, email); err != nil {
		return false, fmt.Errorf("purge codes: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit consume: %w", err)
	}
	return true, nil
}

func (s *VerificationStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM email_verifications WHERE expires_at <= datetime('now')`)
	if err != nil {
		return 0, fmt.Errorf("delete expired verifications: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
