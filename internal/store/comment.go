package store

import (
	"database/sql"
	"fmt"

	"github.com/techpulse/techpulse/internal/model"
)

type CommentStore struct {
	db *sql.DB
}

func NewCommentStore(db *sql.DB) *CommentStore {
	return &CommentStore{db: db}
}

func scanComment(scanner interface{ Scan(...any) error }) (*model.Comment, error) {
	var c model.Comment
	err := scanner.Scan(&c.ID, &c.PostID, &c.UserID, &c.UserName, &c.Content, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const commentCols = `id, post_id, user_id, user_name, content, created_at`

func (s *CommentStore) Create(postID, userID int64, userName, content string) (*model.Comment, error) {
	result, err := s.db.Exec(
		`INSERT INTO comments (post_id, user_id, user_name, content) VALUES (?, ?, ?, ?)`,
		postID, userID, userName, content,
	)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+commentCols+` FROM comments WHERE id = ?`, id)
	return scanComment(row)
}

func (s *CommentStore) ListByPost(postID int64) ([]model.Comment, error) {
	rows, err := s.db.Query(
		`SELECT `+commentCols+` FROM comments WHERE post_id = ? ORDER BY created_at DESC`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

// Delete removes a comment unconditionally (admin path). Reports whether a
// row was removed.
func (s *CommentStore) Delete(id int64) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete comment: %w", err)
	}
	changes, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return changes > 0, nil
}

// DeleteOwned removes a comment only if the given user wrote it. Reports
// whether a row was removed; a miss does not distinguish absent from
// not-owned.
func (s *CommentStore) DeleteOwned(id, userID int64) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM comments WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete owned comment: %w", err)
	}
	changes, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return changes > 0, nil
}
