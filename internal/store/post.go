package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/techpulse/techpulse/internal/model"
)

type PostStore struct {
	db *sql.DB
}

func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

func scanPost(scanner interface{ Scan(...any) error }) (*model.Post, error) {
	var p model.Post
	var tagsJSON string
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Category, &p.Excerpt, &p.Author, &p.AuthorInitials,
		&p.Date, &p.Image, &tagsJSON, &p.Content, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Tags = decodeTags(tagsJSON)
	return &p, nil
}

const postCols = `id, title, category, excerpt, author, author_initials, date, image, tags, content, created_at, updated_at`

// decodeTags tolerates malformed stored tags; they decay to empty.
func decodeTags(s string) []string {
	var tags []string
	if s != "" {
		json.Unmarshal([]byte(s), &tags)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags
}

func encodeTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func (s *PostStore) Create(p model.Post) (*model.Post, error) {
	result, err := s.db.Exec(
		`INSERT INTO posts (title, category, excerpt, author, author_initials, date, image, tags, content)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Title, p.Category, p.Excerpt, p.Author, p.AuthorInitials,
		p.Date, p.Image, encodeTags(p.Tags), p.Content,
	)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *PostStore) GetByID(id int64) (*model.Post, error) {
	row := s.db.QueryRow(`SELECT `+postCols+` FROM posts WHERE id = ?`, id)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return p, nil
}

func (s *PostStore) List() ([]model.Post, error) {
	rows, err := s.db.Query(`SELECT ` + postCols + ` FROM posts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

func (s *PostStore) Update(id int64, p model.Post) (*model.Post, error) {
	result, err := s.db.Exec(
		`UPDATE posts SET
		   title = ?, category = ?, excerpt = ?, author = ?, author_initials = ?,
		   date = ?, image = ?, tags = ?, content = ?, updated_at = datetime('now')
		 WHERE id = ?`,
		p.Title, p.Category, p.Excerpt, p.Author, p.AuthorInitials,
		p.Date, p.Image, encodeTags(p.Tags), p.Content, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	changes, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if changes == 0 {
		return nil, nil
	}
	return s.GetByID(id)
}

// Delete removes a post. Comments cascade via the foreign key.
func (s *PostStore) Delete(id int64) error {
	result, err := s.db.Exec(`DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
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
