package model

import "time"

type Post struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Category       string    `json:"category"`
	Excerpt        string    `json:"excerpt"`
	Author         string    `json:"author"`
	AuthorInitials string    `json:"author_initials"`
	Date           string    `json:"date"`
	Image          string    `json:"image"`
	Tags           []string  `json:"tags"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
