package blogservice

import (
	"database/sql"
	"time"

	"github.com/sushihentaime/blogicum/internal/common"
)

type Category struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Slug        string    `json:"slug"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
}

type Location struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
}

type Post struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	// Text is stored in Markdown format.
	Text        string     `json:"text"`
	PubDate     *time.Time `json:"pub_date"`
	IsPublished bool       `json:"is_published"`
	ImageURL    *string    `json:"image_url,omitempty"`
	AuthorID    int        `json:"author_id"`
	// AuthorName is the author's username, joined from the users table.
	AuthorName   string    `json:"author"`
	Category     *Category `json:"category"`
	Location     *Location `json:"location,omitempty"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
	Comments     []Comment `json:"comments,omitempty"`
}

type Comment struct {
	ID         int       `json:"id"`
	Text       string    `json:"text"`
	PostID     int       `json:"post_id"`
	AuthorID   int       `json:"author_id"`
	AuthorName string    `json:"author"`
	CreatedAt  time.Time `json:"created_at"`
}

type PostList struct {
	Posts    []Post   `json:"posts"`
	Metadata Metadata `json:"metadata"`
}

type BlogModel struct {
	db *sql.DB
}

type BlogService struct {
	m *BlogModel
	c *common.Cache

	// now is the clock used by the visibility checks; overridable in tests.
	now func() time.Time
}
