package blogservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

var (
	ErrRecordNotFound     = errors.New("record not found")
	ErrNotOwner           = errors.New("actor is not the author")
	ErrUserForeignKey     = errors.New("author does not exist")
	ErrCategoryForeignKey = errors.New("category does not exist")
	ErrLocationForeignKey = errors.New("location does not exist")
)

func newBlogModel(db *sql.DB) *BlogModel {
	return &BlogModel{db: db}
}

// ForeignKeyError is a helper function to check if the error is a foreign key constraint error.
func ForeignKeyError(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "23503" && pqErr.Constraint == name {
			return true
		}
	}

	return false
}

// The listing queries all join the author, category, and location eagerly so
// the visibility checks never chase a missing relation, and annotate each row
// with its comment count without materializing the comments.
const postColumns = `
	p.id, p.title, p.text, p.pub_date, p.is_published, p.image_url, p.author_id, u.username, p.created_at,
	c.id, c.title, c.description, c.slug, c.is_published, c.created_at,
	l.id, l.name, l.is_published, l.created_at,
	(SELECT COUNT(*) FROM comments cm WHERE cm.post_id = p.id)`

const postJoins = `
	FROM posts p
	JOIN users u ON p.author_id = u.id
	LEFT JOIN categories c ON p.category_id = c.id
	LEFT JOIN locations l ON p.location_id = l.id`

// visibleWhere mirrors the Visible predicate: $1 is the viewer id, $2 the
// current time. Authors match on the first arm; everyone else needs a
// published post, a reached publication date, and a published category.
const visibleWhere = `(p.author_id = $1 OR (p.is_published = true AND (p.pub_date IS NULL OR p.pub_date <= $2) AND c.id IS NOT NULL AND c.is_published = true))`

// Newest first; equal publication dates fall back to insertion order.
const postOrder = ` ORDER BY p.pub_date DESC NULLS LAST, p.id ASC`

type postScanner interface {
	Scan(dest ...any) error
}

func scanPost(row postScanner) (*Post, error) {
	var p Post

	var (
		catID      sql.NullInt64
		catTitle   sql.NullString
		catDesc    sql.NullString
		catSlug    sql.NullString
		catPub     sql.NullBool
		catCreated sql.NullTime

		locID      sql.NullInt64
		locName    sql.NullString
		locPub     sql.NullBool
		locCreated sql.NullTime
	)

	err := row.Scan(
		&p.ID, &p.Title, &p.Text, &p.PubDate, &p.IsPublished, &p.ImageURL, &p.AuthorID, &p.AuthorName, &p.CreatedAt,
		&catID, &catTitle, &catDesc, &catSlug, &catPub, &catCreated,
		&locID, &locName, &locPub, &locCreated,
		&p.CommentCount,
	)
	if err != nil {
		return nil, err
	}

	if catID.Valid {
		p.Category = &Category{
			ID:          int(catID.Int64),
			Title:       catTitle.String,
			Description: catDesc.String,
			Slug:        catSlug.String,
			IsPublished: catPub.Bool,
			CreatedAt:   catCreated.Time,
		}
	}

	if locID.Valid {
		p.Location = &Location{
			ID:          int(locID.Int64),
			Name:        locName.String,
			IsPublished: locPub.Bool,
			CreatedAt:   locCreated.Time,
		}
	}

	return &p, nil
}

func (m *BlogModel) insertPost(ctx context.Context, p *Post) error {
	query := `
		INSERT INTO posts (title, text, pub_date, is_published, image_url, author_id, category_id, location_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	var categoryID, locationID *int
	if p.Category != nil {
		categoryID = &p.Category.ID
	}
	if p.Location != nil {
		locationID = &p.Location.ID
	}

	err := m.db.QueryRowContext(ctx, query, p.Title, p.Text, p.PubDate, p.IsPublished, p.ImageURL, p.AuthorID, categoryID, locationID).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		switch {
		case ForeignKeyError(err, "posts_author_id_fkey"):
			return ErrUserForeignKey
		case ForeignKeyError(err, "posts_category_id_fkey"):
			return ErrCategoryForeignKey
		case ForeignKeyError(err, "posts_location_id_fkey"):
			return ErrLocationForeignKey
		default:
			return err
		}
	}

	return nil
}

func (m *BlogModel) getPost(ctx context.Context, id int) (*Post, error) {
	query := `SELECT` + postColumns + postJoins + ` WHERE p.id = $1`

	post, err := scanPost(m.db.QueryRowContext(ctx, query, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return post, nil
}

// getPostAuthor returns the author id only, for ownership checks that must not
// depend on the post being visible.
func (m *BlogModel) getPostAuthor(ctx context.Context, id int) (int, error) {
	query := `
		SELECT author_id
		FROM posts
		WHERE id = $1`

	var authorID int
	err := m.db.QueryRowContext(ctx, query, id).Scan(&authorID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return 0, ErrRecordNotFound
		default:
			return 0, err
		}
	}

	return authorID, nil
}

func (m *BlogModel) updatePost(ctx context.Context, p *Post) error {
	query := `
		UPDATE posts
		SET title = $1, text = $2, pub_date = $3, is_published = $4, image_url = $5, category_id = $6, location_id = $7
		WHERE id = $8`

	var categoryID, locationID *int
	if p.Category != nil {
		categoryID = &p.Category.ID
	}
	if p.Location != nil {
		locationID = &p.Location.ID
	}

	res, err := m.db.ExecContext(ctx, query, p.Title, p.Text, p.PubDate, p.IsPublished, p.ImageURL, categoryID, locationID, p.ID)
	if err != nil {
		switch {
		case ForeignKeyError(err, "posts_category_id_fkey"):
			return ErrCategoryForeignKey
		case ForeignKeyError(err, "posts_location_id_fkey"):
			return ErrLocationForeignKey
		default:
			return err
		}
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows != 1 {
		switch {
		case rows == 0:
			return ErrRecordNotFound
		default:
			return fmt.Errorf("expected 1 row to be affected, got %d", rows)
		}
	}

	return nil
}

// deletePost removes the post; its comments go with it via ON DELETE CASCADE.
func (m *BlogModel) deletePost(ctx context.Context, id int) error {
	query := `
		DELETE FROM posts
		WHERE id = $1`

	res, err := m.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows != 1 {
		switch {
		case rows == 0:
			return ErrRecordNotFound
		default:
			return fmt.Errorf("expected 1 row to be affected, got %d", rows)
		}
	}

	return nil
}

func (m *BlogModel) countVisiblePosts(ctx context.Context, viewerID int, now time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM posts p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE ` + visibleWhere

	var count int
	err := m.db.QueryRowContext(ctx, query, viewerID, now).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (m *BlogModel) getVisiblePosts(ctx context.Context, viewerID int, now time.Time, limit, offset int) ([]Post, error) {
	query := `SELECT` + postColumns + postJoins + ` WHERE ` + visibleWhere + postOrder + ` LIMIT $3 OFFSET $4`

	return m.queryPosts(ctx, query, viewerID, now, limit, offset)
}

func (m *BlogModel) countCategoryPosts(ctx context.Context, viewerID int, now time.Time, categoryID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM posts p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE ` + visibleWhere + ` AND p.category_id = $3`

	var count int
	err := m.db.QueryRowContext(ctx, query, viewerID, now, categoryID).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (m *BlogModel) getCategoryPosts(ctx context.Context, viewerID int, now time.Time, categoryID, limit, offset int) ([]Post, error) {
	query := `SELECT` + postColumns + postJoins + ` WHERE ` + visibleWhere + ` AND p.category_id = $3` + postOrder + ` LIMIT $4 OFFSET $5`

	return m.queryPosts(ctx, query, viewerID, now, categoryID, limit, offset)
}

func (m *BlogModel) countUserPosts(ctx context.Context, viewerID int, now time.Time, authorID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM posts p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE ` + visibleWhere + ` AND p.author_id = $3`

	var count int
	err := m.db.QueryRowContext(ctx, query, viewerID, now, authorID).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (m *BlogModel) getUserPosts(ctx context.Context, viewerID int, now time.Time, authorID, limit, offset int) ([]Post, error) {
	query := `SELECT` + postColumns + postJoins + ` WHERE ` + visibleWhere + ` AND p.author_id = $3` + postOrder + ` LIMIT $4 OFFSET $5`

	return m.queryPosts(ctx, query, viewerID, now, authorID, limit, offset)
}

func (m *BlogModel) countPostsByTitle(ctx context.Context, viewerID int, now time.Time, title string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM posts p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE ` + visibleWhere + ` AND p.title ILIKE $3`

	var count int
	err := m.db.QueryRowContext(ctx, query, viewerID, now, "%"+title+"%").Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (m *BlogModel) getPostsByTitle(ctx context.Context, viewerID int, now time.Time, title string, limit, offset int) ([]Post, error) {
	query := `SELECT` + postColumns + postJoins + ` WHERE ` + visibleWhere + ` AND p.title ILIKE $3` + postOrder + ` LIMIT $4 OFFSET $5`

	return m.queryPosts(ctx, query, viewerID, now, "%"+title+"%", limit, offset)
}

func (m *BlogModel) queryPosts(ctx context.Context, query string, args ...any) ([]Post, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}
