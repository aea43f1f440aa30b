package blogservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func (m *BlogModel) insertComment(ctx context.Context, c *Comment) error {
	query := `
		INSERT INTO comments (text, post_id, author_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := m.db.QueryRowContext(ctx, query, c.Text, c.PostID, c.AuthorID).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		switch {
		case ForeignKeyError(err, "comments_post_id_fkey"):
			return ErrRecordNotFound
		case ForeignKeyError(err, "comments_author_id_fkey"):
			return ErrUserForeignKey
		default:
			return err
		}
	}

	return nil
}

// getComment loads a comment scoped to a post: a comment id paired with the
// wrong post id is a not-found, not a leak of another post's comment.
func (m *BlogModel) getComment(ctx context.Context, postID, commentID int) (*Comment, error) {
	query := `
		SELECT c.id, c.text, c.post_id, c.author_id, u.username, c.created_at
		FROM comments c
		JOIN users u ON c.author_id = u.id
		WHERE c.id = $1 AND c.post_id = $2`

	var c Comment
	err := m.db.QueryRowContext(ctx, query, commentID, postID).Scan(&c.ID, &c.Text, &c.PostID, &c.AuthorID, &c.AuthorName, &c.CreatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &c, nil
}

// getComments returns a post's comments oldest first.
func (m *BlogModel) getComments(ctx context.Context, postID int) ([]Comment, error) {
	query := `
		SELECT c.id, c.text, c.post_id, c.author_id, u.username, c.created_at
		FROM comments c
		JOIN users u ON c.author_id = u.id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC, c.id ASC`

	rows, err := m.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		err := rows.Scan(&c.ID, &c.Text, &c.PostID, &c.AuthorID, &c.AuthorName, &c.CreatedAt)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return comments, nil
}

func (m *BlogModel) updateComment(ctx context.Context, postID, commentID int, text string) error {
	query := `
		UPDATE comments
		SET text = $1
		WHERE id = $2 AND post_id = $3`

	res, err := m.db.ExecContext(ctx, query, text, commentID, postID)
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

func (m *BlogModel) deleteComment(ctx context.Context, postID, commentID int) error {
	query := `
		DELETE FROM comments
		WHERE id = $1 AND post_id = $2`

	res, err := m.db.ExecContext(ctx, query, commentID, postID)
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
