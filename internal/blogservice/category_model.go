package blogservice

import (
	"context"
	"database/sql"
	"errors"
)

func (m *BlogModel) getCategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	query := `
		SELECT id, title, description, slug, is_published, created_at
		FROM categories
		WHERE slug = $1`

	var c Category
	err := m.db.QueryRowContext(ctx, query, slug).Scan(&c.ID, &c.Title, &c.Description, &c.Slug, &c.IsPublished, &c.CreatedAt)
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

// getCategories returns the published categories, for the post form.
func (m *BlogModel) getCategories(ctx context.Context) ([]Category, error) {
	query := `
		SELECT id, title, description, slug, is_published, created_at
		FROM categories
		WHERE is_published = true
		ORDER BY title ASC`

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Slug, &c.IsPublished, &c.CreatedAt)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}
