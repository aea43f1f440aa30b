package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func registerUser(t *testing.T, ts *testServer, db *sql.DB, username, email string) {
	code, _, _ := ts.post(t, "/users/register", map[string]any{
		"username": username,
		"email":    email,
		"password": "TestPassword123!",
	}, nil)
	assert.Equal(t, http.StatusCreated, code)

	// Activation normally happens via the emailed token; flip the flag
	// directly so the flow can continue.
	_, err := db.Exec("UPDATE users SET activated = true WHERE username = $1", username)
	assert.NoError(t, err)
}

func loginUser(t *testing.T, ts *testServer, username string) string {
	code, _, body := ts.post(t, "/users/login", map[string]any{
		"username": username,
		"password": "TestPassword123!",
	}, nil)
	assert.Equal(t, http.StatusOK, code)

	token, ok := body["token"].(map[string]any)
	assert.True(t, ok)

	accessToken, ok := token["access_token"].(string)
	assert.True(t, ok)

	return accessToken
}

func createCategory(t *testing.T, db *sql.DB, slug string, published bool) int {
	var id int
	err := db.QueryRow(`
		INSERT INTO categories (title, description, slug, is_published)
		VALUES ($1, $2, $3, $4)
		RETURNING id`, slug, "about "+slug, slug, published).Scan(&id)
	assert.NoError(t, err)
	return id
}

func createPost(t *testing.T, ts *testServer, db *sql.DB, token string, categoryID int, published bool) int {
	code, _, _ := ts.post(t, "/posts/create", map[string]any{
		"title":        "A Day in the Mountains",
		"text":         "We set off at dawn.",
		"pub_date":     time.Now().Add(-time.Hour).Format(time.RFC3339),
		"is_published": published,
		"category_id":  categoryID,
	}, &token)
	assert.Equal(t, http.StatusSeeOther, code)

	var id int
	err := db.QueryRow("SELECT id FROM posts ORDER BY id DESC LIMIT 1").Scan(&id)
	assert.NoError(t, err)
	return id
}

func TestHealthcheck(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	code, _, body := ts.get(t, "/healthcheck", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "available", body["status"])
}

func TestUserFlow(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	t.Run("register and login", func(t *testing.T) {
		registerUser(t, ts, db, "author", "author@example.com")
		token := loginUser(t, ts, "author")
		assert.NotEmpty(t, token)
	})

	t.Run("duplicate username is rejected", func(t *testing.T) {
		code, _, body := ts.post(t, "/users/register", map[string]any{
			"username": "author",
			"email":    "other@example.com",
			"password": "TestPassword123!",
		}, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		assert.NotNil(t, body["error"])
	})

	t.Run("wrong password", func(t *testing.T) {
		code, _, _ := ts.post(t, "/users/login", map[string]any{
			"username": "author",
			"password": "WrongPassword123!",
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("logout", func(t *testing.T) {
		token := loginUser(t, ts, "author")

		code, _, _ := ts.post(t, "/users/logout", nil, &token)
		assert.Equal(t, http.StatusOK, code)

		code, _, _ = ts.post(t, "/users/logout", nil, &token)
		assert.Equal(t, http.StatusUnauthorized, code)
	})
}

func TestPostEndpoints(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	registerUser(t, ts, db, "author", "author@example.com")
	registerUser(t, ts, db, "reader", "reader@example.com")
	authorToken := loginUser(t, ts, "author")
	readerToken := loginUser(t, ts, "reader")

	categoryID := createCategory(t, db, "travel", true)

	t.Run("create redirects to the author profile", func(t *testing.T) {
		code, headers, _ := ts.post(t, "/posts/create", map[string]any{
			"title":        "First Post",
			"text":         "Hello.",
			"pub_date":     time.Now().Add(-time.Hour).Format(time.RFC3339),
			"is_published": true,
			"category_id":  categoryID,
		}, &authorToken)
		assert.Equal(t, http.StatusSeeOther, code)
		assert.Equal(t, "/profile/author", headers.Get("Location"))
	})

	t.Run("anonymous create redirects to login", func(t *testing.T) {
		code, headers, _ := ts.post(t, "/posts/create", map[string]any{
			"title": "Nope",
			"text":  "Nope.",
		}, nil)
		assert.Equal(t, http.StatusSeeOther, code)
		assert.Equal(t, "/users/login", headers.Get("Location"))
	})

	t.Run("published post is readable by everyone", func(t *testing.T) {
		id := createPost(t, ts, db, authorToken, categoryID, true)

		code, _, body := ts.get(t, fmt.Sprintf("/posts/%d", id), nil)
		assert.Equal(t, http.StatusOK, code)
		post := body["post"].(map[string]any)
		assert.Equal(t, "author", post["author"])
	})

	t.Run("draft is a 404 for everyone but the author", func(t *testing.T) {
		id := createPost(t, ts, db, authorToken, categoryID, false)

		code, _, _ := ts.get(t, fmt.Sprintf("/posts/%d", id), nil)
		assert.Equal(t, http.StatusNotFound, code)

		code, _, _ = ts.get(t, fmt.Sprintf("/posts/%d", id), &readerToken)
		assert.Equal(t, http.StatusNotFound, code)

		code, _, _ = ts.get(t, fmt.Sprintf("/posts/%d", id), &authorToken)
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("non-author edit redirects without mutating", func(t *testing.T) {
		id := createPost(t, ts, db, authorToken, categoryID, true)

		code, headers, _ := ts.post(t, fmt.Sprintf("/posts/%d/edit", id), map[string]any{
			"title":        "Hijacked",
			"text":         "Hijacked.",
			"is_published": true,
			"category_id":  categoryID,
		}, &readerToken)
		assert.Equal(t, http.StatusSeeOther, code)
		assert.Equal(t, fmt.Sprintf("/posts/%d", id), headers.Get("Location"))

		var title string
		err := db.QueryRow("SELECT title FROM posts WHERE id = $1", id).Scan(&title)
		assert.NoError(t, err)
		assert.Equal(t, "A Day in the Mountains", title)
	})

	t.Run("author edit goes through", func(t *testing.T) {
		id := createPost(t, ts, db, authorToken, categoryID, true)

		code, headers, _ := ts.post(t, fmt.Sprintf("/posts/%d/edit", id), map[string]any{
			"title":        "Updated Title",
			"text":         "Updated.",
			"is_published": true,
			"category_id":  categoryID,
		}, &authorToken)
		assert.Equal(t, http.StatusSeeOther, code)
		assert.Equal(t, fmt.Sprintf("/posts/%d", id), headers.Get("Location"))

		var title string
		err := db.QueryRow("SELECT title FROM posts WHERE id = $1", id).Scan(&title)
		assert.NoError(t, err)
		assert.Equal(t, "Updated Title", title)
	})

	t.Run("non-author delete redirects and the post survives", func(t *testing.T) {
		id := createPost(t, ts, db, authorToken, categoryID, true)

		code, headers, _ := ts.post(t, fmt.Sprintf("/posts/%d/delete", id), nil, &readerToken)
		assert.Equal(t, http.StatusSeeOther, code)
		assert.Equal(t, fmt.Sprintf("/posts/%d", id), headers.Get("Location"))

		code, _, _ = ts.get(t, fmt.Sprintf("/posts/%d", id), nil)
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("author delete redirects to profile", func(t *testing.T) {
		id := createPost(t, ts, db, authorToken, categoryID, true)

		code, headers, _ := ts.post(t, fmt.Sprintf("/posts/%d/delete", id), nil, &authorToken)
		assert.Equal(t, http.StatusSeeOther, code)
		assert.Equal(t, "/profile/author", headers.Get("Location"))

		code, _, _ = ts.get(t, fmt.Sprintf("/posts/%d", id), &authorToken)
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("missing post is a 404", func(t *testing.T) {
		code, _, _ := ts.get(t, "/posts/999999", nil)
		assert.Equal(t, http.StatusNotFound, code)
	})
}

func TestCommentEndpoints(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	registerUser(t, ts, db, "author", "author@example.com")
	registerUser(t, ts, db, "reader", "reader@example.com")
	authorToken := loginUser(t, ts, "author")
	readerToken := loginUser(t, ts, "reader")

	categoryID := createCategory(t, db, "travel", true)
	postID := createPost(t, ts, db, authorToken, categoryID, true)

	t.Run("comment and read back", func(t *testing.T) {
		code, headers, _ := ts.post(t, fmt.Sprintf("/posts/%d/comment", postID), map[string]any{
			"text": "great post",
		}, &readerToken)
		assert.Equal(t, http.StatusSeeOther, code)
		assert.Equal(t, fmt.Sprintf("/posts/%d", postID), headers.Get("Location"))

		code, _, body := ts.get(t, fmt.Sprintf("/posts/%d", postID), nil)
		assert.Equal(t, http.StatusOK, code)
		post := body["post"].(map[string]any)
		comments := post["comments"].([]any)
		assert.Len(t, comments, 1)
	})

	t.Run("only the comment author can edit", func(t *testing.T) {
		var commentID int
		err := db.QueryRow("SELECT id FROM comments WHERE post_id = $1 ORDER BY id LIMIT 1", postID).Scan(&commentID)
		assert.NoError(t, err)

		code, headers, _ := ts.post(t, fmt.Sprintf("/posts/%d/edit_comment/%d", postID, commentID), map[string]any{
			"text": "hijacked",
		}, &authorToken)
		assert.Equal(t, http.StatusSeeOther, code)
		assert.Equal(t, fmt.Sprintf("/posts/%d", postID), headers.Get("Location"))

		var text string
		err = db.QueryRow("SELECT text FROM comments WHERE id = $1", commentID).Scan(&text)
		assert.NoError(t, err)
		assert.Equal(t, "great post", text)

		code, _, _ = ts.post(t, fmt.Sprintf("/posts/%d/edit_comment/%d", postID, commentID), map[string]any{
			"text": "edited",
		}, &readerToken)
		assert.Equal(t, http.StatusSeeOther, code)

		err = db.QueryRow("SELECT text FROM comments WHERE id = $1", commentID).Scan(&text)
		assert.NoError(t, err)
		assert.Equal(t, "edited", text)
	})

	t.Run("anonymous comment redirects to login", func(t *testing.T) {
		code, headers, _ := ts.post(t, fmt.Sprintf("/posts/%d/comment", postID), map[string]any{
			"text": "anon",
		}, nil)
		assert.Equal(t, http.StatusSeeOther, code)
		assert.Equal(t, "/users/login", headers.Get("Location"))
	})
}

func TestListingEndpoints(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	registerUser(t, ts, db, "author", "author@example.com")
	authorToken := loginUser(t, ts, "author")

	categoryID := createCategory(t, db, "travel", true)
	createCategory(t, db, "drafts", false)

	createPost(t, ts, db, authorToken, categoryID, true)
	createPost(t, ts, db, authorToken, categoryID, true)
	createPost(t, ts, db, authorToken, categoryID, false)

	t.Run("index shows only visible posts to anonymous viewers", func(t *testing.T) {
		code, _, body := ts.get(t, "/", nil)
		assert.Equal(t, http.StatusOK, code)

		metadata := body["metadata"].(map[string]any)
		assert.Equal(t, float64(2), metadata["total_records"])
	})

	t.Run("index shows drafts to their author", func(t *testing.T) {
		code, _, body := ts.get(t, "/", &authorToken)
		assert.Equal(t, http.StatusOK, code)

		metadata := body["metadata"].(map[string]any)
		assert.Equal(t, float64(3), metadata["total_records"])
	})

	t.Run("out of range page clamps", func(t *testing.T) {
		code, _, body := ts.get(t, "/?page=99", nil)
		assert.Equal(t, http.StatusOK, code)

		metadata := body["metadata"].(map[string]any)
		assert.Equal(t, float64(1), metadata["current_page"])
	})

	t.Run("category listing", func(t *testing.T) {
		code, _, body := ts.get(t, "/category/travel", nil)
		assert.Equal(t, http.StatusOK, code)
		assert.NotNil(t, body["category"])
	})

	t.Run("unpublished category is a 404", func(t *testing.T) {
		code, _, _ := ts.get(t, "/category/drafts", nil)
		assert.Equal(t, http.StatusNotFound, code)

		code, _, _ = ts.get(t, "/category/drafts", &authorToken)
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("search", func(t *testing.T) {
		code, _, body := ts.get(t, "/posts/search?q=mountains", nil)
		assert.Equal(t, http.StatusOK, code)

		metadata := body["metadata"].(map[string]any)
		assert.Equal(t, float64(2), metadata["total_records"])
	})
}

func TestProfileEndpoints(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	registerUser(t, ts, db, "author", "author@example.com")
	registerUser(t, ts, db, "reader", "reader@example.com")
	authorToken := loginUser(t, ts, "author")
	readerToken := loginUser(t, ts, "reader")

	categoryID := createCategory(t, db, "travel", true)
	createPost(t, ts, db, authorToken, categoryID, true)
	createPost(t, ts, db, authorToken, categoryID, false)

	t.Run("profile shows visible posts to others", func(t *testing.T) {
		code, _, body := ts.get(t, "/profile/author", &readerToken)
		assert.Equal(t, http.StatusOK, code)

		metadata := body["metadata"].(map[string]any)
		assert.Equal(t, float64(1), metadata["total_records"])
	})

	t.Run("profile shows everything to its owner", func(t *testing.T) {
		code, _, body := ts.get(t, "/profile/author", &authorToken)
		assert.Equal(t, http.StatusOK, code)

		metadata := body["metadata"].(map[string]any)
		assert.Equal(t, float64(2), metadata["total_records"])
	})

	t.Run("missing profile is a 404", func(t *testing.T) {
		code, _, _ := ts.get(t, "/profile/nobody", nil)
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("non-owner edit redirects to the profile", func(t *testing.T) {
		code, headers, _ := ts.post(t, "/profile/author/edit", map[string]any{
			"username": "author",
			"email":    "author@example.com",
		}, &readerToken)
		assert.Equal(t, http.StatusSeeOther, code)
		assert.Equal(t, "/profile/author", headers.Get("Location"))
	})

	t.Run("owner edit updates and redirects", func(t *testing.T) {
		code, headers, _ := ts.post(t, "/profile/reader/edit", map[string]any{
			"username":   "renamed",
			"email":      "reader@example.com",
			"first_name": "New",
			"last_name":  "Name",
		}, &readerToken)
		assert.Equal(t, http.StatusSeeOther, code)
		assert.Equal(t, "/profile/renamed", headers.Get("Location"))

		code, _, body := ts.get(t, "/profile/renamed", nil)
		assert.Equal(t, http.StatusOK, code)
		profile := body["profile"].(map[string]any)
		assert.Equal(t, "New", profile["first_name"])
	})
}
