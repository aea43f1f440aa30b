package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sushihentaime/blogicum/internal/blogservice"
	"github.com/sushihentaime/blogicum/internal/common"
)

func (app *application) indexHandler(w http.ResponseWriter, r *http.Request) {
	user := app.getUserContext(r)
	page := app.readPageParam(r)

	list, err := app.blogService.ListPosts(r.Context(), user.ID, page)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"posts": list.Posts, "metadata": list.Metadata}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) categoryPostsHandler(w http.ResponseWriter, r *http.Request) {
	user := app.getUserContext(r)
	page := app.readPageParam(r)
	slug := chi.URLParam(r, "slug")

	category, list, err := app.blogService.ListCategoryPosts(r.Context(), slug, user.ID, page)
	if err != nil {
		switch {
		case errors.Is(err, blogservice.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.As(err, &common.ValidationError{}):
			app.notFoundErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"category": category, "posts": list.Posts, "metadata": list.Metadata}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

// listCategoriesHandler backs the category picker on the post form.
func (app *application) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := app.blogService.ListCategories(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"categories": categories}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) searchPostsHandler(w http.ResponseWriter, r *http.Request) {
	user := app.getUserContext(r)
	page := app.readPageParam(r)
	query := r.URL.Query().Get("q")

	list, err := app.blogService.SearchPosts(r.Context(), query, user.ID, page)
	if err != nil {
		switch {
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"posts": list.Posts, "metadata": list.Metadata}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) postDetailHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	post, err := app.blogService.GetPost(r.Context(), id, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, blogservice.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

type postForm struct {
	Title       string     `json:"title"`
	Text        string     `json:"text"`
	PubDate     *time.Time `json:"pub_date"`
	IsPublished bool       `json:"is_published"`
	ImageURL    *string    `json:"image_url"`
	CategoryID  *int       `json:"category_id"`
	LocationID  *int       `json:"location_id"`
}

func (app *application) createPostHandler(w http.ResponseWriter, r *http.Request) {
	var input postForm

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	req := &blogservice.CreatePostRequest{
		Title:       input.Title,
		Text:        input.Text,
		PubDate:     input.PubDate,
		IsPublished: input.IsPublished,
		ImageURL:    input.ImageURL,
		CategoryID:  input.CategoryID,
		LocationID:  input.LocationID,
		AuthorID:    user.ID,
	}

	_, err = app.blogService.CreatePost(r.Context(), req)
	if err != nil {
		switch {
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		case errors.Is(err, blogservice.ErrCategoryForeignKey):
			app.failedValidationErrorResponse(w, r, map[string]string{"category_id": "this category does not exist"})
		case errors.Is(err, blogservice.ErrLocationForeignKey):
			app.failedValidationErrorResponse(w, r, map[string]string{"location_id": "this location does not exist"})
		case errors.Is(err, blogservice.ErrUserForeignKey):
			app.unAuthorizedErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	http.Redirect(w, r, "/profile/"+user.Username, http.StatusSeeOther)
}

func (app *application) editPostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input postForm

	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	req := &blogservice.UpdatePostRequest{
		ID:          id,
		Title:       input.Title,
		Text:        input.Text,
		PubDate:     input.PubDate,
		IsPublished: input.IsPublished,
		ImageURL:    input.ImageURL,
		CategoryID:  input.CategoryID,
		LocationID:  input.LocationID,
	}

	err = app.blogService.UpdatePost(r.Context(), req, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, blogservice.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.Is(err, blogservice.ErrNotOwner):
			http.Redirect(w, r, fmt.Sprintf("/posts/%d", id), http.StatusSeeOther)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		case errors.Is(err, blogservice.ErrCategoryForeignKey):
			app.failedValidationErrorResponse(w, r, map[string]string{"category_id": "this category does not exist"})
		case errors.Is(err, blogservice.ErrLocationForeignKey):
			app.failedValidationErrorResponse(w, r, map[string]string{"location_id": "this location does not exist"})
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/posts/%d", id), http.StatusSeeOther)
}

func (app *application) deletePostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	err = app.blogService.DeletePost(r.Context(), id, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, blogservice.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.Is(err, blogservice.ErrNotOwner):
			http.Redirect(w, r, fmt.Sprintf("/posts/%d", id), http.StatusSeeOther)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	http.Redirect(w, r, "/profile/"+user.Username, http.StatusSeeOther)
}
