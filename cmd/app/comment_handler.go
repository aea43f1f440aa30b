package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sushihentaime/blogicum/internal/blogservice"
	"github.com/sushihentaime/blogicum/internal/common"
)

type commentForm struct {
	Text string `json:"text"`
}

func (app *application) addCommentHandler(w http.ResponseWriter, r *http.Request) {
	postID, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input commentForm

	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	_, err = app.blogService.AddComment(r.Context(), postID, user.ID, input.Text)
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

	http.Redirect(w, r, fmt.Sprintf("/posts/%d", postID), http.StatusSeeOther)
}

func (app *application) editCommentHandler(w http.ResponseWriter, r *http.Request) {
	postID, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	commentID, err := app.readIDParam(r, "comment_id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input commentForm

	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	err = app.blogService.UpdateComment(r.Context(), postID, commentID, user.ID, input.Text)
	if err != nil {
		switch {
		case errors.Is(err, blogservice.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.Is(err, blogservice.ErrNotOwner):
			http.Redirect(w, r, fmt.Sprintf("/posts/%d", postID), http.StatusSeeOther)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/posts/%d", postID), http.StatusSeeOther)
}

func (app *application) deleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	postID, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	commentID, err := app.readIDParam(r, "comment_id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	err = app.blogService.DeleteComment(r.Context(), postID, commentID, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, blogservice.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.Is(err, blogservice.ErrNotOwner):
			http.Redirect(w, r, fmt.Sprintf("/posts/%d", postID), http.StatusSeeOther)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/posts/%d", postID), http.StatusSeeOther)
}
