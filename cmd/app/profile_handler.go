package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sushihentaime/blogicum/internal/common"
	"github.com/sushihentaime/blogicum/internal/userservice"
)

func (app *application) profileHandler(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	viewer := app.getUserContext(r)
	page := app.readPageParam(r)

	profile, err := app.userService.GetUserByUsername(r.Context(), username)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.As(err, &common.ValidationError{}):
			app.notFoundErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	list, err := app.blogService.ListUserPosts(r.Context(), profile.ID, viewer.ID, page)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"profile": profile, "posts": list.Posts, "metadata": list.Metadata}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

// editProfileFormHandler returns the current profile fields for the edit form.
// Only the owner may see it; anyone else is bounced back to the profile page.
func (app *application) editProfileFormHandler(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	user := app.getUserContext(r)

	if user.Username != username {
		http.Redirect(w, r, "/profile/"+username, http.StatusSeeOther)
		return
	}

	err := app.writeJSON(w, http.StatusOK, envelope{"profile": user}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) editProfileHandler(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	user := app.getUserContext(r)

	if user.Username != username {
		http.Redirect(w, r, "/profile/"+username, http.StatusSeeOther)
		return
	}

	var input userservice.UpdateProfileRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	updated, err := app.userService.UpdateProfile(r.Context(), user.ID, &input)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrDuplicateUsername):
			app.failedValidationErrorResponse(w, r, map[string]string{"username": "this username is already taken"})
		case errors.Is(err, userservice.ErrDuplicateEmail):
			app.failedValidationErrorResponse(w, r, map[string]string{"email": "a user with this email address already exists"})
		case errors.Is(err, userservice.ErrEditConflict):
			app.writeErrorResponse(w, r, http.StatusConflict, "unable to update the record due to an edit conflict, please try again")
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	http.Redirect(w, r, "/profile/"+updated.Username, http.StatusSeeOther)
}
