package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (app *application) routes() http.Handler {
	router := chi.NewRouter()

	router.NotFound(app.notFoundErrorResponse)
	router.MethodNotAllowed(app.methodNotAllowedErrorResponse)

	router.Get("/healthcheck", app.healthCheckHandler)

	// user service
	router.Post("/users/register", app.registerUserHandler)
	router.Put("/users/activate", app.activateUserHandler)
	router.Post("/users/login", app.loginUserHandler)
	router.Post("/users/logout", app.requireAuthUser(app.logoutUserHandler))

	// blog service
	router.Get("/", app.indexHandler)
	router.Get("/categories", app.listCategoriesHandler)
	router.Get("/category/{slug}", app.categoryPostsHandler)
	router.Get("/posts/search", app.searchPostsHandler)
	router.Get("/posts/{id}", app.postDetailHandler)
	router.Post("/posts/create", app.requireAuthUser(app.createPostHandler))
	router.Post("/posts/{id}/edit", app.requireAuthUser(app.editPostHandler))
	router.Post("/posts/{id}/delete", app.requireAuthUser(app.deletePostHandler))
	router.Post("/posts/{id}/comment", app.requireAuthUser(app.addCommentHandler))
	router.Post("/posts/{id}/edit_comment/{comment_id}", app.requireAuthUser(app.editCommentHandler))
	router.Post("/posts/{id}/delete_comment/{comment_id}", app.requireAuthUser(app.deleteCommentHandler))

	// profiles
	router.Get("/profile/{username}", app.profileHandler)
	router.Get("/profile/{username}/edit", app.requireAuthUser(app.editProfileFormHandler))
	router.Post("/profile/{username}/edit", app.requireAuthUser(app.editProfileHandler))

	return app.recoverPanic(app.logRequest(app.enableCORS(app.rateLimit(app.authenticate(router)))))
}
