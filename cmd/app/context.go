package main

import (
	"context"
	"net/http"

	"github.com/sushihentaime/blogicum/internal/userservice"
)

type contextKey string

const userContextKey = contextKey("user")
const tokenContextKey = contextKey("token")

func (app *application) createUserContext(r *http.Request, user *userservice.User, token string) *http.Request {
	ctx := context.WithValue(r.Context(), userContextKey, user)
	ctx = context.WithValue(ctx, tokenContextKey, token)
	return r.WithContext(ctx)
}

func (app *application) getUserContext(r *http.Request) *userservice.User {
	user, ok := r.Context().Value(userContextKey).(*userservice.User)
	if !ok {
		return &userservice.AnonymousUser
	}
	return user
}

func (app *application) getTokenContext(r *http.Request) string {
	token, ok := r.Context().Value(tokenContextKey).(string)
	if !ok {
		return ""
	}
	return token
}
