package userservice

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/sushihentaime/blogicum/internal/common"
)

func testUserRequest() CreateUserRequest {
	return CreateUserRequest{
		Username:  "testuser",
		Email:     "testuser@example.com",
		FirstName: "Test",
		LastName:  "User",
		Password:  "TestPassword123!",
	}
}

func setupTestEnvironment(t *testing.T) (*UserService, *sql.DB, func() error, error) {
	db := common.TestDB("file://../../migrations", t)

	connURL := common.TestRabbitMQ(t)
	mb, err := common.NewMessageBroker(connURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not create message broker: %w", err)
	}

	err = common.SetupUserExchange(mb)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not setup user exchange: %w", err)
	}

	cleanup := func() error {
		_, err := db.Exec("DELETE FROM tokens")
		if err != nil {
			return err
		}

		_, err = db.Exec("DELETE FROM auth_tokens")
		if err != nil {
			return err
		}

		_, err = db.Exec("DELETE FROM users")
		if err != nil {
			return err
		}

		return nil
	}

	c := common.NewCache(5*time.Minute, 10*time.Minute)

	return NewUserService(db, mb, c), db, cleanup, nil
}

func TestCreateUser(t *testing.T) {
	s, db, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	testCases := []struct {
		name       string
		payload    func() CreateUserRequest
		setup      func(ctx context.Context) error
		invalidReq bool
		wantErr    error
	}{
		{
			name:    "valid user",
			payload: testUserRequest,
		},
		{
			name: "empty username",
			payload: func() CreateUserRequest {
				req := testUserRequest()
				req.Username = ""
				return req
			},
			invalidReq: true,
		},
		{
			name: "invalid email",
			payload: func() CreateUserRequest {
				req := testUserRequest()
				req.Email = "not an email"
				return req
			},
			invalidReq: true,
		},
		{
			name: "weak password",
			payload: func() CreateUserRequest {
				req := testUserRequest()
				req.Password = "password"
				return req
			},
			invalidReq: true,
		},
		{
			name:    "duplicate username",
			payload: testUserRequest,
			setup: func(ctx context.Context) error {
				req := testUserRequest()
				req.Email = "other@example.com"
				_, err := s.CreateUser(ctx, &req)
				return err
			},
			wantErr: ErrDuplicateUsername,
		},
		{
			name:    "duplicate email",
			payload: testUserRequest,
			setup: func(ctx context.Context) error {
				req := testUserRequest()
				req.Username = "otheruser"
				_, err := s.CreateUser(ctx, &req)
				return err
			},
			wantErr: ErrDuplicateEmail,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Cleanup(func() {
				assert.NoError(t, cleanup())
			})

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if tc.setup != nil {
				assert.NoError(t, tc.setup(ctx))
			}

			req := tc.payload()
			user, err := s.CreateUser(ctx, &req)

			switch {
			case tc.invalidReq:
				var ve common.ValidationError
				assert.ErrorAs(t, err, &ve)
			case tc.wantErr != nil:
				assert.ErrorIs(t, err, tc.wantErr)
			default:
				assert.NoError(t, err)
				assert.NotZero(t, user.ID)
				assert.False(t, user.Activated)

				var count int
				err = db.QueryRow("SELECT COUNT(*) FROM tokens WHERE user_id = $1", user.ID).Scan(&count)
				assert.NoError(t, err)
				assert.Equal(t, 1, count)
			}
		})
	}
}

func TestActivateUser(t *testing.T) {
	s, db, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	createUser := func(ctx context.Context, t *testing.T) (*User, string) {
		req := testUserRequest()
		user, err := s.CreateUser(ctx, &req)
		assert.NoError(t, err)

		token, err := s.m.createToken(ctx, user.ID, ActivationTokenTime, TokenScopeActivate)
		assert.NoError(t, err)

		return user, token.Plain
	}

	t.Run("valid token activates the account", func(t *testing.T) {
		t.Cleanup(func() {
			assert.NoError(t, cleanup())
		})

		ctx := context.Background()
		user, token := createUser(ctx, t)

		err := s.ActivateUser(ctx, token)
		assert.NoError(t, err)

		var activated bool
		err = db.QueryRow("SELECT activated FROM users WHERE id = $1", user.ID).Scan(&activated)
		assert.NoError(t, err)
		assert.True(t, activated)

		var count int
		err = db.QueryRow("SELECT COUNT(*) FROM tokens WHERE user_id = $1 AND scope = $2", user.ID, string(TokenScopeActivate)).Scan(&count)
		assert.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("malformed token", func(t *testing.T) {
		err := s.ActivateUser(context.Background(), "short")

		var ve common.ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("unknown token", func(t *testing.T) {
		t.Cleanup(func() {
			assert.NoError(t, cleanup())
		})

		ctx := context.Background()
		createUser(ctx, t)

		unknown, err := newToken(0, time.Hour, TokenScopeActivate)
		assert.NoError(t, err)

		err = s.ActivateUser(ctx, unknown.Plain)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestLoginUser(t *testing.T) {
	s, _, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	createActivatedUser := func(ctx context.Context, t *testing.T) *User {
		req := testUserRequest()
		user, err := s.CreateUser(ctx, &req)
		assert.NoError(t, err)

		token, err := s.m.createToken(ctx, user.ID, ActivationTokenTime, TokenScopeActivate)
		assert.NoError(t, err)
		assert.NoError(t, s.ActivateUser(ctx, token.Plain))

		return user
	}

	t.Run("valid credentials", func(t *testing.T) {
		t.Cleanup(func() {
			assert.NoError(t, cleanup())
		})

		ctx := context.Background()
		user := createActivatedUser(ctx, t)

		authToken, err := s.LoginUser(ctx, user.Username, testUserRequest().Password)
		assert.NoError(t, err)
		assert.NotEmpty(t, authToken.AccessTokenPlain)
		assert.NotEmpty(t, authToken.RefreshTokenPlain)
		assert.True(t, authToken.AccessTokenExpiry.After(time.Now()))
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Cleanup(func() {
			assert.NoError(t, cleanup())
		})

		ctx := context.Background()
		user := createActivatedUser(ctx, t)

		_, err := s.LoginUser(ctx, user.Username, "WrongPassword123!")
		assert.ErrorIs(t, err, ErrAuthenticationFailure)
	})

	t.Run("unknown username", func(t *testing.T) {
		_, err := s.LoginUser(context.Background(), "nobody", "TestPassword123!")
		assert.ErrorIs(t, err, ErrAuthenticationFailure)
	})

	t.Run("unactivated account", func(t *testing.T) {
		t.Cleanup(func() {
			assert.NoError(t, cleanup())
		})

		ctx := context.Background()
		req := testUserRequest()
		user, err := s.CreateUser(ctx, &req)
		assert.NoError(t, err)

		_, err = s.LoginUser(ctx, user.Username, req.Password)
		assert.ErrorIs(t, err, ErrNotActivated)
	})

	t.Run("repeated login reuses the unexpired token pair", func(t *testing.T) {
		t.Cleanup(func() {
			assert.NoError(t, cleanup())
		})

		ctx := context.Background()
		user := createActivatedUser(ctx, t)

		first, err := s.LoginUser(ctx, user.Username, testUserRequest().Password)
		assert.NoError(t, err)

		second, err := s.LoginUser(ctx, user.Username, testUserRequest().Password)
		assert.NoError(t, err)
		assert.Equal(t, first.AccessTokenHash, second.AccessTokenHash)
	})
}

func TestGetUserByAccessToken(t *testing.T) {
	s, _, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, cleanup())
	})

	ctx := context.Background()

	req := testUserRequest()
	user, err := s.CreateUser(ctx, &req)
	assert.NoError(t, err)

	token, err := s.m.createToken(ctx, user.ID, ActivationTokenTime, TokenScopeActivate)
	assert.NoError(t, err)
	assert.NoError(t, s.ActivateUser(ctx, token.Plain))

	authToken, err := s.LoginUser(ctx, user.Username, req.Password)
	assert.NoError(t, err)

	got, err := s.GetUserByAccessToken(ctx, authToken.AccessTokenPlain)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.Username, got.Username)

	// Second lookup is served from the cache.
	cached, err := s.GetUserByAccessToken(ctx, authToken.AccessTokenPlain)
	assert.NoError(t, err)
	assert.Equal(t, got, cached)

	_, err = s.GetUserByAccessToken(ctx, "AAAAAAAAAAAAAAAAAAAAAAAAAA")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.LogoutUser(ctx, user.ID, authToken.AccessTokenPlain))

	_, err = s.GetUserByAccessToken(ctx, authToken.AccessTokenPlain)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	s, _, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	createUser := func(ctx context.Context, t *testing.T, username, email string) *User {
		req := testUserRequest()
		req.Username = username
		req.Email = email
		user, err := s.CreateUser(ctx, &req)
		assert.NoError(t, err)
		return user
	}

	t.Run("updates the profile fields", func(t *testing.T) {
		t.Cleanup(func() {
			assert.NoError(t, cleanup())
		})

		ctx := context.Background()
		user := createUser(ctx, t, "testuser", "testuser@example.com")

		updated, err := s.UpdateProfile(ctx, user.ID, &UpdateProfileRequest{
			Username:  "renamed",
			Email:     "renamed@example.com",
			FirstName: "New",
			LastName:  "Name",
		})
		assert.NoError(t, err)
		assert.Equal(t, "renamed", updated.Username)
		assert.Equal(t, "New", updated.FirstName)

		got, err := s.GetUserByUsername(ctx, "renamed")
		assert.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		_, err = s.GetUserByUsername(ctx, "testuser")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("cannot take another user's username", func(t *testing.T) {
		t.Cleanup(func() {
			assert.NoError(t, cleanup())
		})

		ctx := context.Background()
		createUser(ctx, t, "first", "first@example.com")
		second := createUser(ctx, t, "second", "second@example.com")

		_, err := s.UpdateProfile(ctx, second.ID, &UpdateProfileRequest{
			Username: "first",
			Email:    "second@example.com",
		})
		assert.ErrorIs(t, err, ErrDuplicateUsername)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := s.UpdateProfile(context.Background(), 999999, &UpdateProfileRequest{
			Username: "ghost",
			Email:    "ghost@example.com",
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
