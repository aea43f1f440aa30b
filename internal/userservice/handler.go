package userservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sushihentaime/blogicum/internal/common"
)

var (
	ErrAuthenticationFailure = fmt.Errorf("unauthorized access")
	ErrNotActivated          = fmt.Errorf("account not activated")
)

func NewUserService(db *sql.DB, mb common.MessageProducer, c *common.Cache) *UserService {
	return &UserService{
		m:  newUserModel(db),
		mb: mb,
		c:  c,
	}
}

type CreateUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// CreateUser creates a new user account and publishes an user.created event so
// the mail service can send the activation email.
func (s *UserService) CreateUser(ctx context.Context, req *CreateUserRequest) (*User, error) {
	v := common.NewValidator()
	validateUsername(v, req.Username)
	validateEmail(v, req.Email)
	validateName(v, req.FirstName, "first_name")
	validateName(v, req.LastName, "last_name")
	validatePassword(v, req.Password)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	u := User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  Password{Plain: req.Password},
	}

	err := u.Password.set(u.Password.Plain)
	if err != nil {
		return nil, err
	}

	err = s.m.insertUser(ctx, &u)
	if err != nil {
		return nil, err
	}

	token, err := s.m.createToken(ctx, u.ID, ActivationTokenTime, TokenScopeActivate)
	if err != nil {
		return nil, err
	}

	data := struct {
		Email string
		Token string
	}{
		Email: u.Email,
		Token: token.Plain,
	}

	emailData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	err = s.mb.Publish(ctx, emailData, common.UserCreatedKey, common.UserExchange)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// ActivateUser activates a user account using the token and deletes the token
// from the database.
func (s *UserService) ActivateUser(ctx context.Context, token string) error {
	v := common.NewValidator()
	ValidateToken(v, token)
	if !v.Valid() {
		return v.ValidationError()
	}

	hash := hashToken(token)

	user, err := s.m.getUserByToken(ctx, TokenScopeActivate, hash)
	if err != nil {
		return err
	}

	tx, err := s.m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	err = s.m.activateUserAccount(tx, ctx, user.ID, user.Version)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	err = s.m.deleteToken(tx, ctx, user.ID, TokenScopeActivate)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

// LoginUser logs in a user and returns the access token and refresh token. An
// existing unexpired token pair is reused so concurrent clients share one
// session.
func (s *UserService) LoginUser(ctx context.Context, username, password string) (*AuthToken, error) {
	v := common.NewValidator()
	validateUsername(v, username)
	validatePassword(v, password)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	user, err := s.m.getUserByUsername(ctx, username)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, ErrAuthenticationFailure
		default:
			return nil, err
		}
	}

	ok, err := user.Password.compare(password)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrAuthenticationFailure
	}

	if !user.Activated {
		return nil, ErrNotActivated
	}

	dbToken, err := s.m.getAuthToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	tx, err := s.m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	if dbToken != nil {
		if dbToken.AccessTokenExpiry.After(time.Now()) && dbToken.RefreshTokenExpiry.After(time.Now()) {
			_ = tx.Rollback()
			return dbToken, nil
		}

		err = s.m.deleteAuthToken(tx, ctx, user.ID)
		if err != nil {
			_ = tx.Rollback()
			return nil, err
		}
	}

	authToken, err := s.m.createAuthToken(tx, ctx, user.ID)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return authToken, nil
}

// GetUserByAccessToken resolves the user behind an access token. Hits are
// cached briefly since every authenticated request goes through this path.
func (s *UserService) GetUserByAccessToken(ctx context.Context, token string) (*User, error) {
	v := common.NewValidator()
	ValidateToken(v, token)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	hash := hashToken(token)
	key := common.CacheKeyUserByAccessToken(hash)

	if cached, ok := s.c.Get(key); ok {
		if user, ok := cached.(*User); ok {
			return user, nil
		}
	}

	user, err := s.m.getUserByAccessToken(ctx, hash)
	if err != nil {
		return nil, err
	}

	s.c.Set(key, user, 5*time.Minute)

	return user, nil
}

// GetUserByUsername returns the profile for a username.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	v := common.NewValidator()
	validateUsername(v, username)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	key := common.CacheKeyUserByUsername(username)

	if cached, ok := s.c.Get(key); ok {
		if user, ok := cached.(*User); ok {
			return user, nil
		}
	}

	user, err := s.m.getUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	s.c.Set(key, user)

	return user, nil
}

type UpdateProfileRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UpdateProfile updates the acting user's own profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, userID int, req *UpdateProfileRequest) (*User, error) {
	v := common.NewValidator()
	validateUsername(v, req.Username)
	validateEmail(v, req.Email)
	validateName(v, req.FirstName, "first_name")
	validateName(v, req.LastName, "last_name")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	user, err := s.m.getUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	oldUsername := user.Username

	user.Username = req.Username
	user.Email = req.Email
	user.FirstName = req.FirstName
	user.LastName = req.LastName

	if err := s.m.updateUser(ctx, user); err != nil {
		return nil, err
	}

	s.c.Delete(common.CacheKeyUserByUsername(oldUsername))
	s.c.Delete(common.CacheKeyUserByUsername(user.Username))

	return user, nil
}

// LogoutUser deletes the user's token pair and drops the cached session.
func (s *UserService) LogoutUser(ctx context.Context, userID int, accessToken string) error {
	v := common.NewValidator()
	validateInt(v, userID, "user_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	tx, err := s.m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	err = s.m.deleteAuthToken(tx, ctx, userID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	if accessToken != "" {
		s.c.Delete(common.CacheKeyUserByAccessToken(hashToken(accessToken)))
	}

	return nil
}

func (u *User) IsAnonymous() bool {
	return u == &AnonymousUser
}

func (u *User) IsActivated() bool {
	return u.Activated
}
