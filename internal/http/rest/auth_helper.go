package rest

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwise1/moment_stack/internal/model"
	"github.com/bwise1/moment_stack/util"
	"github.com/bwise1/moment_stack/util/values"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const accessTokenType = "access"

type TokenClaims struct {
	UserID string `json:"sub"`
	Type   string `json:"typ"`
	Exp    int64  `json:"exp"`
}

func (api *API) createToken(id string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(api.Config.JwtExpires)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": id,
		"exp": expiresAt.Unix(),
		"iat": now.Unix(),
		"typ": accessTokenType,
	})

	tokenString, err := token.SignedString([]byte(api.Config.JwtSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

func (api *API) RegisterUser(ctx context.Context, req model.RegisterRequest) (model.LoginResponse, string, string, error) {
	req.Email = normalizeEmail(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := util.ValidateInput(req); err != nil {
		return model.LoginResponse{}, values.BadRequestBody, err.Error(), err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.LoginResponse{}, values.Error, "Failed to secure password", err
	}

	user, err := api.Users.Create(ctx, model.User{
		ID:           util.GenerateUUID(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
	})
	switch {
	case errors.Is(err, model.ErrEmailTaken):
		return model.LoginResponse{}, values.Conflict, "Email already exists", err
	case errors.Is(err, model.ErrUsernameTaken):
		return model.LoginResponse{}, values.Conflict, "Username already taken", err
	case err != nil:
		return model.LoginResponse{}, values.Error, "Error creating new user", err
	}

	token, _, err := api.createToken(user.ID.String())
	if err != nil {
		return model.LoginResponse{}, values.Error, "Failed to create token", err
	}
	return model.LoginResponse{User: user, Token: token}, values.Created, "User registered successfully", nil
}

// LoginUser answers unknown emails and wrong passwords identically.
func (api *API) LoginUser(ctx context.Context, req model.LoginRequest) (model.LoginResponse, string, string, error) {
	req.Email = normalizeEmail(req.Email)
	if err := util.ValidateInput(req); err != nil {
		return model.LoginResponse{}, values.BadRequestBody, err.Error(), err
	}

	user, err := api.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.LoginResponse{}, values.NotAuthorised, "Invalid credentials", model.ErrInvalidCredentials
	}
	if err != nil {
		return model.LoginResponse{}, values.Error, "Error fetching user", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return model.LoginResponse{}, values.NotAuthorised, "Invalid credentials", model.ErrInvalidCredentials
	}

	token, _, err := api.createToken(user.ID.String())
	if err != nil {
		return model.LoginResponse{}, values.Error, "Failed to create token", err
	}
	return model.LoginResponse{User: user, Token: token}, values.Success, "Login successful", nil
}

func (api *API) UpdateProfileHelper(ctx context.Context, id uuid.UUID, req model.UpdateProfileRequest) (model.User, string, string, error) {
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		req.Email = &email
	}
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		req.Username = &username
	}
	if req.AvatarURL != nil {
		avatar := strings.TrimSpace(*req.AvatarURL)
		req.AvatarURL = &avatar
	}
	if req.Email == nil && req.Username == nil && req.AvatarURL == nil {
		err := model.NewValidationError("", "At least one field (email, username or avatar_url) is required")
		return model.User{}, values.BadRequestBody, err.Message, err
	}
	if err := util.ValidateInput(req); err != nil {
		return model.User{}, values.BadRequestBody, err.Error(), err
	}

	user, err := api.Users.Update(ctx, id, req)
	switch {
	case errors.Is(err, model.ErrEmailTaken):
		return model.User{}, values.Conflict, "Email already exists", err
	case errors.Is(err, model.ErrUsernameTaken):
		return model.User{}, values.Conflict, "Username already taken", err
	case errors.Is(err, model.ErrUserNotFound):
		return model.User{}, values.NotFound, "User not found", err
	case err != nil:
		return model.User{}, values.Error, "Failed to update profile", err
	}
	// Cached moments embed the owner's username and avatar.
	if req.Username != nil || req.AvatarURL != nil {
		api.Moments.ProfileChanged(ctx, id)
	}
	return user, values.Success, "Profile updated successfully", nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
