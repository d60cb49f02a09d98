package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/lectures/internal/models"
	"github.com/desertthunder/lectures/internal/repositories"
	"github.com/desertthunder/lectures/internal/shared"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password is required", shared.ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// LoginInput is the submitted login form.
type LoginInput struct {
	Username string `form:"username" validate:"required,max=64"`
	Password string `form:"password" validate:"required"`
}

// Authenticate checks username and password against the stored users.
//
// An unknown user and a wrong password both return [shared.ErrInvalidCredentials].
func Authenticate(ctx context.Context, users *repositories.UserRepository, username, password string) (*models.User, error) {
	user, err := users.GetByUsername(ctx, username)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}
