package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/placedir/server/internal/auth"
)

type Repository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// TokenMinter issues a signed token for an authenticated user.
type TokenMinter interface {
	Mint(userID, role string) (string, error)
}

type Service struct {
	repo   Repository
	signer TokenMinter
}

func NewService(repo Repository, signer TokenMinter) *Service {
	return &Service{repo: repo, signer: signer}
}

// Login verifies the credentials and returns a signed token whose subject is
// the user's ULID.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("load user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}

	token, err := s.signer.Mint(user.ULID, user.Role)
	if err != nil {
		return "", fmt.Errorf("mint token: %w", err)
	}
	return token, nil
}
