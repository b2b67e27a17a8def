package users

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("user not found")
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// the API cannot be used to probe which emails are registered.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type User struct {
	ID           int64
	ULID         string
	Email        string
	PasswordHash string
	DisplayName  string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
