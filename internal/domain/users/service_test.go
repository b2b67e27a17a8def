package users

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/placedir/server/internal/auth"
)

type fakeUserRepo struct {
	byEmail map[string]*User
	err     error
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return user, nil
}

type fakeMinter struct{}

func (fakeMinter) Mint(userID, role string) (string, error) {
	return "token-for-" + userID + "-" + role, nil
}

func newTestUser(t *testing.T) *User {
	t.Helper()
	hash, err := auth.HashPassword("correct horse battery")
	require.NoError(t, err)
	return &User{
		ID:           1,
		ULID:         "01HZXW3YJ4N5Q6R7S8T9V0AB1C",
		Email:        "owner@example.com",
		PasswordHash: hash,
		Role:         auth.RoleUser,
	}
}

func TestLoginSuccess(t *testing.T) {
	user := newTestUser(t)
	service := NewService(&fakeUserRepo{byEmail: map[string]*User{user.Email: user}}, fakeMinter{})

	token, err := service.Login(context.Background(), "owner@example.com", "correct horse battery")
	require.NoError(t, err)
	require.Equal(t, "token-for-01HZXW3YJ4N5Q6R7S8T9V0AB1C-USER", token)
}

func TestLoginNormalizesEmail(t *testing.T) {
	user := newTestUser(t)
	service := NewService(&fakeUserRepo{byEmail: map[string]*User{user.Email: user}}, fakeMinter{})

	_, err := service.Login(context.Background(), "  Owner@Example.COM ", "correct horse battery")
	require.NoError(t, err)
}

func TestLoginWrongPassword(t *testing.T) {
	user := newTestUser(t)
	service := NewService(&fakeUserRepo{byEmail: map[string]*User{user.Email: user}}, fakeMinter{})

	_, err := service.Login(context.Background(), "owner@example.com", "nope nope nope")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmailIsInvalidCredentials(t *testing.T) {
	service := NewService(&fakeUserRepo{byEmail: map[string]*User{}}, fakeMinter{})

	_, err := service.Login(context.Background(), "ghost@example.com", "whatever123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginEmptyCredentials(t *testing.T) {
	service := NewService(&fakeUserRepo{}, fakeMinter{})

	_, err := service.Login(context.Background(), "", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginStoreErrorIsNotInvalidCredentials(t *testing.T) {
	storeErr := errors.New("connection refused")
	service := NewService(&fakeUserRepo{err: storeErr}, fakeMinter{})

	_, err := service.Login(context.Background(), "owner@example.com", "whatever123")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidCredentials)
	require.ErrorIs(t, err, storeErr)
}
