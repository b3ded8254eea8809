package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oupafamilly/oupafamilly/models"
)

func seedUser(t *testing.T, username, email, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "u-" + username,
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleMember,
	}
}

func TestRegister(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo)

	user, err := svc.Register(context.Background(), RegisterInput{
		Username: "  zizou  ",
		Email:    "  Zizou@Example.COM ",
		Password: "correcthorse",
	})
	require.NoError(t, err)

	assert.Equal(t, "zizou", user.Username)
	assert.Equal(t, "zizou@example.com", user.Email)
	assert.Equal(t, models.RoleMember, user.Role)
	assert.Empty(t, user.PasswordHash)

	stored, err := repo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.PasswordHash)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "   ", Email: "a@b.c", Password: "correcthorse"})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.Register(ctx, RegisterInput{Username: "zizou", Email: "", Password: "correcthorse"})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.Register(ctx, RegisterInput{Username: "zizou", Email: "a@b.c", Password: "short"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestRegisterConflicts(t *testing.T) {
	repo := newFakeUserRepo(seedUser(t, "zizou", "zizou@example.com", "correcthorse"))
	svc := NewAuthService(repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "someone", Email: "ZIZOU@example.com", Password: "correcthorse"})
	assert.ErrorIs(t, err, ErrUserEmailConflict)

	_, err = svc.Register(ctx, RegisterInput{Username: "zizou", Email: "other@example.com", Password: "correcthorse"})
	assert.ErrorIs(t, err, ErrUserUsernameConflict)
}

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo(seedUser(t, "zizou", "zizou@example.com", "correcthorse"))
	svc := NewAuthService(repo)

	user, err := svc.Login(context.Background(), LoginInput{Email: " Zizou@Example.com ", Password: "correcthorse"})
	require.NoError(t, err)

	assert.Equal(t, "zizou", user.Username)
	assert.Empty(t, user.PasswordHash)
}

func TestLoginInvalidCredentials(t *testing.T) {
	repo := newFakeUserRepo(seedUser(t, "zizou", "zizou@example.com", "correcthorse"))
	svc := NewAuthService(repo)
	ctx := context.Background()

	_, err := svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "correcthorse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Email: "zizou@example.com", Password: "wrongpassword"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGetUser(t *testing.T) {
	repo := newFakeUserRepo(seedUser(t, "zizou", "zizou@example.com", "correcthorse"))
	svc := NewAuthService(repo)

	user, err := svc.GetUser(context.Background(), "u-zizou")
	require.NoError(t, err)
	assert.Empty(t, user.PasswordHash)

	_, err = svc.GetUser(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
