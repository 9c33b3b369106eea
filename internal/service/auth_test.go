package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testguru/timelines/internal/model"
	"github.com/testguru/timelines/internal/repository"
	"github.com/testguru/timelines/internal/service"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	createFn     func(user *model.User) error
	byIDFn       func(id string) (*model.User, error)
	byUsernameFn func(username string) (*model.User, error)
}

func (f *fakeUserRepo) Create(user *model.User) error {
	if f.createFn != nil {
		return f.createFn(user)
	}
	return nil
}

func (f *fakeUserRepo) ByID(id string) (*model.User, error) {
	if f.byIDFn != nil {
		return f.byIDFn(id)
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserRepo) ByUsername(username string) (*model.User, error) {
	if f.byUsernameFn != nil {
		return f.byUsernameFn(username)
	}
	return nil, repository.ErrUserNotFound
}

func TestRegisterValidation(t *testing.T) {
	svc := service.NewAuthService(&fakeUserRepo{}, "secret", time.Hour)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"empty username", "", "longenough"},
		{"short password", "alice", "short"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(tc.username, tc.password)
			var validationErr *service.ValidationError
			require.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestRegisterNormalizesUsername(t *testing.T) {
	var created *model.User
	repo := &fakeUserRepo{createFn: func(user *model.User) error {
		created = user
		return nil
	}}
	svc := service.NewAuthService(repo, "secret", time.Hour)

	user, err := svc.Register("  Alice  ", "password123")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "alice", user.Username)
}

func TestRegisterDuplicate(t *testing.T) {
	repo := &fakeUserRepo{createFn: func(user *model.User) error {
		return repository.ErrDuplicateUsername
	}}
	svc := service.NewAuthService(repo, "secret", time.Hour)

	_, err := svc.Register("alice", "password123")
	require.ErrorIs(t, err, service.ErrUsernameTaken)
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	alice := &model.User{ID: "u1", Username: "alice", PasswordHash: string(hash)}
	repo := &fakeUserRepo{byUsernameFn: func(username string) (*model.User, error) {
		if username == "alice" {
			return alice, nil
		}
		return nil, repository.ErrUserNotFound
	}}
	svc := service.NewAuthService(repo, "secret", time.Hour)

	t.Run("success", func(t *testing.T) {
		token, user, err := svc.Login("alice", "password123")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, "u1", user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login("alice", "wrong")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, err := svc.Login("mallory", "password123")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})
}

func TestJWTRoundTrip(t *testing.T) {
	svc := service.NewAuthService(&fakeUserRepo{}, "secret", time.Hour)

	token, err := svc.GenerateJWT(&model.User{ID: "u1", Username: "alice"})
	require.NoError(t, err)

	claims, err := svc.VerifyJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims["user_id"])
	assert.Equal(t, "alice", claims["username"])
}

func TestVerifyJWTRejectsWrongSecret(t *testing.T) {
	issuer := service.NewAuthService(&fakeUserRepo{}, "secret-a", time.Hour)
	verifier := service.NewAuthService(&fakeUserRepo{}, "secret-b", time.Hour)

	token, err := issuer.GenerateJWT(&model.User{ID: "u1", Username: "alice"})
	require.NoError(t, err)

	_, err = verifier.VerifyJWT(token)
	require.Error(t, err)
}
