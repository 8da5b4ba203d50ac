package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/klarity-app/klarity/internal/auth"
	"github.com/klarity-app/klarity/internal/shared"
	_ "github.com/klarity-app/klarity/testing"
)

type stubRepo struct {
	byEmail map[string]*auth.User
	byID    map[string]*auth.User
	synced  bool
}

func newStubRepo(users ...*auth.User) *stubRepo {
	s := &stubRepo{byEmail: make(map[string]*auth.User), byID: make(map[string]*auth.User)}
	for _, u := range users {
		s.byEmail[u.Email] = u
		s.byID[u.ID] = u
	}
	return s
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) FindByID(ctx context.Context, id string) (*auth.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) Create(ctx context.Context, user *auth.User) error {
	if _, ok := s.byEmail[user.Email]; ok {
		return shared.ErrDuplicate
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
	return nil
}

func (s *stubRepo) SyncProfile(ctx context.Context, id, name, image string) error {
	if u, ok := s.byID[id]; ok {
		u.Name = name
		u.Image = image
	}
	s.synced = true
	return nil
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	user := &auth.User{ID: "u1", Email: "user@test.local", PasswordHash: hashOf(t, "correct-horse")}
	service := auth.NewService(newStubRepo(user))

	t.Run("success", func(t *testing.T) {
		got, err := service.Authenticate(ctx, "user@test.local", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, "u1", got.ID)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := service.Authenticate(ctx, "ghost@test.local", "correct-horse")
		assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := service.Authenticate(ctx, "user@test.local", "wrong")
		assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
	})

	t.Run("oauth-only account has no hash", func(t *testing.T) {
		oauthOnly := &auth.User{ID: "u2", Email: "oauth@test.local"}
		s := auth.NewService(newStubRepo(oauthOnly))
		_, err := s.Authenticate(ctx, "oauth@test.local", "anything")
		assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
	})
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user with hashed password", func(t *testing.T) {
		repo := newStubRepo()
		service := auth.NewService(repo)

		user, err := service.Register(ctx, "new@test.local", "hunter2hunter2", "New User")
		require.NoError(t, err)
		assert.NotEmpty(t, user.ID)
		assert.NotEqual(t, "hunter2hunter2", user.PasswordHash)

		got, err := service.Authenticate(ctx, "new@test.local", "hunter2hunter2")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("taken email", func(t *testing.T) {
		repo := newStubRepo(&auth.User{ID: "u1", Email: "taken@test.local"})
		service := auth.NewService(repo)

		_, err := service.Register(ctx, "taken@test.local", "hunter2hunter2", "Someone")
		assert.ErrorIs(t, err, shared.ErrDuplicate)
	})
}

func TestSignInWithProvider(t *testing.T) {
	ctx := context.Background()
	identity := auth.Identity{Subject: "google-1", Email: "pro@test.local", Name: "Pro User", Image: "https://img"}

	t.Run("first sign-in creates the user", func(t *testing.T) {
		repo := newStubRepo()
		service := auth.NewService(repo)

		user, err := service.SignInWithProvider(ctx, identity)
		require.NoError(t, err)
		assert.Equal(t, "pro@test.local", user.Email)
		assert.Equal(t, "Pro User", user.Name)
		require.NotNil(t, user.EmailVerified)
	})

	t.Run("later sign-in syncs the profile", func(t *testing.T) {
		existing := &auth.User{ID: "u1", Email: "pro@test.local", Name: "Old Name"}
		repo := newStubRepo(existing)
		service := auth.NewService(repo)

		user, err := service.SignInWithProvider(ctx, identity)
		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
		assert.Equal(t, "Pro User", user.Name)
		assert.True(t, repo.synced)
	})
}
