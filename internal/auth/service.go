package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/klarity-app/klarity/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials. An unknown email,
// a user without a stored hash, and a wrong password are
// indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if user.PasswordHash == "" {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Register creates a credential-backed user account.
func (s *Service) Register(ctx context.Context, email, password, name string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SignInWithProvider resolves a verified provider identity to a local
// user, creating the account on first sign-in and syncing profile
// fields on later ones.
func (s *Service) SignInWithProvider(ctx context.Context, identity Identity) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, identity.Email)
	if err == nil {
		if user.Name != identity.Name || user.Image != identity.Image {
			if err := s.repo.SyncProfile(ctx, user.ID, identity.Name, identity.Image); err != nil {
				return nil, err
			}
			user.Name = identity.Name
			user.Image = identity.Image
		}
		return user, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	user = &User{
		ID:            uuid.NewString(),
		Email:         identity.Email,
		Name:          identity.Name,
		Image:         identity.Image,
		EmailVerified: &now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UserByID loads a user record for the current session subject.
func (s *Service) UserByID(ctx context.Context, id string) (*User, error) {
	return s.repo.FindByID(ctx, id)
}
