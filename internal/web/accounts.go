package web

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/mibands/internal/auth"
	"github.com/desertthunder/mibands/internal/models"
	"github.com/desertthunder/mibands/internal/repositories"
	"github.com/desertthunder/mibands/internal/services"
	"github.com/desertthunder/mibands/internal/shared"
)

// Accounts signs users in with a password or a provider identity.
type Accounts struct {
	users    *repositories.UserRepository
	profiles *repositories.ProfileRepository
}

// NewAccounts creates a new [Accounts].
func NewAccounts(users *repositories.UserRepository, profiles *repositories.ProfileRepository) *Accounts {
	return &Accounts{users: users, profiles: profiles}
}

// SignUp creates a password account.
func (a *Accounts) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &models.User{Email: email, PasswordHash: hash, Provider: models.ProviderPassword}
	if err := a.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SignIn checks an email and password. Unknown emails and wrong passwords both return
// [shared.ErrInvalidCredentials].
func (a *Accounts) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	u, err := a.users.GetByEmail(ctx, email)
	if errors.Is(err, shared.ErrUserNotFound) {
		return nil, shared.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if u.PasswordHash == "" || !auth.VerifyPassword(u.PasswordHash, password) {
		return nil, shared.ErrInvalidCredentials
	}
	return u, nil
}

// SignInExternal returns the user linked to a provider identity, creating it on first sign-in.
//
// An email already registered through another method is not linked automatically.
func (a *Accounts) SignInExternal(ctx context.Context, id *services.ExternalIdentity) (*models.User, error) {
	u, err := a.users.GetByProvider(ctx, id.Provider, id.Subject)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, shared.ErrUserNotFound) {
		return nil, err
	}

	u = &models.User{Email: id.Email, Provider: id.Provider, ProviderSubject: id.Subject}
	if err := a.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create %s account: %w", id.Provider, err)
	}

	if name := strings.TrimSpace(id.Name); name != "" {
		if r := []rune(name); len(r) > 100 {
			name = string(r[:100])
		}
		if err := a.profiles.Upsert(ctx, &models.Profile{ID: u.ID, Name: name}); err != nil {
			return nil, err
		}
	}
	return u, nil
}
