package models

import (
	"strings"
	"time"
)

// ProviderPassword marks accounts that sign in with email and password.
const ProviderPassword = "password"

// User is an account that can sign in and own bands.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email" validate:"required,email,max=254"`
	PasswordHash    string    `json:"-"`
	Provider        string    `json:"provider" validate:"required"`
	ProviderSubject string    `json:"-"`
	IsAdmin         bool      `json:"is_admin"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (u *User) Key() string { return u.ID }

func (u *User) Validate() error { return ValidateStruct(u) }

// NormalizeEmail trims and lowercases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
