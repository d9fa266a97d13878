package models

import (
	"strings"
	"time"
)

// Profile is a user's public display profile. ID is the user id.
type Profile struct {
	ID        string    `json:"id" validate:"required"`
	Name      string    `json:"name,omitempty" validate:"max=100"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Profile) Key() string { return p.ID }

func (p *Profile) Validate() error { return ValidateStruct(p) }

// ProfileInput is the upsert payload. A nil name clears the display name.
type ProfileInput struct {
	Name *string `json:"name"`
}

// Profile builds the profile row for userID.
func (in ProfileInput) Profile(userID string) (*Profile, error) {
	p := &Profile{ID: userID}
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
