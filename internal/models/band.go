package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/desertthunder/mibands/internal/links"
	"github.com/desertthunder/mibands/internal/shared"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Band is a directory listing.
type Band struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required,max=200"`
	Slug      string    `json:"slug"`
	City      string    `json:"city,omitempty" validate:"max=120"`
	Region    Region    `json:"region,omitempty" validate:"omitempty,region"`
	Genres    []string  `json:"genres" validate:"max=20,dive,max=60"`
	Links     links.Set `json:"links"`
	PhotoURL  string    `json:"photo_url,omitempty"`
	OwnerID   string    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Band) Key() string { return b.ID }

// Validate checks required fields and the region rule.
func (b *Band) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return &ValidationError{Fields: []FieldError{{Field: "name", Tag: "required", Message: "name is required"}}}
	}
	return ValidateStruct(b)
}

// Path returns the detail page path, preferring the slug.
func (b *Band) Path() string {
	if b.Slug != "" {
		return "/bands/" + b.Slug
	}
	return "/bands/" + b.ID
}

// SearchText is the lowercased "name city region genres..." text that listing queries match.
func (b *Band) SearchText() string {
	return strings.ToLower(b.Name + " " + b.City + " " + string(b.Region) + " " + strings.Join(b.Genres, " "))
}

// OwnedBy reports whether userID owns the band.
func (b *Band) OwnedBy(userID string) bool {
	return userID != "" && b.OwnerID == userID
}

// Slugify lowercases s, collapses every run of characters outside [a-z0-9] to "-",
// and trims leading and trailing hyphens.
func Slugify(s string) string {
	return strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// CleanGenres trims each tag and drops empty ones, keeping input order.
func CleanGenres(genres []string) []string {
	out := make([]string, 0, len(genres))
	for _, g := range genres {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}

// SplitGenres parses a comma separated genre field.
func SplitGenres(s string) []string {
	return CleanGenres(strings.Split(s, ","))
}

// BandInput is the payload for creating a band.
type BandInput struct {
	Name     string    `json:"name"`
	City     string    `json:"city"`
	Region   string    `json:"region"`
	Genres   []string  `json:"genres"`
	Links    links.Set `json:"links"`
	PhotoURL string    `json:"photo_url"`
}

// Band builds a normalized, validated band owned by ownerID. Links that cannot be
// normalized are dropped.
func (in BandInput) Band(ownerID string) (*Band, error) {
	name := strings.TrimSpace(in.Name)
	photo, _ := links.Normalize(in.PhotoURL)

	b := &Band{
		Name:     name,
		Slug:     Slugify(name),
		City:     strings.TrimSpace(in.City),
		Region:   Region(strings.TrimSpace(in.Region)),
		Genres:   CleanGenres(in.Genres),
		Links:    in.Links.Canonical(),
		PhotoURL: photo,
		OwnerID:  ownerID,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// BandPatch is a partial update. Nil fields are left unchanged.
type BandPatch struct {
	ID       string     `json:"id"`
	Name     *string    `json:"name,omitempty"`
	City     *string    `json:"city,omitempty"`
	Region   *string    `json:"region,omitempty"`
	Genres   *[]string  `json:"genres,omitempty"`
	Links    *links.Set `json:"links,omitempty"`
	PhotoURL *string    `json:"photo_url,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p BandPatch) Empty() bool {
	return p.Name == nil && p.City == nil && p.Region == nil && p.Genres == nil && p.Links == nil && p.PhotoURL == nil
}

// Apply writes the present fields onto b. A new name regenerates the slug; the
// links object is replaced as a whole.
func (p BandPatch) Apply(b *Band) error {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return fmt.Errorf("%w: name cannot be empty", shared.ErrInvalidInput)
		}
		b.Name = name
		b.Slug = Slugify(name)
	}
	if p.City != nil {
		b.City = strings.TrimSpace(*p.City)
	}
	if p.Region != nil {
		b.Region = Region(strings.TrimSpace(*p.Region))
	}
	if p.Genres != nil {
		b.Genres = CleanGenres(*p.Genres)
	}
	if p.Links != nil {
		b.Links = p.Links.Canonical()
	}
	if p.PhotoURL != nil {
		b.PhotoURL, _ = links.Normalize(*p.PhotoURL)
	}
	return b.Validate()
}
