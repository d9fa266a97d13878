package models

import (
	"context"
)

// Model is implemented by every persisted entity.
type Model interface {
	// Key returns the unique identifier for this model
	Key() string
	// Validate checks if the model's data is valid and returns an error if not
	Validate() error
}

// Repository defines the data access operations shared by entity repositories.
// Create assigns the identifier; Get returns a wrapped not-found sentinel when nothing matches.
type Repository[T Model] interface {
	Create(ctx context.Context, model T) error
	Get(ctx context.Context, id string) (T, error)
}
