package providerRepo

import (
	"context"
	"errors"

	"tutorly/models"
)

var ErrProviderNotFound = errors.New("provider not found")

// ProviderRepository defines methods for provider data access.
type ProviderRepository interface {
	// GetByID retrieves a provider by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Provider, error)
	// GetAvailability returns only the weekly availability of a provider.
	GetAvailability(ctx context.Context, id string) (models.ProviderAvailability, error)
	// UpdateAvailability replaces a provider's weekly availability.
	UpdateAvailability(ctx context.Context, id string, avail models.ProviderAvailability) error
	// EnsureIndexes creates the indexes the queries above rely on.
	EnsureIndexes(ctx context.Context) error
}
