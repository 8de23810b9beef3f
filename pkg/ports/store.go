package ports

import (
	"context"

	"github.com/aretw0/studioflow/pkg/domain"
)

// RunStore persists the externally visible state of runs.
type RunStore interface {
	// Save persists the record under record.ID, replacing any previous version.
	Save(ctx context.Context, record *domain.RunRecord) error

	// Load retrieves a run record.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (*domain.RunRecord, error)

	// Delete removes a run record. Deleting an unknown run is not an error.
	Delete(ctx context.Context, runID string) error

	// List returns the IDs of all stored runs.
	List(ctx context.Context) ([]string, error)
}
