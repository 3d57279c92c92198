package account

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for account data access
type Repository interface {
	// Create creates a new account
	Create(ctx context.Context, acct *Account) error

	// GetByID retrieves an account by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// GetByEmail retrieves an account by email
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// SetAvailability flips a driver's availability flag. The write is
	// conditional on the flag currently holding the opposite value;
	// ErrAvailabilityConflict is returned when a concurrent writer got
	// there first.
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error
}
