package ride

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for ride data access.
//
// Status and assignment writes are conditional updates keyed on the value
// the caller read, so two racing transitions cannot both apply: the loser
// gets ErrStatusConflict (or ErrAlreadyAssigned) instead of silently
// overwriting.
type Repository interface {
	// Create persists a new ride; the store sets timestamps
	Create(ctx context.Context, r *Ride) error

	// GetByID retrieves a ride by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Ride, error)

	// UpdateStatus moves a ride from one status to another. The write
	// applies only when the persisted status still equals from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error

	// AssignDriver sets the driver reference on a requested, driverless
	// ride, leaving status unchanged.
	AssignDriver(ctx context.Context, rideID, driverID uuid.UUID) error

	// UpdateCurrentLocation records the live coordinate on an ongoing ride
	UpdateCurrentLocation(ctx context.Context, rideID uuid.UUID, c Coordinate) error

	// ActiveRideForRider returns the rider's ride in
	// {requested, accepted, ongoing}, or ErrNotFound
	ActiveRideForRider(ctx context.Context, riderID uuid.UUID) (*Ride, error)

	// ActiveRideForDriver returns the driver's ride in
	// {accepted, ongoing}, or ErrNotFound
	ActiveRideForDriver(ctx context.Context, driverID uuid.UUID) (*Ride, error)

	// HistoryForRider lists the rider's rides with driver details
	// attached, newest first
	HistoryForRider(ctx context.Context, riderID uuid.UUID) ([]HistoryEntry, error)

	// HistoryForDriver lists the driver's rides with rider details
	// attached, newest first
	HistoryForDriver(ctx context.Context, driverID uuid.UUID) ([]HistoryEntry, error)

	// GetDetail retrieves a ride with both parties' contact details
	GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error)
}
