// Package lifecycle implements the ride lifecycle engine: it validates and
// applies every state transition on a ride and coordinates the paired update
// to driver availability. It owns no storage of its own; both aggregates are
// persisted through their repositories.
package lifecycle

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/quickcab/ride-hailing/internal/domain/account"
	"github.com/quickcab/ride-hailing/internal/domain/ride"
	apperrors "github.com/quickcab/ride-hailing/pkg/errors"
	"github.com/quickcab/ride-hailing/pkg/logger"
)

// Principal is the authenticated caller of an operation, resolved by the
// access-control guard before the engine is invoked.
type Principal struct {
	ID   uuid.UUID
	Role account.Role
}

// Engine validates and applies ride transitions
type Engine struct {
	rides    ride.Repository
	accounts account.Repository
	logger   *logger.Logger
}

// NewEngine creates a lifecycle engine
func NewEngine(rides ride.Repository, accounts account.Repository, log *logger.Logger) *Engine {
	return &Engine{
		rides:    rides,
		accounts: accounts,
		logger:   log,
	}
}

// CreateRideInput carries the creation payload
type CreateRideInput struct {
	Pickup ride.Location
	Drop   ride.Location
}

// CreateRide creates a new ride in status requested, owned by the caller.
// A rider may hold at most one ride in {requested, accepted, ongoing}.
func (e *Engine) CreateRide(ctx context.Context, p Principal, in CreateRideInput) (*ride.Ride, error) {
	if !in.Pickup.InRange() || !in.Drop.InRange() {
		return nil, apperrors.ErrInvalidCoordinates
	}

	if _, err := e.rides.ActiveRideForRider(ctx, p.ID); err == nil {
		return nil, apperrors.ErrRiderHasActiveRide
	} else if !errors.Is(err, ride.ErrNotFound) {
		return nil, apperrors.Internal("failed to check active rides", err)
	}

	r := &ride.Ride{
		ID:             uuid.New(),
		RiderID:        p.ID,
		PickupLocation: in.Pickup,
		DropLocation:   in.Drop,
		Status:         ride.StatusRequested,
	}

	if err := e.rides.Create(ctx, r); err != nil {
		return nil, apperrors.Internal("failed to create ride", err)
	}

	e.logger.Info("ride created",
		logger.String("ride_id", r.ID.String()),
		logger.String("rider_id", p.ID.String()),
	)

	return r, nil
}

// AssignDriver populates the driver field of a requested, driverless ride
// and marks the driver unavailable. Status stays requested; acceptance is a
// separate transition by the driver.
//
// The two writes are not a single transaction. The ride write is the record
// of intent; the availability write is a best-effort follow-up whose failure
// is surfaced as a Dependency error without rolling back the first write.
func (e *Engine) AssignDriver(ctx context.Context, p Principal, rideID, driverID uuid.UUID) (*ride.Ride, error) {
	r, err := e.loadRide(ctx, rideID)
	if err != nil {
		return nil, err
	}

	rule, ok := ride.RuleFor(r.Status, ride.EventAssign)
	if !ok {
		return nil, apperrors.InvalidState("Ride is not available for assignment", nil)
	}
	if rule.RequiresNoDriver && r.DriverID != nil {
		return nil, apperrors.ErrDriverAssigned
	}
	if !CanPerform(p, r, ride.EventAssign) {
		return nil, apperrors.Forbidden("You may not assign a driver to this ride", nil)
	}

	drv, err := e.accounts.GetByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, apperrors.ErrDriverNotFound
		}
		return nil, apperrors.Internal("failed to load driver", err)
	}
	if !drv.IsDriver() {
		return nil, apperrors.Forbidden("Target account is not a driver", nil)
	}
	if !drv.IsAvailable {
		return nil, apperrors.ErrDriverNotAvailable
	}

	if err := e.rides.AssignDriver(ctx, rideID, driverID); err != nil {
		switch {
		case errors.Is(err, ride.ErrAlreadyAssigned):
			return nil, apperrors.ErrDriverAssigned
		case errors.Is(err, ride.ErrStatusConflict):
			return nil, apperrors.InvalidState("Ride is not available for assignment", err)
		case errors.Is(err, ride.ErrNotFound):
			return nil, apperrors.ErrRideNotFound
		}
		return nil, apperrors.Internal("failed to assign driver", err)
	}

	r.DriverID = &driverID

	if err := e.accounts.SetAvailability(ctx, driverID, false); err != nil {
		// The ride already records the assignment; report the stale
		// availability flag instead of undoing the first write.
		e.logger.Error("driver availability write failed after assignment",
			logger.String("ride_id", rideID.String()),
			logger.String("driver_id", driverID.String()),
			logger.Err(err),
		)
		return r, apperrors.Dependency("Driver assigned but availability update failed", err)
	}

	e.logger.Info("driver assigned",
		logger.String("ride_id", rideID.String()),
		logger.String("driver_id", driverID.String()),
	)

	return r, nil
}

// AcceptRide moves a requested ride to accepted; assigned driver only
func (e *Engine) AcceptRide(ctx context.Context, p Principal, rideID uuid.UUID) (*ride.Ride, error) {
	return e.applyTransition(ctx, p, rideID, ride.EventAccept)
}

// RejectRide moves a requested ride to rejected and releases the driver;
// assigned driver only. The ride is terminal afterwards; the rider's
// active-ride slot is freed so a new ride may be requested.
func (e *Engine) RejectRide(ctx context.Context, p Principal, rideID uuid.UUID) (*ride.Ride, error) {
	return e.applyTransition(ctx, p, rideID, ride.EventReject)
}

// StartRide moves an accepted ride to ongoing; assigned driver only
func (e *Engine) StartRide(ctx context.Context, p Principal, rideID uuid.UUID) (*ride.Ride, error) {
	return e.applyTransition(ctx, p, rideID, ride.EventStart)
}

// CompleteRide moves an ongoing ride to completed and releases the driver;
// assigned driver only
func (e *Engine) CompleteRide(ctx context.Context, p Principal, rideID uuid.UUID) (*ride.Ride, error) {
	return e.applyTransition(ctx, p, rideID, ride.EventComplete)
}

// CancelRide moves a requested or accepted ride to cancelled; rider only.
// Cancellation from ongoing is an error, not a no-op. An assigned driver,
// if any, is released.
func (e *Engine) CancelRide(ctx context.Context, p Principal, rideID uuid.UUID) (*ride.Ride, error) {
	return e.applyTransition(ctx, p, rideID, ride.EventCancel)
}

// applyTransition runs the shared validate/write/follow-up sequence for
// every status-changing event. Preconditions are evaluated against the
// persisted status read at the start; the status write itself is
// conditional on that same value, so a racing transition loses with an
// InvalidState error rather than overwriting.
func (e *Engine) applyTransition(ctx context.Context, p Principal, rideID uuid.UUID, event ride.Event) (*ride.Ride, error) {
	r, err := e.loadRide(ctx, rideID)
	if err != nil {
		return nil, err
	}

	rule, ok := ride.RuleFor(r.Status, event)
	if !ok {
		return nil, apperrors.InvalidState(invalidStateMessage(event, r.Status), nil)
	}

	if !CanPerform(p, r, event) {
		if rule.Actor == ride.ActorRider {
			return nil, apperrors.ErrNotRideOwner
		}
		return nil, apperrors.ErrNotAssignedDriver
	}

	if err := e.rides.UpdateStatus(ctx, rideID, r.Status, rule.Next); err != nil {
		switch {
		case errors.Is(err, ride.ErrStatusConflict):
			return nil, apperrors.InvalidState(invalidStateMessage(event, r.Status), err)
		case errors.Is(err, ride.ErrNotFound):
			return nil, apperrors.ErrRideNotFound
		}
		return nil, apperrors.Internal("failed to update ride status", err)
	}

	from := r.Status
	r.Status = rule.Next

	e.logger.Info("ride transition applied",
		logger.String("ride_id", rideID.String()),
		logger.String("event", string(event)),
		logger.String("from", string(from)),
		logger.String("to", string(rule.Next)),
	)

	if rule.ReleasesDriver && r.DriverID != nil {
		if err := e.accounts.SetAvailability(ctx, *r.DriverID, true); err != nil {
			e.logger.Error("driver release failed after ride transition",
				logger.String("ride_id", rideID.String()),
				logger.String("driver_id", r.DriverID.String()),
				logger.String("event", string(event)),
				logger.Err(err),
			)
			return r, apperrors.Dependency("Ride updated but driver release failed", err)
		}
	}

	return r, nil
}

// UpdateLocation records the live coordinate on an ongoing ride. Storage
// only; no transition logic is attached to it.
func (e *Engine) UpdateLocation(ctx context.Context, p Principal, rideID uuid.UUID, c ride.Coordinate) (*ride.Ride, error) {
	loc := ride.Location{Lat: c.Lat, Lng: c.Lng}
	if !loc.InRange() {
		return nil, apperrors.ErrInvalidCoordinates
	}

	r, err := e.loadRide(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if r.Status != ride.StatusOngoing {
		return nil, apperrors.InvalidState("Ride is not ongoing", nil)
	}
	if !r.IsAssignedDriver(p.ID) {
		return nil, apperrors.ErrNotAssignedDriver
	}

	if err := e.rides.UpdateCurrentLocation(ctx, rideID, c); err != nil {
		return nil, apperrors.Internal("failed to update ride location", err)
	}

	r.CurrentLocation = &c
	return r, nil
}

// GetRide retrieves a ride with both parties' contact details
func (e *Engine) GetRide(ctx context.Context, rideID uuid.UUID) (*ride.Detail, error) {
	d, err := e.rides.GetDetail(ctx, rideID)
	if err != nil {
		if errors.Is(err, ride.ErrNotFound) {
			return nil, apperrors.ErrRideNotFound
		}
		return nil, apperrors.Internal("failed to load ride", err)
	}
	return d, nil
}

// RiderHistory lists the caller's rides with driver details, newest first
func (e *Engine) RiderHistory(ctx context.Context, p Principal) ([]ride.HistoryEntry, error) {
	entries, err := e.rides.HistoryForRider(ctx, p.ID)
	if err != nil {
		return nil, apperrors.Internal("failed to load ride history", err)
	}
	return entries, nil
}

// DriverHistory lists the caller's driven rides with rider details,
// newest first
func (e *Engine) DriverHistory(ctx context.Context, p Principal) ([]ride.HistoryEntry, error) {
	entries, err := e.rides.HistoryForDriver(ctx, p.ID)
	if err != nil {
		return nil, apperrors.Internal("failed to load ride history", err)
	}
	return entries, nil
}

// ActiveRideForRider returns the caller's ride in {requested, accepted,
// ongoing}; absence is NotFound, not an empty result
func (e *Engine) ActiveRideForRider(ctx context.Context, p Principal) (*ride.Ride, error) {
	r, err := e.rides.ActiveRideForRider(ctx, p.ID)
	if err != nil {
		if errors.Is(err, ride.ErrNotFound) {
			return nil, apperrors.ErrNoActiveRide
		}
		return nil, apperrors.Internal("failed to load active ride", err)
	}
	return r, nil
}

// ActiveRideForDriver returns the caller's ride in {accepted, ongoing};
// absence is NotFound
func (e *Engine) ActiveRideForDriver(ctx context.Context, p Principal) (*ride.Ride, error) {
	r, err := e.rides.ActiveRideForDriver(ctx, p.ID)
	if err != nil {
		if errors.Is(err, ride.ErrNotFound) {
			return nil, apperrors.ErrNoActiveRide
		}
		return nil, apperrors.Internal("failed to load active ride", err)
	}
	return r, nil
}

func (e *Engine) loadRide(ctx context.Context, rideID uuid.UUID) (*ride.Ride, error) {
	r, err := e.rides.GetByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, ride.ErrNotFound) {
			return nil, apperrors.ErrRideNotFound
		}
		return nil, apperrors.Internal("failed to load ride", err)
	}
	return r, nil
}

func invalidStateMessage(event ride.Event, current ride.Status) string {
	switch event {
	case ride.EventAccept, ride.EventReject:
		return "Ride is no longer awaiting a driver decision"
	case ride.EventStart:
		return "Ride has not been accepted yet"
	case ride.EventComplete:
		return "Ride is not ongoing"
	case ride.EventCancel:
		if current == ride.StatusOngoing {
			return "Ride is already ongoing and cannot be cancelled"
		}
		return "Ride is already completed or cancelled"
	}
	return "Transition not permitted from current ride status"
}
