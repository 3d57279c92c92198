package ride

import (
	"time"

	"github.com/google/uuid"

	"github.com/quickcab/ride-hailing/internal/domain/account"
)

// Status represents ride status
type Status string

const (
	StatusRequested Status = "requested"
	StatusAccepted  Status = "accepted"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusRejected  Status = "rejected"
)

// IsValid validates the status
func (s Status) IsValid() bool {
	switch s {
	case StatusRequested, StatusAccepted, StatusOngoing,
		StatusCompleted, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves this status
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// RiderActiveStatuses are the statuses that count against the one-active-ride
// invariant for a rider.
var RiderActiveStatuses = []Status{StatusRequested, StatusAccepted, StatusOngoing}

// DriverActiveStatuses are the statuses in which a driver is engaged on a ride.
var DriverActiveStatuses = []Status{StatusAccepted, StatusOngoing}

// Location is a coordinate pair with optional address text
type Location struct {
	Address string  `json:"address,omitempty"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// InRange reports whether the coordinates are valid earth coordinates.
// (0, 0) is treated as absent, matching how the original records stored
// unset coordinates.
func (l Location) InRange() bool {
	if l.Lat == 0 && l.Lng == 0 {
		return false
	}
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}

// Coordinate is a bare coordinate pair, used for live location updates
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Ride represents one transportation request from creation to a terminal
// outcome. RiderID is immutable after creation; DriverID is absent until
// assignment and immutable once the ride is accepted.
type Ride struct {
	ID              uuid.UUID   `json:"id"`
	RiderID         uuid.UUID   `json:"rider"`
	DriverID        *uuid.UUID  `json:"driver,omitempty"`
	PickupLocation  Location    `json:"pickupLocation"`
	DropLocation    Location    `json:"dropLocation"`
	CurrentLocation *Coordinate `json:"currentLocation,omitempty"`
	Distance        *float64    `json:"distance,omitempty"`
	Fare            *float64    `json:"fare,omitempty"`
	Status          Status      `json:"status"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// IsAssignedDriver reports whether id is the ride's assigned driver
func (r *Ride) IsAssignedDriver(id uuid.UUID) bool {
	return r.DriverID != nil && *r.DriverID == id
}

// Party carries the counter-party contact details attached by the history
// and detail projections.
type Party struct {
	Name           string                  `json:"name"`
	Phone          string                  `json:"phone,omitempty"`
	VehicleDetails *account.VehicleDetails `json:"vehicleDetails,omitempty"`
}

// HistoryEntry is a ride joined with its counter-party, sorted newest first
type HistoryEntry struct {
	ID             uuid.UUID `json:"id"`
	PickupLocation Location  `json:"pickupLocation"`
	DropLocation   Location  `json:"dropLocation"`
	Fare           *float64  `json:"fare,omitempty"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	CounterParty   *Party    `json:"counterParty,omitempty"`
}

// Detail is a ride with both parties' contact details attached
type Detail struct {
	Ride
	Rider  *Party `json:"riderDetails,omitempty"`
	Driver *Party `json:"driverDetails,omitempty"`
}
