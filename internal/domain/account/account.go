package account

import (
	"time"

	"github.com/google/uuid"
)

// Role represents an account role
type Role string

const (
	RoleRider  Role = "rider"
	RoleDriver Role = "driver"
	RoleAdmin  Role = "admin"
)

// IsValid validates the role
func (r Role) IsValid() bool {
	switch r {
	case RoleRider, RoleDriver, RoleAdmin:
		return true
	}
	return false
}

// VehicleDetails describes a driver's vehicle
type VehicleDetails struct {
	VehicleType   string `json:"vehicleType,omitempty"`
	VehicleNumber string `json:"vehicleNumber,omitempty"`
}

// Account represents a rider, driver or admin account.
// IsAvailable is meaningful only for driver accounts: true means the driver
// is eligible for a new assignment. It is false exactly while the driver
// holds a ride in {requested-with-assignment, accepted, ongoing}.
type Account struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	PasswordHash   string          `json:"-"`
	Phone          string          `json:"phone,omitempty"`
	Role           Role            `json:"role"`
	VehicleDetails *VehicleDetails `json:"vehicleDetails,omitempty"`
	IsAvailable    bool            `json:"isAvailable"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// IsDriver reports whether the account can be assigned rides
func (a *Account) IsDriver() bool {
	return a.Role == RoleDriver
}

// IsValid validates the account entity
func (a *Account) IsValid() error {
	if a.Name == "" {
		return ErrInvalidName
	}
	if a.Email == "" {
		return ErrInvalidEmail
	}
	if !a.Role.IsValid() {
		return ErrInvalidRole
	}
	return nil
}
