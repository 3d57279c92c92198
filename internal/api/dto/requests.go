package dto

import "github.com/quickcab/ride-hailing/internal/domain/account"

// LocationPayload is a coordinate pair with optional address text.
// Lat/Lng are pointers so a missing coordinate fails binding instead of
// silently defaulting to zero.
type LocationPayload struct {
	Address string   `json:"address"`
	Lat     *float64 `json:"lat" binding:"required"`
	Lng     *float64 `json:"lng" binding:"required"`
}

// CreateRideRequest represents a request to create a new ride
type CreateRideRequest struct {
	PickupLocation *LocationPayload `json:"pickupLocation" binding:"required"`
	DropLocation   *LocationPayload `json:"dropLocation" binding:"required"`
}

// UpdateLocationRequest represents a live location update on an ongoing ride
type UpdateLocationRequest struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

// RegisterRequest represents an account registration
type RegisterRequest struct {
	Name           string                  `json:"name" binding:"required"`
	Email          string                  `json:"email" binding:"required,email"`
	Password       string                  `json:"password" binding:"required,min=8"`
	Phone          string                  `json:"phone"`
	Role           string                  `json:"role" binding:"omitempty,oneof=rider driver admin"`
	VehicleDetails *account.VehicleDetails `json:"vehicleDetails"`
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest carries a refresh token to rotate
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// ErrorResponse is the error envelope returned by every handler
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SuccessResponse wraps a payload with a human-readable message
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
