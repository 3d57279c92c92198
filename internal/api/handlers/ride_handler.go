package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quickcab/ride-hailing/internal/api/dto"
	"github.com/quickcab/ride-hailing/internal/domain/ride"
	"github.com/quickcab/ride-hailing/internal/service/lifecycle"
	apperrors "github.com/quickcab/ride-hailing/pkg/errors"
	"github.com/quickcab/ride-hailing/pkg/logger"
)

// CreateRide handles POST /api/v1/rides
func (h *Handlers) CreateRide(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}

	var req dto.CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	r, err := h.Engine.CreateRide(c.Request.Context(), p, lifecycle.CreateRideInput{
		Pickup: toLocation(req.PickupLocation),
		Drop:   toLocation(req.DropLocation),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.Monitor.RecordRideRequested(r.ID.String(), p.ID.String())

	c.JSON(http.StatusCreated, dto.SuccessResponse{
		Message: "Ride requested successfully",
		Data:    r,
	})
}

// AssignDriver handles POST /api/v1/rides/:rideId/assign/:driverId
func (h *Handlers) AssignDriver(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}

	rideID, ok := pathUUID(c, "rideId")
	if !ok {
		return
	}
	driverID, ok := pathUUID(c, "driverId")
	if !ok {
		return
	}

	r, err := h.Engine.AssignDriver(c.Request.Context(), p, rideID, driverID)
	if err != nil {
		if apperrors.IsDependency(err) {
			// The assignment itself committed; report the stale
			// availability flag alongside the updated ride.
			h.Monitor.RecordAvailabilityLag(rideID.String(), driverID.String())
			h.dependencyResponse(c, err, r)
			return
		}
		h.respondError(c, err)
		return
	}

	h.Monitor.RecordDriverAssigned(rideID.String(), driverID.String())

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Driver assigned successfully",
		Data:    r,
	})
}

// AcceptRide handles POST /api/v1/rides/:rideId/accept
func (h *Handlers) AcceptRide(c *gin.Context) {
	h.transition(c, ride.EventAccept, "Ride accepted successfully", h.Engine.AcceptRide)
}

// RejectRide handles POST /api/v1/rides/:rideId/reject
func (h *Handlers) RejectRide(c *gin.Context) {
	h.transition(c, ride.EventReject, "Ride rejected successfully", h.Engine.RejectRide)
}

// StartRide handles POST /api/v1/rides/:rideId/start
func (h *Handlers) StartRide(c *gin.Context) {
	h.transition(c, ride.EventStart, "Ride started successfully", h.Engine.StartRide)
}

// CompleteRide handles POST /api/v1/rides/:rideId/complete
func (h *Handlers) CompleteRide(c *gin.Context) {
	h.transition(c, ride.EventComplete, "Ride completed successfully", h.Engine.CompleteRide)
}

// CancelRide handles POST /api/v1/rides/:rideId/cancel
func (h *Handlers) CancelRide(c *gin.Context) {
	h.transition(c, ride.EventCancel, "Ride cancelled successfully", h.Engine.CancelRide)
}

// transition runs the shared parse/apply/respond sequence for every
// status-changing endpoint
func (h *Handlers) transition(c *gin.Context, event ride.Event, message string, apply func(ctx context.Context, p lifecycle.Principal, rideID uuid.UUID) (*ride.Ride, error)) {
	p, ok := h.principal(c)
	if !ok {
		return
	}

	rideID, ok := pathUUID(c, "rideId")
	if !ok {
		return
	}

	r, err := apply(c.Request.Context(), p, rideID)
	if err != nil {
		if apperrors.IsDependency(err) {
			if r != nil && r.DriverID != nil {
				h.Monitor.RecordAvailabilityLag(rideID.String(), r.DriverID.String())
			}
			h.dependencyResponse(c, err, r)
			return
		}
		h.respondError(c, err)
		return
	}

	h.Monitor.RecordRideTransition(rideID.String(), string(event), string(r.Status))

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: message,
		Data:    r,
	})
}

// UpdateLocation handles POST /api/v1/rides/:rideId/location
func (h *Handlers) UpdateLocation(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}

	rideID, ok := pathUUID(c, "rideId")
	if !ok {
		return
	}

	var req dto.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	r, err := h.Engine.UpdateLocation(c.Request.Context(), p, rideID, ride.Coordinate{
		Lat: *req.Lat,
		Lng: *req.Lng,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Location updated successfully",
		Data:    r,
	})
}

// GetRide handles GET /api/v1/rides/:rideId
func (h *Handlers) GetRide(c *gin.Context) {
	if _, ok := h.principal(c); !ok {
		return
	}

	rideID, ok := pathUUID(c, "rideId")
	if !ok {
		return
	}

	d, err := h.Engine.GetRide(c.Request.Context(), rideID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Ride retrieved successfully",
		Data:    d,
	})
}

// RiderHistory handles GET /api/v1/rides/user/history
func (h *Handlers) RiderHistory(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}

	entries, err := h.Engine.RiderHistory(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Ride history retrieved successfully",
		Data:    entries,
	})
}

// DriverHistory handles GET /api/v1/rides/driver/history
func (h *Handlers) DriverHistory(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}

	entries, err := h.Engine.DriverHistory(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Ride history retrieved successfully",
		Data:    entries,
	})
}

// RiderActiveRide handles GET /api/v1/rides/user/active
func (h *Handlers) RiderActiveRide(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}

	r, err := h.Engine.ActiveRideForRider(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Active ride retrieved successfully",
		Data:    r,
	})
}

// DriverActiveRide handles GET /api/v1/rides/driver/active
func (h *Handlers) DriverActiveRide(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}

	r, err := h.Engine.ActiveRideForDriver(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Active ride retrieved successfully",
		Data:    r,
	})
}

// dependencyResponse reports a post-commit availability failure with the
// already-updated ride attached so the caller sees the committed state
func (h *Handlers) dependencyResponse(c *gin.Context, err error, r *ride.Ride) {
	appErr := apperrors.GetAppError(err)

	h.Logger.Warn("availability follow-up failed",
		logger.String("path", c.FullPath()),
		logger.Err(err),
	)

	c.JSON(appErr.Status, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
		"data":    r,
	})
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    "INVALID_ARGUMENT",
			Message: "Invalid " + name,
		})
		return uuid.Nil, false
	}
	return id, true
}

func toLocation(p *dto.LocationPayload) ride.Location {
	return ride.Location{
		Address: p.Address,
		Lat:     *p.Lat,
		Lng:     *p.Lng,
	}
}
