package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quickcab/ride-hailing/internal/api/dto"
	"github.com/quickcab/ride-hailing/internal/domain/account"
	"github.com/quickcab/ride-hailing/internal/service/auth"
)

// Register handles POST /api/v1/users/register
func (h *Handlers) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	created, err := h.Auth.Register(c.Request.Context(), auth.RegisterInput{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		Phone:          req.Phone,
		Role:           account.Role(req.Role),
		VehicleDetails: req.VehicleDetails,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.SuccessResponse{
		Message: "Account registered successfully",
		Data:    created,
	})
}

// Login handles POST /api/v1/users/login
func (h *Handlers) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	acct, pair, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Logged in successfully",
		Data: gin.H{
			"account": acct,
			"tokens":  pair,
		},
	})
}

// Logout handles POST /api/v1/users/logout
func (h *Handlers) Logout(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}

	if err := h.Auth.Logout(c.Request.Context(), p.ID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "Logged out successfully"})
}

// RefreshToken handles POST /api/v1/users/refresh-token
func (h *Handlers) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	pair, err := h.Auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Tokens refreshed successfully",
		Data:    pair,
	})
}
