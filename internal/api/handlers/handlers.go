package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quickcab/ride-hailing/internal/api/dto"
	"github.com/quickcab/ride-hailing/internal/api/middleware"
	"github.com/quickcab/ride-hailing/internal/service/auth"
	"github.com/quickcab/ride-hailing/internal/service/lifecycle"
	apperrors "github.com/quickcab/ride-hailing/pkg/errors"
	"github.com/quickcab/ride-hailing/pkg/logger"
	"github.com/quickcab/ride-hailing/pkg/monitoring"
)

// Handlers holds all handler dependencies
type Handlers struct {
	Engine  *lifecycle.Engine
	Auth    *auth.Service
	Logger  *logger.Logger
	Monitor *monitoring.NewRelicApp
}

// NewHandlers creates a new Handlers instance
func NewHandlers(engine *lifecycle.Engine, authService *auth.Service, log *logger.Logger, monitor *monitoring.NewRelicApp) *Handlers {
	return &Handlers{
		Engine:  engine,
		Auth:    authService,
		Logger:  log,
		Monitor: monitor,
	}
}

// respondError maps any error to the error envelope with the right HTTP
// status. Non-AppError values surface as 500 without leaking the cause.
func (h *Handlers) respondError(c *gin.Context, err error) {
	appErr := apperrors.GetAppError(err)

	if appErr.Status >= http.StatusInternalServerError {
		h.Logger.Error("request failed",
			logger.String("path", c.FullPath()),
			logger.Err(err),
		)
	}

	c.JSON(appErr.Status, dto.ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
	})
}

// principal pulls the authenticated caller out of the context; requests
// reaching handlers without one indicate a routing mistake, not user error
func (h *Handlers) principal(c *gin.Context) (lifecycle.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Code: "UNAUTHORIZED", Message: "Authorization required",
		})
	}
	return p, ok
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Code:    "INVALID_ARGUMENT",
		Message: "Invalid request payload: " + err.Error(),
	})
}
