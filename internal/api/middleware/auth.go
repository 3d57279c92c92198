package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quickcab/ride-hailing/internal/api/dto"
	"github.com/quickcab/ride-hailing/internal/domain/account"
	"github.com/quickcab/ride-hailing/internal/service/auth"
	"github.com/quickcab/ride-hailing/internal/service/lifecycle"
)

const principalKey = "principal"

// TokenParser validates an access token and returns its claims
type TokenParser interface {
	ParseAccessToken(token string) (*auth.Claims, error)
}

// Auth resolves the authenticated principal from a Bearer access token and
// stores it in the request context. Requests without a valid token are
// rejected with 401.
func Auth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Code: "UNAUTHORIZED", Message: "Authorization required",
			})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Code: "UNAUTHORIZED", Message: "Invalid authorization header format",
			})
			return
		}

		claims, err := parser.ParseAccessToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Code: "UNAUTHORIZED", Message: "Invalid or expired token",
			})
			return
		}

		c.Set(principalKey, lifecycle.Principal{
			ID:   claims.AccountID,
			Role: claims.Role,
		})

		c.Next()
	}
}

// GetPrincipal returns the authenticated principal set by Auth
func GetPrincipal(c *gin.Context) (lifecycle.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return lifecycle.Principal{}, false
	}
	p, ok := v.(lifecycle.Principal)
	return p, ok
}

// RequireRole rejects principals whose role is not in the allowed set
func RequireRole(roles ...account.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Code: "UNAUTHORIZED", Message: "Authorization required",
			})
			return
		}

		for _, role := range roles {
			if p.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{
			Code: "FORBIDDEN", Message: "Insufficient role for this operation",
		})
	}
}

// PrincipalID is a convenience for handlers that only need the caller id
func PrincipalID(c *gin.Context) (uuid.UUID, bool) {
	p, ok := GetPrincipal(c)
	return p.ID, ok
}
