package middleware

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	jwtpkg "github.com/safarbet/safarbet/internal/pkg/jwt"
	"github.com/safarbet/safarbet/internal/pkg/models"
	"github.com/safarbet/safarbet/internal/utils"
)

// JWTAuthMiddleware creates a middleware for JWT authentication.
// On success the caller's user_id (uuid) and user_role are set on the
// echo context for ownership checks downstream.
func JWTAuthMiddleware(config models.JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return utils.UnauthorizedResponse(c, "Authorization header is required")
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return utils.UnauthorizedResponse(c, "Invalid authorization format")
			}

			claims, err := jwtpkg.ValidateToken(parts[1], config.Secret)
			if err != nil {
				return utils.UnauthorizedResponse(c, "Invalid token")
			}

			userIDStr, ok := (*claims)["user_id"]
			if !ok {
				return utils.UnauthorizedResponse(c, "Invalid token: missing user_id claim")
			}

			role, ok := (*claims)["role"]
			if !ok {
				return utils.UnauthorizedResponse(c, "Invalid token: missing role claim")
			}

			userID, err := uuid.Parse(fmt.Sprintf("%v", userIDStr))
			if err != nil {
				return utils.UnauthorizedResponse(c, "Invalid token: user_id is not a valid UUID")
			}

			c.Set("user_id", userID)
			c.Set("user_role", role)

			return next(c)
		}
	}
}

// UserID extracts the authenticated caller's ID from the echo context
func UserID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get("user_id").(uuid.UUID)
	return id, ok
}

// IsAdmin reports whether the authenticated caller has the admin role
func IsAdmin(c echo.Context) bool {
	role, _ := c.Get("user_role").(string)
	return role == "admin"
}
