package handlers

import (
	"github.com/labstack/echo/v4"
	"github.com/otabek42/blogium/backend/internal/models"
)

// getUserIDFromContext extracts the authenticated user's ID from the JWT
// claims stored by the auth middleware. Returns 0 when unauthenticated.
func getUserIDFromContext(c echo.Context) uint {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return 0
	}
	return claims.UserID
}
