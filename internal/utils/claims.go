package utils

import (
	"errors"

	"emandate/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ClaimsKey is the fiber Locals key holding the verified dashboard claims.
const ClaimsKey = "claims"

// GetDashboardClaims extracts the dashboard claims from the Fiber context.
// It returns an error if the claims are missing or of an invalid type.
func GetDashboardClaims(c *fiber.Ctx) (*models.DashboardClaims, error) {
	v := c.Locals(ClaimsKey)
	if v == nil {
		return nil, errors.New("claims not found in context")
	}

	claims, ok := v.(*models.DashboardClaims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}
	return claims, nil
}
