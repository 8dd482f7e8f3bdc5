package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// MandateService is the browser-facing mandate channel. Both operations
// always yield a redirect target.
type MandateService interface {
	Create(ctx context.Context, encReq string) string
	Webhook(ctx context.Context, gatewayID string) string
}

type MandateHandler struct {
	mandates MandateService
}

func NewMandateHandler(mandates MandateService) *MandateHandler {
	return &MandateHandler{mandates: mandates}
}

// Create accepts encReq, or encResponse from older integrations, in the
// query string or a form body.
func (h *MandateHandler) Create(c *fiber.Ctx) error {
	encReq := firstNonEmpty(
		c.Query("encReq"),
		c.FormValue("encReq"),
		c.Query("encResponse"),
		c.FormValue("encResponse"),
	)
	return c.Redirect(h.mandates.Create(c.UserContext(), encReq), fiber.StatusFound)
}

func (h *MandateHandler) Webhook(c *fiber.Ctx) error {
	return c.Redirect(h.mandates.Webhook(c.UserContext(), c.Params("id")), fiber.StatusFound)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
