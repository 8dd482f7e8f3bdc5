// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and authentication requirements.
package routes

import (
	"time"

	"emandate/internal/handlers"
	"emandate/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers bundles everything SetupRoutes mounts.
type Handlers struct {
	Mandate     *handlers.MandateHandler
	Calculation *handlers.CalculationHandler
	Slab        *handlers.SlabHandler
	Health      *handlers.HealthHandler
	Auth        *middleware.AuthMiddleware
	Metrics     prometheus.Gatherer
	// CalcRateLimit is the per-IP request budget per minute on the quote API.
	CalcRateLimit int
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, h Handlers) {
	app.Get("/health", h.Health.Check)
	if h.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(h.Metrics, promhttp.HandlerOpts{})))
	}

	// Browser channel, redirects only
	mandate := app.Group("/mandate")
	mandate.Get("/create", h.Mandate.Create)
	mandate.Post("/create", h.Mandate.Create)
	mandate.Get("/web-hook/:id", h.Mandate.Webhook)

	// External quote API
	limit := h.CalcRateLimit
	if limit <= 0 {
		limit = 60
	}
	v1 := app.Group("/api/v1")
	v1.Get("/mandate/calculate", limiter.New(limiter.Config{
		Max:        limit,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
				"code":  "RATE_LIMITED",
			})
		},
	}), h.Calculation.Calculate)

	// Dashboard slab administration
	access := middleware.RequireMerchantAccess("merchantId")
	merchants := app.Group("/api/merchants", h.Auth.Handler)
	merchants.Get("/:merchantId/slabs", access, h.Slab.List)
	merchants.Post("/:merchantId/slabs", access, h.Slab.Create)
	merchants.Get("/:merchantId/slabs/applicable", access, h.Slab.Applicable)

	slabs := app.Group("/api/slabs", h.Auth.Handler)
	slabs.Patch("/:slabId", h.Slab.Update)
	slabs.Delete("/:slabId", h.Slab.Delete)
}
