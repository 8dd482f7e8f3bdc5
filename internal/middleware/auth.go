// Package middleware provides HTTP middleware components for the application.
package middleware

import (
	"strconv"
	"strings"

	"emandate/internal/models"
	"emandate/internal/utils"
	"emandate/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// AuthMiddleware verifies dashboard JWTs. Tokens are issued elsewhere and
// signed with the shared HS256 secret.
type AuthMiddleware struct {
	secret []byte
	log    zerolog.Logger
}

func NewAuthMiddleware(secret string, log zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		secret: []byte(secret),
		log:    log.With().Str("component", "auth").Logger(),
	}
}

// Handler validates the bearer token and stores its claims in the request
// context.
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return response.Unauthorized(c, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return response.Unauthorized(c, "invalid authorization format")
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	claims := &models.DashboardClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		m.log.Debug().Err(err).Str("path", c.Path()).Msg("token rejected")
		return response.Unauthorized(c, "invalid token")
	}
	if claims.Role != models.RoleAdmin && claims.Role != models.RoleMerchant {
		return response.Forbidden(c)
	}

	c.Locals(utils.ClaimsKey, claims)
	return c.Next()
}

// RequireMerchantAccess rejects requests whose claims may not manage the
// merchant named by the route parameter param.
func RequireMerchantAccess(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.GetDashboardClaims(c)
		if err != nil {
			return response.Unauthorized(c, "unauthorized")
		}
		id, err := strconv.ParseUint(c.Params(param), 10, 64)
		if err != nil {
			return response.BadRequest(c, "invalid "+param)
		}
		if !claims.CanManageMerchant(uint(id)) {
			return response.Forbidden(c)
		}
		return c.Next()
	}
}
