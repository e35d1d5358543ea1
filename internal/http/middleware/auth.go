package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"supplierportal/internal/model"
)

// ActorLocalKey is where Auth stores the authenticated model.Actor.
const ActorLocalKey = "actor"

// TokenVerifier turns a bearer token into the actor it names.
type TokenVerifier interface {
	ActorFromToken(token string) (model.Actor, error)
}

// Auth requires a valid "Authorization: Bearer <jwt>" header. Failures are
// returned as fiber 401 errors for the global error handler to render.
func Auth(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}
		actor, err := v.ActorFromToken(strings.TrimSpace(token))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}
		c.Locals(ActorLocalKey, actor)
		return c.Next()
	}
}

// ActorFrom returns the actor stored by Auth.
func ActorFrom(c *fiber.Ctx) (model.Actor, bool) {
	actor, ok := c.Locals(ActorLocalKey).(model.Actor)
	return actor, ok
}
