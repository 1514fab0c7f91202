// Package middleware provides authentication and authorization middleware for the application.
package middleware

import (
	"context"
	"strings"

	"social/internal/authz"
	"social/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Authenticator resolves a bearer access token to an actor.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (authz.Actor, error)
}

// AuthRequired enforces a valid bearer access token. On success the actor is
// stored in c.Locals("actor"), its ID in c.Locals("userID") and in the
// request context under UserIDKey.
func AuthRequired(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authentication credentials were not provided."))
		}

		// Extract token from "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid authorization header format"))
		}

		actor, err := auth.Authenticate(c.UserContext(), parts[1])
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}

		c.Locals("userID", actor.ID)
		c.Locals("actor", actor)
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, actor.ID))
		return c.Next()
	}
}

// ActorFrom returns the actor stored by AuthRequired, or the zero actor.
func ActorFrom(c *fiber.Ctx) authz.Actor {
	actor, _ := c.Locals("actor").(authz.Actor)
	return actor
}
