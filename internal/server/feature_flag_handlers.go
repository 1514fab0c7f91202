package server

import (
	"social/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags returns the configured flag names and their evaluated state
// for the caller.
// @Summary Evaluated feature flags
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	if s.featureFlags == nil {
		return c.JSON(fiber.Map{
			"flags":     []string{},
			"evaluated": map[string]bool{},
		})
	}

	return c.JSON(fiber.Map{
		"flags":     s.featureFlags.Names(),
		"evaluated": s.featureFlags.Snapshot(middleware.ActorFrom(c)),
	})
}
