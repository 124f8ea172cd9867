package server

import (
	"taleboard/models"

	"github.com/gofiber/fiber/v2"
)

// GetSiteStats handles GET /api/stats: the landing page counters, served
// through a short-TTL cache.
func (s *Server) GetSiteStats(c *fiber.Ctx) error {
	stats, err := s.statsService.Site(c.Context())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(stats)
}
