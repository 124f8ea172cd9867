package server

import (
	"taleboard/internal/service"
	"taleboard/models"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/profile. A user who has never saved their
// settings gets defaults derived from their email.
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	view, err := s.profileService.Get(c.Context(), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(view)
}

// UpdateMyProfile handles PUT /api/profile, creating the row on first save.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var input service.SaveProfileInput
	if err := c.BodyParser(&input); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	view, err := s.profileService.Save(c.Context(), userID, input)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(view)
}
