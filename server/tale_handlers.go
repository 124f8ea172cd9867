package server

import (
	"strconv"

	"taleboard/internal/service"
	"taleboard/models"

	"github.com/gofiber/fiber/v2"
)

// GetDashboardFeed handles GET /api/dashboard: the viewer's own tales with
// derived counts plus the sidebar totals.
func (s *Server) GetDashboardFeed(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	feed, err := s.feedService.Dashboard(c.Context(), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(feed)
}

// GetDiscoverFeed handles GET /api/tales/discover. Anonymous visitors browse
// too; a signed-in viewer's own tales are excluded.
func (s *Server) GetDiscoverFeed(c *fiber.Ctx) error {
	viewerID, _ := s.optionalUserID(c)

	tales, err := s.feedService.Discover(c.Context(), service.DiscoverQuery{
		ViewerID: viewerID,
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Limit:    c.QueryInt("limit"),
		Offset:   c.QueryInt("offset"),
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"tales": tales})
}

// GetTale handles GET /api/tales/:id.
func (s *Server) GetTale(c *fiber.Ctx) error {
	taleID, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	viewerID, _ := s.optionalUserID(c)

	tale, err := s.feedService.Tale(c.Context(), taleID, viewerID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(tale)
}

// CreateTale handles POST /api/tales.
func (s *Server) CreateTale(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var input service.SaveTaleInput
	if err := c.BodyParser(&input); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	tale, err := s.taleService.Create(c.Context(), userID, input)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tale)
}

// UpdateTale handles PUT /api/tales/:id.
func (s *Server) UpdateTale(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	taleID, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	var input service.SaveTaleInput
	if err := c.BodyParser(&input); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	tale, err := s.taleService.Update(c.Context(), userID, taleID, input)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(tale)
}

// DeleteTale handles DELETE /api/tales/:id.
func (s *Server) DeleteTale(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	taleID, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	if err := s.taleService.Delete(c.Context(), userID, taleID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Tale deleted"})
}

// ToggleLike handles POST /api/tales/:id/like and returns the confirmed
// post-toggle state.
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	taleID, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	state, err := s.taleService.ToggleLike(c.Context(), userID, taleID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(state)
}

func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, models.NewValidationError("Invalid " + name + " parameter")
	}
	return uint(id), nil
}
