package server

import (
	"taleboard/models"

	"github.com/gofiber/fiber/v2"
)

// GetComments handles GET /api/tales/:id/comments, oldest-first.
func (s *Server) GetComments(c *fiber.Ctx) error {
	taleID, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	comments, err := s.commentService.ListByTale(c.Context(), taleID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"comments": comments})
}

// CreateComment handles POST /api/tales/:id/comments and returns the stored
// comment with the author's profile, ready to append to the thread.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	taleID, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.Create(c.Context(), userID, taleID, req.Content)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeleteComment handles DELETE /api/tales/:id/comments/:commentId.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	commentID, err := parseIDParam(c, "commentId")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	if err := s.commentService.Delete(c.Context(), userID, commentID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted"})
}
