package server

import (
	"io"

	"taleboard/internal/observability"
	"taleboard/models"

	"github.com/gofiber/fiber/v2"
)

// UploadCover handles POST /api/tales/cover: a multipart upload of the cover
// image. Returns the public URL to store on the tale.
func (s *Server) UploadCover(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		observability.CoverUploads.WithLabelValues("rejected").Inc()
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file uploaded"))
	}

	f, err := fileHeader.Open()
	if err != nil {
		observability.CoverUploads.WithLabelValues("failed").Inc()
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	if err != nil {
		observability.CoverUploads.WithLabelValues("failed").Inc()
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	url, err := s.bucket.SaveCover(userID, fileHeader.Filename, content)
	if err != nil {
		if models.IsCode(err, "VALIDATION_ERROR") {
			observability.CoverUploads.WithLabelValues("rejected").Inc()
		} else {
			observability.CoverUploads.WithLabelValues("failed").Inc()
		}
		return models.RespondWithAppError(c, err)
	}

	observability.CoverUploads.WithLabelValues("stored").Inc()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"cover_image_url": url,
		"thumbnail_url":   s.bucket.ThumbnailURL(url),
	})
}
