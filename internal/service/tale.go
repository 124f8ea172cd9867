package service

import (
	"context"
	"strings"
	"time"

	"taleboard/internal/observability"
	"taleboard/models"
	"taleboard/repository"

	"go.opentelemetry.io/otel/attribute"
)

// TaleService handles tale mutations: create, edit, delete and the like
// toggle. Every mutation returns the authoritative post-mutation state so
// clients render what the database holds rather than an optimistic guess.
type TaleService struct {
	taleRepo repository.TaleRepository
}

// NewTaleService creates a new tale service.
func NewTaleService(taleRepo repository.TaleRepository) *TaleService {
	return &TaleService{taleRepo: taleRepo}
}

// SaveTaleInput carries the raw form values for a create or edit. Date
// fields arrive as strings straight from the form; normalization happens
// here, not in the handler.
type SaveTaleInput struct {
	Category      string `json:"category"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Tags          string `json:"tags"`
	CoverImageURL string `json:"cover_image_url"`
	EventDate     string `json:"event_date"`
	CreatedAt     string `json:"created_at"`
}

// Create validates and persists a new tale for userID. An unparseable or
// empty event date stores as null; an empty created_at defaults to now.
func (s *TaleService) Create(ctx context.Context, userID uint, input SaveTaleInput) (*models.Tale, error) {
	if err := validateTaleInput(input); err != nil {
		return nil, err
	}

	tale := &models.Tale{
		UserID:        userID,
		Category:      strings.TrimSpace(input.Category),
		Title:         strings.TrimSpace(input.Title),
		Description:   input.Description,
		Tags:          strings.TrimSpace(input.Tags),
		CoverImageURL: input.CoverImageURL,
		EventDate:     parseEventDate(input.EventDate),
	}
	if created, ok := parseFlexibleTime(input.CreatedAt); ok {
		tale.CreatedAt = created
	}

	if err := s.taleRepo.Create(ctx, tale); err != nil {
		return nil, err
	}
	return s.taleRepo.GetByID(ctx, tale.ID)
}

// Update edits an existing tale. Only the owner may edit. An empty
// CoverImageURL preserves the stored cover; an empty event date clears it.
// The created timestamp is rewritten only when the submitted value parses,
// so an omitted created_at keeps the stored one.
func (s *TaleService) Update(ctx context.Context, userID, taleID uint, input SaveTaleInput) (*models.Tale, error) {
	if err := validateTaleInput(input); err != nil {
		return nil, err
	}

	tale, err := s.taleRepo.GetByID(ctx, taleID)
	if err != nil {
		return nil, err
	}
	if tale.UserID != userID {
		return nil, models.NewForbiddenError("You can only edit your own tales")
	}

	tale.Category = strings.TrimSpace(input.Category)
	tale.Title = strings.TrimSpace(input.Title)
	tale.Description = input.Description
	tale.Tags = strings.TrimSpace(input.Tags)
	tale.EventDate = parseEventDate(input.EventDate)
	if created, ok := parseFlexibleTime(input.CreatedAt); ok {
		tale.CreatedAt = created
	}
	if input.CoverImageURL != "" {
		tale.CoverImageURL = input.CoverImageURL
	}

	if err := s.taleRepo.Update(ctx, tale); err != nil {
		return nil, err
	}
	return s.taleRepo.GetByID(ctx, tale.ID)
}

// Delete removes a tale and its like and comment rows. Only the owner may
// delete.
func (s *TaleService) Delete(ctx context.Context, userID, taleID uint) error {
	tale, err := s.taleRepo.GetByID(ctx, taleID)
	if err != nil {
		return err
	}
	if tale.UserID != userID {
		return models.NewForbiddenError("You can only delete your own tales")
	}
	return s.taleRepo.DeleteWithDependents(ctx, taleID)
}

// LikeState is the confirmed like state of a tale for one viewer.
type LikeState struct {
	TaleID    uint `json:"tale_id"`
	Liked     bool `json:"user_has_liked"`
	LikeCount int  `json:"like_count"`
}

// ToggleLike flips the viewer's like on a tale and returns the resulting
// state read back from the database. Toggling twice always restores the
// original count; the unique (user_id, tale_id) constraint makes the
// underlying insert idempotent.
func (s *TaleService) ToggleLike(ctx context.Context, userID, taleID uint) (*LikeState, error) {
	span, ctx := observability.NewSpan(ctx, "tale.toggle_like")
	defer span.End()
	span.AddAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("tale.id", int64(taleID)),
	)

	if _, err := s.taleRepo.GetByID(ctx, taleID); err != nil {
		span.SetError(err)
		return nil, err
	}

	liked, err := s.taleRepo.HasLiked(ctx, userID, taleID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	if liked {
		err = s.taleRepo.Unlike(ctx, userID, taleID)
		observability.LikeToggles.WithLabelValues("unlike").Inc()
	} else {
		err = s.taleRepo.Like(ctx, userID, taleID)
		observability.LikeToggles.WithLabelValues("like").Inc()
	}
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	count, err := s.taleRepo.CountLikes(ctx, taleID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	return &LikeState{TaleID: taleID, Liked: !liked, LikeCount: count}, nil
}

func validateTaleInput(input SaveTaleInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return models.NewValidationError("Title is required")
	}
	if strings.TrimSpace(input.Category) == "" {
		return models.NewValidationError("Category is required")
	}
	return nil
}

// parseEventDate maps the form's date value to a nullable column: empty or
// unparseable input stores as null rather than failing the save.
func parseEventDate(raw string) *time.Time {
	if t, ok := parseFlexibleTime(raw); ok {
		return &t
	}
	return nil
}

var taleTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseFlexibleTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range taleTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
