package service

import (
	"context"
	"strings"

	"taleboard/models"
	"taleboard/repository"
)

const maxCommentLength = 2000

// CommentService handles comment creation, listing and deletion.
type CommentService struct {
	commentRepo repository.CommentRepository
	taleRepo    repository.TaleRepository
}

// NewCommentService creates a new comment service.
func NewCommentService(commentRepo repository.CommentRepository, taleRepo repository.TaleRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo, taleRepo: taleRepo}
}

// Create adds a comment to a tale. Whitespace-only content is rejected
// before any row is written. Returns the stored comment with the author's
// profile joined, ready to append to the thread.
func (s *CommentService) Create(ctx context.Context, userID, taleID uint, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("Comment content cannot be empty")
	}
	if len(content) > maxCommentLength {
		return nil, models.NewValidationError("Comment content is too long")
	}

	if _, err := s.taleRepo.GetByID(ctx, taleID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		UserID:  userID,
		TaleID:  taleID,
		Content: content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID)
}

// ListByTale returns a tale's comments oldest-first.
func (s *CommentService) ListByTale(ctx context.Context, taleID uint) ([]*models.Comment, error) {
	if _, err := s.taleRepo.GetByID(ctx, taleID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByTale(ctx, taleID)
}

// Delete removes a comment. Only its author may delete it.
func (s *CommentService) Delete(ctx context.Context, userID, commentID uint) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != userID {
		return models.NewForbiddenError("You can only delete your own comments")
	}
	return s.commentRepo.Delete(ctx, commentID)
}
