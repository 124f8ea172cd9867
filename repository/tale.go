package repository

import (
	"context"
	"errors"
	"strings"

	"taleboard/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListTalesOptions narrows a tale listing. OwnerID and ExcludeOwnerID are
// mutually exclusive in practice: the dashboard feed sets OwnerID, the
// discover feed sets ExcludeOwnerID.
type ListTalesOptions struct {
	OwnerID        uint
	ExcludeOwnerID uint
	Limit          int
	Offset         int
}

// TaleRepository defines the interface for tale and like data operations.
type TaleRepository interface {
	Create(ctx context.Context, tale *models.Tale) error
	GetByID(ctx context.Context, id uint) (*models.Tale, error)
	List(ctx context.Context, opts ListTalesOptions) ([]*models.Tale, error)
	Update(ctx context.Context, tale *models.Tale) error
	// DeleteWithDependents removes the tale's like and comment rows first,
	// then the tale itself, in one transaction.
	DeleteWithDependents(ctx context.Context, id uint) error
	CountAll(ctx context.Context) (int64, error)

	Like(ctx context.Context, userID, taleID uint) error
	Unlike(ctx context.Context, userID, taleID uint) error
	HasLiked(ctx context.Context, userID, taleID uint) (bool, error)
	CountLikes(ctx context.Context, taleID uint) (int, error)
	// LikesForTales batch-fetches all like rows for the given tale set.
	LikesForTales(ctx context.Context, taleIDs []uint) ([]*models.Like, error)
}

type taleRepository struct {
	db *gorm.DB
}

// NewTaleRepository creates a new tale repository.
func NewTaleRepository(db *gorm.DB) TaleRepository {
	return &taleRepository{db: db}
}

func (r *taleRepository) Create(ctx context.Context, tale *models.Tale) error {
	if err := r.db.WithContext(ctx).Create(tale).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *taleRepository) GetByID(ctx context.Context, id uint) (*models.Tale, error) {
	var tale models.Tale
	if err := r.db.WithContext(ctx).Preload("Author").First(&tale, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Tale", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &tale, nil
}

func (r *taleRepository) List(ctx context.Context, opts ListTalesOptions) ([]*models.Tale, error) {
	q := r.db.WithContext(ctx).
		Preload("Author").
		Order("created_at DESC")

	if opts.OwnerID != 0 {
		q = q.Where("user_id = ?", opts.OwnerID)
	}
	if opts.ExcludeOwnerID != 0 {
		q = q.Where("user_id <> ?", opts.ExcludeOwnerID)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	var tales []*models.Tale
	if err := q.Find(&tales).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return tales, nil
}

func (r *taleRepository) Update(ctx context.Context, tale *models.Tale) error {
	if err := r.db.WithContext(ctx).Save(tale).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *taleRepository) DeleteWithDependents(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tale_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tale_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Tale{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *taleRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Tale{}).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// Like inserts the like row. A conflicting insert on (user_id, tale_id) is
// swallowed: liking an already-liked tale is a no-op, not an error.
func (r *taleRepository) Like(ctx context.Context, userID, taleID uint) error {
	like := &models.Like{UserID: userID, TaleID: taleID}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(like).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return nil
		}
		return models.NewInternalError(err)
	}
	return nil
}

// Unlike removes the like row; removing an absent like is a no-op.
func (r *taleRepository) Unlike(ctx context.Context, userID, taleID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND tale_id = ?", userID, taleID).
		Delete(&models.Like{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *taleRepository) HasLiked(ctx context.Context, userID, taleID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND tale_id = ?", userID, taleID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *taleRepository) CountLikes(ctx context.Context, taleID uint) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("tale_id = ?", taleID).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return int(count), nil
}

func (r *taleRepository) LikesForTales(ctx context.Context, taleIDs []uint) ([]*models.Like, error) {
	if len(taleIDs) == 0 {
		return nil, nil
	}
	var likes []*models.Like
	err := r.db.WithContext(ctx).
		Where("tale_id IN ?", taleIDs).
		Find(&likes).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return likes, nil
}

// isUniqueViolation matches driver-level unique constraint errors that GORM
// does not translate for every dialect.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
