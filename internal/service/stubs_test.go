package service

import (
	"context"
	"testing"

	"taleboard/models"
	"taleboard/repository"

	"github.com/stretchr/testify/require"
)

// taleRepoStub is a stub for repository.TaleRepository.
type taleRepoStub struct {
	createFn        func(context.Context, *models.Tale) error
	getByIDFn       func(context.Context, uint) (*models.Tale, error)
	listFn          func(context.Context, repository.ListTalesOptions) ([]*models.Tale, error)
	updateFn        func(context.Context, *models.Tale) error
	deleteFn        func(context.Context, uint) error
	countAllFn      func(context.Context) (int64, error)
	likeFn          func(context.Context, uint, uint) error
	unlikeFn        func(context.Context, uint, uint) error
	hasLikedFn      func(context.Context, uint, uint) (bool, error)
	countLikesFn    func(context.Context, uint) (int, error)
	likesForTalesFn func(context.Context, []uint) ([]*models.Like, error)
}

func (s *taleRepoStub) Create(ctx context.Context, tale *models.Tale) error {
	return s.createFn(ctx, tale)
}
func (s *taleRepoStub) GetByID(ctx context.Context, id uint) (*models.Tale, error) {
	return s.getByIDFn(ctx, id)
}
func (s *taleRepoStub) List(ctx context.Context, opts repository.ListTalesOptions) ([]*models.Tale, error) {
	return s.listFn(ctx, opts)
}
func (s *taleRepoStub) Update(ctx context.Context, tale *models.Tale) error {
	return s.updateFn(ctx, tale)
}
func (s *taleRepoStub) DeleteWithDependents(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *taleRepoStub) CountAll(ctx context.Context) (int64, error) {
	return s.countAllFn(ctx)
}
func (s *taleRepoStub) Like(ctx context.Context, userID, taleID uint) error {
	return s.likeFn(ctx, userID, taleID)
}
func (s *taleRepoStub) Unlike(ctx context.Context, userID, taleID uint) error {
	return s.unlikeFn(ctx, userID, taleID)
}
func (s *taleRepoStub) HasLiked(ctx context.Context, userID, taleID uint) (bool, error) {
	return s.hasLikedFn(ctx, userID, taleID)
}
func (s *taleRepoStub) CountLikes(ctx context.Context, taleID uint) (int, error) {
	return s.countLikesFn(ctx, taleID)
}
func (s *taleRepoStub) LikesForTales(ctx context.Context, taleIDs []uint) ([]*models.Like, error) {
	return s.likesForTalesFn(ctx, taleIDs)
}

func noopTaleRepo() *taleRepoStub {
	return &taleRepoStub{
		createFn:  func(_ context.Context, _ *models.Tale) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Tale, error) { return &models.Tale{ID: id}, nil },
		listFn: func(_ context.Context, _ repository.ListTalesOptions) ([]*models.Tale, error) {
			return nil, nil
		},
		updateFn:     func(_ context.Context, _ *models.Tale) error { return nil },
		deleteFn:     func(_ context.Context, _ uint) error { return nil },
		countAllFn:   func(_ context.Context) (int64, error) { return 0, nil },
		likeFn:       func(_ context.Context, _, _ uint) error { return nil },
		unlikeFn:     func(_ context.Context, _, _ uint) error { return nil },
		hasLikedFn:   func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		countLikesFn: func(_ context.Context, _ uint) (int, error) { return 0, nil },
		likesForTalesFn: func(_ context.Context, _ []uint) ([]*models.Like, error) {
			return nil, nil
		},
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn       func(context.Context, *models.Comment) error
	getByIDFn      func(context.Context, uint) (*models.Comment, error)
	listByTaleFn   func(context.Context, uint) ([]*models.Comment, error)
	listForTalesFn func(context.Context, []uint) ([]*models.Comment, error)
	deleteFn       func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByTale(ctx context.Context, taleID uint) ([]*models.Comment, error) {
	return s.listByTaleFn(ctx, taleID)
}
func (s *commentRepoStub) ListForTales(ctx context.Context, taleIDs []uint) ([]*models.Comment, error) {
	return s.listForTalesFn(ctx, taleIDs)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id}, nil
		},
		listByTaleFn: func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
		listForTalesFn: func(_ context.Context, _ []uint) ([]*models.Comment, error) {
			return nil, nil
		},
		deleteFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// profileRepoStub is a stub for repository.ProfileRepository.
type profileRepoStub struct {
	getByUserIDFn func(context.Context, uint) (*models.Profile, error)
	upsertFn      func(context.Context, *models.Profile) error
	countAllFn    func(context.Context) (int64, error)
}

func (s *profileRepoStub) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	return s.getByUserIDFn(ctx, userID)
}
func (s *profileRepoStub) Upsert(ctx context.Context, profile *models.Profile) error {
	return s.upsertFn(ctx, profile)
}
func (s *profileRepoStub) CountAll(ctx context.Context) (int64, error) {
	return s.countAllFn(ctx)
}

func noopProfileRepo() *profileRepoStub {
	return &profileRepoStub{
		getByUserIDFn: func(_ context.Context, _ uint) (*models.Profile, error) { return nil, nil },
		upsertFn:      func(_ context.Context, _ *models.Profile) error { return nil },
		countAllFn:    func(_ context.Context) (int64, error) { return 0, nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn    func(context.Context, uint) (*models.User, error)
	getByEmailFn func(context.Context, string) (*models.User, error)
	createFn     func(context.Context, *models.User) error
	updateFn     func(context.Context, *models.User) error
	countAllFn   func(context.Context) (int64, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) CountAll(ctx context.Context) (int64, error) {
	return s.countAllFn(ctx)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Email: "student@gitam.edu"}, nil
		},
		getByEmailFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:     func(_ context.Context, _ *models.User) error { return nil },
		updateFn:     func(_ context.Context, _ *models.User) error { return nil },
		countAllFn:   func(_ context.Context) (int64, error) { return 0, nil },
	}
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	require.True(t, models.IsCode(err, "VALIDATION_ERROR"), "expected validation error, got %v", err)
}

func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	require.True(t, models.IsCode(err, "FORBIDDEN"), "expected forbidden error, got %v", err)
}
