package service

import (
	"context"
	"testing"
	"time"

	"taleboard/models"
	"taleboard/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedFixture() (*taleRepoStub, *commentRepoStub) {
	taleRepo := noopTaleRepo()
	taleRepo.listFn = func(_ context.Context, opts repository.ListTalesOptions) ([]*models.Tale, error) {
		tales := []*models.Tale{
			{ID: 1, UserID: 1, Title: "Hiking Araku", Category: "Travel", Tags: "hills,trek",
				Author: models.Profile{UserID: 1, FullName: "Asha Rao"}},
			{ID: 2, UserID: 2, Title: "Hackathon week", Category: "College",
				Description: "<p>We built a <b>robot</b></p>",
				Author:      models.Profile{UserID: 2, FullName: "Dev Kumar"}},
			{ID: 3, UserID: 1, Title: "Beach cleanup", Category: "Volunteering",
				Author: models.Profile{UserID: 1, FullName: "Asha Rao"}},
		}
		out := make([]*models.Tale, 0, len(tales))
		for _, t := range tales {
			if opts.OwnerID != 0 && t.UserID != opts.OwnerID {
				continue
			}
			if opts.ExcludeOwnerID != 0 && t.UserID == opts.ExcludeOwnerID {
				continue
			}
			out = append(out, t)
		}
		if opts.Offset > 0 {
			if opts.Offset >= len(out) {
				return nil, nil
			}
			out = out[opts.Offset:]
		}
		if opts.Limit > 0 && opts.Limit < len(out) {
			out = out[:opts.Limit]
		}
		return out, nil
	}
	taleRepo.likesForTalesFn = func(_ context.Context, _ []uint) ([]*models.Like, error) {
		return []*models.Like{
			{UserID: 2, TaleID: 1},
			{UserID: 3, TaleID: 1},
			{UserID: 1, TaleID: 2},
		}, nil
	}

	commentRepo := noopCommentRepo()
	commentRepo.listForTalesFn = func(_ context.Context, _ []uint) ([]*models.Comment, error) {
		base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		return []*models.Comment{
			{ID: 10, TaleID: 1, UserID: 2, Content: "first", CreatedAt: base},
			{ID: 11, TaleID: 1, UserID: 3, Content: "second", CreatedAt: base.Add(time.Hour)},
		}, nil
	}
	return taleRepo, commentRepo
}

func TestFeedService_Dashboard(t *testing.T) {
	t.Parallel()

	taleRepo, commentRepo := feedFixture()
	svc := NewFeedService(taleRepo, commentRepo)

	feed, err := svc.Dashboard(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 2, feed.TalesCount)
	assert.Len(t, feed.Tales, 2)
	// Tale 1 carries two likes, tale 3 none.
	assert.Equal(t, 2, feed.LikesReceived)

	first := feed.Tales[0]
	assert.Equal(t, uint(1), first.ID)
	assert.Equal(t, 2, first.LikeCount)
	assert.False(t, first.Liked, "owner has not liked their own tale")
	assert.Equal(t, 2, first.CommentCount)
	require.Len(t, first.Comments, 2)
	assert.Equal(t, "first", first.Comments[0].Content, "comments stay oldest-first")
}

func TestFeedService_Discover(t *testing.T) {
	t.Parallel()

	t.Run("excludes the viewer's own tales", func(t *testing.T) {
		t.Parallel()
		taleRepo, commentRepo := feedFixture()
		svc := NewFeedService(taleRepo, commentRepo)

		tales, err := svc.Discover(context.Background(), DiscoverQuery{ViewerID: 1})
		require.NoError(t, err)
		require.Len(t, tales, 1)
		assert.Equal(t, uint(2), tales[0].ID)
		assert.True(t, tales[0].Liked, "viewer 1 liked tale 2")
		assert.Equal(t, 1, tales[0].LikeCount)
	})

	t.Run("anonymous viewer sees everything unliked", func(t *testing.T) {
		t.Parallel()
		taleRepo, commentRepo := feedFixture()
		svc := NewFeedService(taleRepo, commentRepo)

		tales, err := svc.Discover(context.Background(), DiscoverQuery{})
		require.NoError(t, err)
		require.Len(t, tales, 3)
		for _, tale := range tales {
			assert.False(t, tale.Liked)
		}
	})

	t.Run("category filter", func(t *testing.T) {
		t.Parallel()
		taleRepo, commentRepo := feedFixture()
		svc := NewFeedService(taleRepo, commentRepo)

		tales, err := svc.Discover(context.Background(), DiscoverQuery{Category: "Travel"})
		require.NoError(t, err)
		require.Len(t, tales, 1)
		assert.Equal(t, "Hiking Araku", tales[0].Title)
	})

	t.Run("search matches stripped description", func(t *testing.T) {
		t.Parallel()
		taleRepo, commentRepo := feedFixture()
		svc := NewFeedService(taleRepo, commentRepo)

		tales, err := svc.Discover(context.Background(), DiscoverQuery{Search: "ROBOT"})
		require.NoError(t, err)
		require.Len(t, tales, 1)
		assert.Equal(t, uint(2), tales[0].ID)
	})

	t.Run("search does not match html tag names", func(t *testing.T) {
		t.Parallel()
		taleRepo, commentRepo := feedFixture()
		svc := NewFeedService(taleRepo, commentRepo)

		tales, err := svc.Discover(context.Background(), DiscoverQuery{Search: "<b>"})
		require.NoError(t, err)
		assert.Empty(t, tales)
	})

	t.Run("filters apply before the limit window", func(t *testing.T) {
		t.Parallel()
		taleRepo, commentRepo := feedFixture()
		svc := NewFeedService(taleRepo, commentRepo)

		// Only the last tale matches; a pre-filter limit of 2 would drop it.
		tales, err := svc.Discover(context.Background(), DiscoverQuery{Search: "cleanup", Limit: 2})
		require.NoError(t, err)
		require.Len(t, tales, 1)
		assert.Equal(t, uint(3), tales[0].ID)
	})

	t.Run("offset pages over the filtered results", func(t *testing.T) {
		t.Parallel()
		taleRepo, commentRepo := feedFixture()
		svc := NewFeedService(taleRepo, commentRepo)

		// "asha" matches tales 1 and 3; page two of size one is tale 3.
		tales, err := svc.Discover(context.Background(), DiscoverQuery{Search: "asha", Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, tales, 1)
		assert.Equal(t, uint(3), tales[0].ID)
	})

	t.Run("unfiltered query pages in the repository", func(t *testing.T) {
		t.Parallel()
		taleRepo, commentRepo := feedFixture()
		svc := NewFeedService(taleRepo, commentRepo)

		tales, err := svc.Discover(context.Background(), DiscoverQuery{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, tales, 2)
	})

	t.Run("search matches author name and tags", func(t *testing.T) {
		t.Parallel()
		taleRepo, commentRepo := feedFixture()
		svc := NewFeedService(taleRepo, commentRepo)

		byAuthor, err := svc.Discover(context.Background(), DiscoverQuery{Search: "asha"})
		require.NoError(t, err)
		assert.Len(t, byAuthor, 2)

		byTag, err := svc.Discover(context.Background(), DiscoverQuery{Search: "trek"})
		require.NoError(t, err)
		require.Len(t, byTag, 1)
		assert.Equal(t, uint(1), byTag[0].ID)
	})
}

func TestStripTags(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "just words", "just words"},
		{"tags removed", "<p>hello <b>world</b></p>", " hello  world  "},
		{"attributes removed", `<img src="x.png" alt="pic"> caption`, "  caption"},
		{"unclosed tag drops the rest", "before <p unclosed", "before  "},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, stripTags(tc.in))
		})
	}
}
