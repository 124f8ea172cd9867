// Package service contains the application's domain logic between the HTTP
// handlers and the repositories.
package service

import (
	"context"
	"strings"

	"taleboard/internal/observability"
	"taleboard/models"
	"taleboard/repository"

	"go.opentelemetry.io/otel/attribute"
)

// FeedService assembles tale feeds: it joins author profiles, batch-fetches
// the like and comment rows for the whole tale set, and derives the counts
// the clients render. Counts are never stored; they are recomputed from rows
// on every load.
type FeedService struct {
	taleRepo    repository.TaleRepository
	commentRepo repository.CommentRepository
}

// NewFeedService creates a new feed service.
func NewFeedService(taleRepo repository.TaleRepository, commentRepo repository.CommentRepository) *FeedService {
	return &FeedService{taleRepo: taleRepo, commentRepo: commentRepo}
}

// DashboardFeed is the owner's view: their tales plus the sidebar totals.
type DashboardFeed struct {
	Tales         []*models.Tale `json:"tales"`
	TalesCount    int            `json:"tales_count"`
	LikesReceived int            `json:"likes_received"`
}

// DiscoverQuery narrows the public feed. ViewerID is zero for anonymous
// visitors; a non-zero viewer is excluded from the results (you discover
// other people's journeys, not your own).
type DiscoverQuery struct {
	ViewerID uint
	Search   string
	Category string
	Limit    int
	Offset   int
}

// Dashboard returns the viewer's own tales, newest-first, with derived
// like/comment state and the aggregate totals shown in the sidebar.
func (s *FeedService) Dashboard(ctx context.Context, userID uint) (*DashboardFeed, error) {
	span, ctx := observability.NewSpan(ctx, "feed.dashboard")
	defer span.End()
	span.AddAttributes(attribute.Int64("user.id", int64(userID)))
	observability.FeedLoads.WithLabelValues("dashboard").Inc()

	tales, err := s.taleRepo.List(ctx, repository.ListTalesOptions{OwnerID: userID})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	if err := s.attachInteractions(ctx, tales, userID); err != nil {
		span.SetError(err)
		return nil, err
	}

	likesReceived := 0
	for _, t := range tales {
		likesReceived += t.LikeCount
	}

	return &DashboardFeed{
		Tales:         tales,
		TalesCount:    len(tales),
		LikesReceived: likesReceived,
	}, nil
}

// Discover returns everyone else's tales, newest-first, filtered by the
// search term and category. Search matches the rendered text of the rich
// description and the author name, so it cannot run in SQL: with a filter
// present the full candidate set is fetched, filtered, and then paginated,
// keeping limit/offset windows over the filtered results rather than over
// the raw rows.
func (s *FeedService) Discover(ctx context.Context, q DiscoverQuery) ([]*models.Tale, error) {
	span, ctx := observability.NewSpan(ctx, "feed.discover")
	defer span.End()
	observability.FeedLoads.WithLabelValues("discover").Inc()

	opts := repository.ListTalesOptions{ExcludeOwnerID: q.ViewerID}
	hasFilter := strings.TrimSpace(q.Search) != "" || q.Category != ""
	if !hasFilter {
		opts.Limit = q.Limit
		opts.Offset = q.Offset
	}

	tales, err := s.taleRepo.List(ctx, opts)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	if hasFilter {
		tales = paginate(filterTales(tales, q.Search, q.Category), q.Limit, q.Offset)
	}

	if err := s.attachInteractions(ctx, tales, q.ViewerID); err != nil {
		span.SetError(err)
		return nil, err
	}

	return tales, nil
}

// paginate windows an already-filtered slice with the same limit/offset
// semantics the repository applies in SQL.
func paginate(tales []*models.Tale, limit, offset int) []*models.Tale {
	if offset > 0 {
		if offset >= len(tales) {
			return []*models.Tale{}
		}
		tales = tales[offset:]
	}
	if limit > 0 && limit < len(tales) {
		tales = tales[:limit]
	}
	return tales
}

// Tale returns a single tale with author profile and derived state, as used
// to populate the edit modal and the detail view.
func (s *FeedService) Tale(ctx context.Context, taleID, viewerID uint) (*models.Tale, error) {
	tale, err := s.taleRepo.GetByID(ctx, taleID)
	if err != nil {
		return nil, err
	}
	if err := s.attachInteractions(ctx, []*models.Tale{tale}, viewerID); err != nil {
		return nil, err
	}
	return tale, nil
}

// attachInteractions fills the derived fields on each tale from two batched
// lookups: one over the like rows, one over the comment rows. Never one
// query per card.
func (s *FeedService) attachInteractions(ctx context.Context, tales []*models.Tale, viewerID uint) error {
	if len(tales) == 0 {
		return nil
	}

	taleIDs := make([]uint, len(tales))
	for i, t := range tales {
		taleIDs[i] = t.ID
	}

	likes, err := s.taleRepo.LikesForTales(ctx, taleIDs)
	if err != nil {
		return err
	}
	comments, err := s.commentRepo.ListForTales(ctx, taleIDs)
	if err != nil {
		return err
	}

	likeCounts := make(map[uint]int, len(tales))
	likedByViewer := make(map[uint]bool)
	for _, l := range likes {
		likeCounts[l.TaleID]++
		if viewerID != 0 && l.UserID == viewerID {
			likedByViewer[l.TaleID] = true
		}
	}

	// ListForTales returns oldest-first, so appending preserves the order.
	commentsByTale := make(map[uint][]*models.Comment, len(tales))
	for _, c := range comments {
		commentsByTale[c.TaleID] = append(commentsByTale[c.TaleID], c)
	}

	for _, t := range tales {
		t.LikeCount = likeCounts[t.ID]
		t.Liked = likedByViewer[t.ID]
		t.Comments = commentsByTale[t.ID]
		t.CommentCount = len(t.Comments)
	}
	return nil
}

// filterTales applies the discover page's search and category filters.
// Search matches title, tag list, author name, and the HTML-stripped
// description, case-insensitively.
func filterTales(tales []*models.Tale, search, category string) []*models.Tale {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" && category == "" {
		return tales
	}

	filtered := make([]*models.Tale, 0, len(tales))
	for _, t := range tales {
		if category != "" && t.Category != category {
			continue
		}
		if search != "" && !matchesSearch(t, search) {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered
}

func matchesSearch(t *models.Tale, search string) bool {
	if strings.Contains(strings.ToLower(t.Title), search) {
		return true
	}
	if strings.Contains(strings.ToLower(stripTags(t.Description)), search) {
		return true
	}
	if strings.Contains(strings.ToLower(t.Author.FullName), search) {
		return true
	}
	return strings.Contains(strings.ToLower(t.Tags), search)
}

// stripTags removes HTML markup so searches match the visible text of the
// rich description, not its tags and attributes.
func stripTags(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
			b.WriteByte(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
