package service

import (
	"context"
	"time"

	"taleboard/cache"
	"taleboard/repository"

	"github.com/redis/go-redis/v9"
)

const (
	statsCacheKey = "stats:site"
	statsCacheTTL = 60 * time.Second
)

// SiteStats is the public landing-page counter block.
type SiteStats struct {
	Storytellers int64 `json:"storytellers"`
	TalesShared  int64 `json:"tales_shared"`
}

// StatsService serves the site-wide counts through a short-TTL cache so the
// landing page never fans out to COUNT queries on every hit.
type StatsService struct {
	profileRepo repository.ProfileRepository
	taleRepo    repository.TaleRepository
	rdb         *redis.Client
}

// NewStatsService creates a new stats service. rdb may be nil, in which case
// every read goes to the database.
func NewStatsService(profileRepo repository.ProfileRepository, taleRepo repository.TaleRepository, rdb *redis.Client) *StatsService {
	return &StatsService{profileRepo: profileRepo, taleRepo: taleRepo, rdb: rdb}
}

// Site returns the storyteller and tale counts, cached for a minute.
func (s *StatsService) Site(ctx context.Context) (*SiteStats, error) {
	var stats SiteStats
	err := cache.CacheAside(ctx, s.rdb, statsCacheKey, &stats, statsCacheTTL, func() error {
		profiles, err := s.profileRepo.CountAll(ctx)
		if err != nil {
			return err
		}
		tales, err := s.taleRepo.CountAll(ctx)
		if err != nil {
			return err
		}
		stats = SiteStats{Storytellers: profiles, TalesShared: tales}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
