// Package observability provides metrics and tracing for the service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedLoads counts feed assemblies by view (dashboard, discover).
	FeedLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taleboard_feed_loads_total",
		Help: "Total number of feed assemblies by view",
	}, []string{"view"})

	// LikeToggles counts like mutations by action (like, unlike).
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taleboard_like_toggles_total",
		Help: "Total number of like toggle operations by action",
	}, []string{"action"})

	// CoverUploads counts cover image uploads by outcome.
	CoverUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taleboard_cover_uploads_total",
		Help: "Total number of cover image uploads by outcome",
	}, []string{"status"})

	// AuthEvents counts published auth-state events by type.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taleboard_auth_events_total",
		Help: "Total number of auth-state events published",
	}, []string{"event"})
)
