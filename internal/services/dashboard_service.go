// Package services – DashboardService
//
// DashboardService assembles the per-owner overview shown on the landing
// page: totals, weekly volume, per-category counts, and the most recent
// feedback and insights. Overviews are cached per owner for a short TTL and
// dropped whenever the owner's feedback or insights change.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-insight-backend/internal/domain"
	"github.com/tbourn/go-insight-backend/internal/repo"
)

const (
	recentFeedbackLimit = 5
	recentInsightsLimit = 3
	week                = 7 * 24 * time.Hour
)

// Overview is the dashboard payload.
type Overview struct {
	TotalFeedback  int64                     `json:"total_feedback"`
	ThisWeek       int64                     `json:"this_week"`
	Categories     map[domain.Category]int64 `json:"categories"`
	RecentFeedback []domain.Feedback         `json:"recent_feedback"`
	RecentInsights []domain.Insight          `json:"recent_insights"`
}

// DashboardService computes and caches Overviews.
type DashboardService struct {
	DB    *gorm.DB
	cache *cache.Cache

	// gens counts invalidations per owner. An overview built before an
	// invalidation is not cached.
	mu   sync.Mutex
	gens map[string]uint64

	// Now is the clock used for the weekly window; defaults to time.Now.
	Now func() time.Time
}

// NewDashboardService returns a service caching overviews for ttl. A zero
// ttl disables caching.
func NewDashboardService(db *gorm.DB, ttl time.Duration) *DashboardService {
	s := &DashboardService{DB: db, Now: time.Now, gens: map[string]uint64{}}
	if ttl > 0 {
		s.cache = cache.New(ttl, 2*ttl)
	}
	return s
}

// Overview returns the dashboard for userID, from cache when fresh.
func (s *DashboardService) Overview(ctx context.Context, userID string) (*Overview, error) {
	tr := otel.Tracer("services/DashboardService")
	ctx, span := tr.Start(ctx, "Overview",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	if s.cache != nil {
		if v, ok := s.cache.Get(userID); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return v.(*Overview), nil
		}
	}

	gen := s.generation(userID)
	ov, err := s.build(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !s.store(userID, gen, ov) {
		span.SetAttributes(attribute.Bool("cache.stale", true))
	}
	return ov, nil
}

// Invalidate drops the cached overview for userID and fences off any build
// already in flight.
func (s *DashboardService) Invalidate(userID string) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[userID]++
	s.cache.Delete(userID)
}

func (s *DashboardService) generation(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[userID]
}

// store caches ov unless userID was invalidated after gen was read.
func (s *DashboardService) store(userID string, gen uint64, ov *Overview) bool {
	if s.cache == nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[userID] != gen {
		return false
	}
	s.cache.SetDefault(userID, ov)
	return true
}

func (s *DashboardService) build(ctx context.Context, userID string) (*Overview, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	total, err := repo.CountFeedback(ctx, s.DB, userID, repo.FeedbackFilter{})
	if err != nil {
		return nil, err
	}
	thisWeek, err := repo.CountFeedbackSince(ctx, s.DB, userID, now().UTC().Add(-week))
	if err != nil {
		return nil, err
	}
	counts, err := repo.CountFeedbackByCategory(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	recentFb, err := repo.ListRecentFeedback(ctx, s.DB, userID, recentFeedbackLimit)
	if err != nil {
		return nil, err
	}
	recentIn, err := repo.ListRecentInsights(ctx, s.DB, userID, recentInsightsLimit)
	if err != nil {
		return nil, err
	}

	cats := make(map[domain.Category]int64, len(domain.Categories))
	for _, c := range domain.Categories {
		cats[c] = 0
	}
	for _, cc := range counts {
		cats[cc.Category] = cc.Count
	}
	if recentFb == nil {
		recentFb = []domain.Feedback{}
	}
	if recentIn == nil {
		recentIn = []domain.Insight{}
	}

	return &Overview{
		TotalFeedback:  total,
		ThisWeek:       thisWeek,
		Categories:     cats,
		RecentFeedback: recentFb,
		RecentInsights: recentIn,
	}, nil
}
