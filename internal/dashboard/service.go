package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/klarity-app/klarity/internal/contracts"
)

const (
	recentLimit    = 5
	renewalsLimit  = 5
	renewalsWindow = 60 * 24 * time.Hour
)

// Reader is the slice of the contract repository the dashboard needs.
type Reader interface {
	Aggregate(ctx context.Context, ownerID string) (contracts.Stats, error)
	CountByCategory(ctx context.Context, ownerID string) (map[string]int, error)
	ListRecent(ctx context.Context, ownerID string, limit int) ([]contracts.Contract, error)
	ListUpcomingRenewals(ctx context.Context, ownerID string, until time.Time, limit int) ([]contracts.Contract, error)
}

// Summary is the composed dashboard payload.
type Summary struct {
	Stats            contracts.Stats      `json:"stats"`
	ByCategory       map[string]int       `json:"byCategory"`
	Recent           []contracts.Contract `json:"recent"`
	UpcomingRenewals []contracts.Contract `json:"upcomingRenewals"`
	GeneratedAt      time.Time            `json:"generatedAt"`
}

// Service builds owner-scoped summaries with caching and collapsed
// concurrent builds.
type Service struct {
	reader Reader
	cache  *Cache
	group  singleflight.Group
}

// NewService constructs a Service. cache may be nil.
func NewService(reader Reader, cache *Cache) *Service {
	return &Service{reader: reader, cache: cache}
}

// Summary returns the owner's dashboard rollups, from cache when fresh.
// Concurrent requests for the same owner share one build.
func (s *Service) Summary(ctx context.Context, ownerID string) (*Summary, error) {
	var cached Summary
	if s.cache.Get(ctx, ownerID, &cached) {
		return &cached, nil
	}

	resultChan := s.group.DoChan(ownerID, func() (any, error) {
		return s.build(ctx, ownerID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Summary), nil
	}
}

func (s *Service) build(ctx context.Context, ownerID string) (*Summary, error) {
	stats, err := s.reader.Aggregate(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	byCategory, err := s.reader.CountByCategory(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	recent, err := s.reader.ListRecent(ctx, ownerID, recentLimit)
	if err != nil {
		return nil, err
	}
	renewals, err := s.reader.ListUpcomingRenewals(ctx, ownerID, time.Now().Add(renewalsWindow), renewalsLimit)
	if err != nil {
		return nil, err
	}

	if recent == nil {
		recent = []contracts.Contract{}
	}
	if renewals == nil {
		renewals = []contracts.Contract{}
	}
	summary := &Summary{
		Stats:            stats,
		ByCategory:       byCategory,
		Recent:           recent,
		UpcomingRenewals: renewals,
		GeneratedAt:      time.Now().UTC(),
	}
	s.cache.Set(ctx, ownerID, summary)
	return summary, nil
}
