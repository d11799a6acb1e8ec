// Package statistics computes the dashboard cards of a user.
package statistics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/sync/errgroup"

	"github.com/trendhack/dashboard/app/repository"
	"github.com/trendhack/dashboard/internal/pkg/cache"
	"github.com/trendhack/dashboard/internal/pkg/status"
)

const (
	CacheKeyUserMetrics = "metrics:user:%d"
	CacheExpiration     = 5 * time.Minute
)

// UserMetrics are the four dashboard counters
type UserMetrics struct {
	GemasAvailable  int   `json:"gemas_available"`
	GemasSpent      int   `json:"gemas_spent"`
	RequestComplete int64 `json:"request_complete"`
	RequestPending  int64 `json:"request_pending"`
}

// Cache is the subset of *cache.Cache the service needs
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

type Service struct {
	credits  repository.CreditRepository
	requests repository.RequestRepository
	cache    Cache
}

func NewService(credits repository.CreditRepository, requests repository.RequestRepository, c Cache) *Service {
	return &Service{credits: credits, requests: requests, cache: c}
}

func cacheKey(userID uint) string {
	return fmt.Sprintf(CacheKeyUserMetrics, userID)
}

// UserMetrics serves the cached counters, computing them on a miss. Cache
// failures are logged and fall through to the database.
func (s *Service) UserMetrics(ctx context.Context, userID uint) (*UserMetrics, error) {
	var cached UserMetrics
	err := s.cache.GetJSON(ctx, cacheKey(userID), &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		log.Warnf("[Statistics] Cache read for user %d failed: %v", userID, err)
	}
	return s.Refresh(ctx, userID)
}

// Refresh recomputes and stores the counters of userID.
func (s *Service) Refresh(ctx context.Context, userID uint) (*UserMetrics, error) {
	m, err := s.Compute(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, cacheKey(userID), m, CacheExpiration); err != nil {
		log.Warnf("[Statistics] Cache write for user %d failed: %v", userID, err)
	}
	return m, nil
}

// Compute reads the counters straight from the database
func (s *Service) Compute(ctx context.Context, userID uint) (*UserMetrics, error) {
	var (
		m      UserMetrics
		counts map[int]int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.credits.Balance(gctx, userID)
		m.GemasAvailable = v
		return err
	})
	g.Go(func() error {
		v, err := s.credits.Spent(gctx, userID)
		m.GemasSpent = v
		return err
	})
	g.Go(func() error {
		v, err := s.requests.CountByStatus(gctx, userID)
		counts = v
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("compute metrics for user %d: %w", userID, err)
	}

	for code, n := range counts {
		st := status.FromCode(code)
		switch {
		case st == status.Complete:
			m.RequestComplete += n
		case st.Pending():
			m.RequestPending += n
		}
	}
	return &m, nil
}
