// Package submission turns the request form into a paid extraction request.
package submission

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/trendhack/dashboard/app/models"
	"github.com/trendhack/dashboard/app/repository"
	"github.com/trendhack/dashboard/internal/pkg/credits"
	"github.com/trendhack/dashboard/internal/pkg/realtime"
)

// MaxResultCount bounds the expected results of a page request.
const MaxResultCount = 1000

// MetricsRefresher schedules a recompute of a user's dashboard counters.
type MetricsRefresher interface {
	EnqueueRefreshMetrics(ctx context.Context, userID uint) error
}

// Input is the submitted form.
type Input struct {
	PlatformID      uint   `json:"platform_id" validate:"required"`
	ToolID          uint   `json:"tool_id" validate:"required"`
	ProfileIDs      []uint `json:"profile_ids"`
	ExpectedResults string `json:"expected_results" validate:"max=20"`
	PeriodValue     int    `json:"period_value" validate:"gte=0"`
	PeriodUnit      string `json:"period_unit"`
	URL             string `json:"url" validate:"max=2048"`
}

type Service struct {
	catalog   repository.CatalogRepository
	profiles  repository.ProfileRepository
	credits   repository.CreditRepository
	publisher realtime.Publisher
	metrics   MetricsRefresher
}

func NewService(repos *repository.Repositories, publisher realtime.Publisher, metrics MetricsRefresher) *Service {
	return &Service{
		catalog:   repos.Catalog,
		profiles:  repos.Profile,
		credits:   repos.Credit,
		publisher: publisher,
		metrics:   metrics,
	}
}

// Submit validates in, charges the user and stores the request. Validation
// failures are *ValidationError values; a short balance surfaces as
// credits.ErrInsufficientCredits. Neither writes anything.
func (s *Service) Submit(ctx context.Context, userID uint, in Input) (*models.ExtractionRequest, error) {
	platform, tool, err := s.resolveTool(ctx, in.PlatformID, in.ToolID)
	if err != nil {
		return nil, err
	}

	var (
		profileIDs []uint
		usernames  []string
		expected   = 1
		target     string
	)

	switch tool.Type {
	case models.ToolTypeURL:
		target, err = validateURL(in.URL)
		if err != nil {
			return nil, err
		}
	default:
		profileIDs = dedupe(in.ProfileIDs)
		if len(profileIDs) == 0 {
			return nil, ErrNoProfiles
		}
		expected, err = parseResultCount(in.ExpectedResults)
		if err != nil {
			return nil, err
		}
		usernames, err = s.usernames(ctx, profileIDs)
		if err != nil {
			return nil, err
		}
	}

	cost, err := credits.EstimateCost(tool.Type, len(profileIDs), expected, tool.Price, target)
	if err != nil {
		log.Warnf("[Submission] User %d rejected: %v", userID, err)
		return nil, ErrCostOutOfRange
	}

	req := &models.ExtractionRequest{
		UserID:          userID,
		PlatformID:      platform.ID,
		ToolID:          tool.ID,
		ProfileIDs:      models.IDList(profileIDs),
		Configuration:   BuildConfiguration(platform.Slug, tool.Type, usernames, expected, target),
		Period:          Period(in.PeriodValue, in.PeriodUnit),
		ExpectedResults: expected,
		TargetURL:       target,
		Cost:            cost,
		Status:          models.RequestStatusSearching,
	}
	if err := s.credits.SpendForRequest(ctx, req); err != nil {
		if errors.Is(err, credits.ErrInsufficientCredits) {
			return nil, err
		}
		return nil, fmt.Errorf("store extraction request: %w", err)
	}

	log.Infof("[Submission] User %d created request %d (tool %d, cost %d)", userID, req.ID, tool.ID, req.Cost)

	if err := s.publisher.Publish(ctx, userID, realtime.Event{Table: realtime.TableRequests, Action: realtime.ActionInsert, RowID: req.ID}); err != nil {
		log.Warnf("[Submission] Realtime publish for request %d failed: %v", req.ID, err)
	}
	if err := s.metrics.EnqueueRefreshMetrics(ctx, userID); err != nil {
		log.Warnf("[Submission] Metrics refresh for user %d not queued: %v", userID, err)
	}
	return req, nil
}

// SearchProfile registers a profile for later selection. Searching the same
// username twice returns the same row.
func (s *Service) SearchProfile(ctx context.Context, platformID uint, username string) (*models.Profile, error) {
	name := models.NormalizeUsername(username)
	if name == "" {
		return nil, ErrEmptyUsername
	}
	platform, err := s.catalog.GetPlatform(ctx, platformID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownPlatform
		}
		return nil, err
	}
	if !platform.Visible {
		return nil, ErrUnknownPlatform
	}
	return s.profiles.FindOrCreate(ctx, &models.Profile{
		Username:   name,
		Platform:   platform.Slug,
		PlatformID: platform.ID,
	})
}

func (s *Service) resolveTool(ctx context.Context, platformID, toolID uint) (*models.Platform, *models.PlatformTool, error) {
	platform, err := s.catalog.GetPlatform(ctx, platformID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUnknownPlatform
		}
		return nil, nil, err
	}
	if !platform.Visible {
		return nil, nil, ErrUnknownPlatform
	}

	tool, err := s.catalog.GetTool(ctx, toolID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUnknownTool
		}
		return nil, nil, err
	}
	if !tool.Visible || tool.PlatformID != platform.ID {
		return nil, nil, ErrUnknownTool
	}
	return platform, tool, nil
}

func (s *Service) usernames(ctx context.Context, ids []uint) ([]string, error) {
	found, err := s.profiles.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		p, ok := found[id]
		if !ok {
			return nil, ErrUnknownProfile
		}
		out = append(out, p.Username)
	}
	return out, nil
}

func validateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidURL
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", ErrInvalidURL
	}
	return raw, nil
}

func parseResultCount(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 || n > MaxResultCount {
		return 0, ErrInvalidResultCount
	}
	return n, nil
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
