// Package listing assembles the paginated dashboard views. Each page is
// read fresh; related names are looked up in parallel for the ids on the page.
package listing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/trendhack/dashboard/app/models"
	"github.com/trendhack/dashboard/app/repository"
	"github.com/trendhack/dashboard/internal/pkg/pagination"
	"github.com/trendhack/dashboard/internal/pkg/status"
)

const (
	UnknownPlatform = "Desconhecida"
	UnknownTool     = "Desconhecido"
	UnknownPlan     = "Desconhecido"
	Placeholder     = "/placeholder.svg"
)

// ErrNotFound is returned for rows that do not exist or belong to another user.
var ErrNotFound = errors.New("not found")

type RequestRow struct {
	ID              uint         `json:"id"`
	CreatedAt       time.Time    `json:"created_at"`
	Period          string       `json:"period"`
	ExpectedResults int          `json:"expected_results"`
	Cost            int          `json:"cost"`
	Status          int          `json:"status"`
	Badge           status.Badge `json:"badge"`
	PlatformID      uint         `json:"platform_id"`
	PlatformName    string       `json:"platform_name"`
	PlatformImage   string       `json:"platform_image"`
	ToolID          uint         `json:"tool_id"`
	ToolName        string       `json:"tool_name"`
	ProfileAvatar   string       `json:"profile_avatar"`
	TargetURL       string       `json:"target_url,omitempty"`
}

type VideoRow struct {
	models.Video
	Title         string `json:"title"`
	DurationText  string `json:"duration_text"`
	ProfileName   string `json:"profile_name"`
	ProfileAvatar string `json:"profile_avatar"`
	PlatformName  string `json:"platform_name"`
}

type PaymentRow struct {
	ID        uint      `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Value     int64     `json:"value"`
	Method    string    `json:"method"`
	Gemas     int       `json:"gemas"`
	PlanName  string    `json:"plan_name"`
}

type Service struct {
	repos *repository.Repositories
}

func NewService(repos *repository.Repositories) *Service {
	return &Service{repos: repos}
}

// Requests lists the user's requests newest first.
func (s *Service) Requests(ctx context.Context, userID uint, page int) (pagination.Page[RequestRow], error) {
	rows, total, err := s.repos.Request.ListByUser(ctx, userID, pagination.Offset(page), pagination.PageSize)
	if err != nil {
		return pagination.Page[RequestRow]{}, fmt.Errorf("list requests: %w", err)
	}

	var platformIDs, toolIDs, profileIDs []uint
	for _, r := range rows {
		platformIDs = append(platformIDs, r.PlatformID)
		toolIDs = append(toolIDs, r.ToolID)
		if id := r.FirstProfileID(); id != 0 {
			profileIDs = append(profileIDs, id)
		}
	}

	var (
		platforms map[uint]models.Platform
		tools     map[uint]models.PlatformTool
		profiles  map[uint]models.Profile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		platforms, err = s.repos.Catalog.PlatformsByIDs(gctx, distinct(platformIDs))
		return err
	})
	g.Go(func() (err error) {
		tools, err = s.repos.Catalog.ToolsByIDs(gctx, distinct(toolIDs))
		return err
	})
	g.Go(func() (err error) {
		profiles, err = s.repos.Profile.ByIDs(gctx, distinct(profileIDs))
		return err
	})
	if err := g.Wait(); err != nil {
		return pagination.Page[RequestRow]{}, fmt.Errorf("request lookups: %w", err)
	}

	items := make([]RequestRow, 0, len(rows))
	for _, r := range rows {
		row := RequestRow{
			ID:              r.ID,
			CreatedAt:       r.CreatedAt,
			Period:          r.Period,
			ExpectedResults: r.ExpectedResults,
			Cost:            r.Cost,
			Status:          r.Status,
			Badge:           status.BadgeFor(r.Status),
			PlatformID:      r.PlatformID,
			PlatformName:    UnknownPlatform,
			PlatformImage:   Placeholder,
			ToolID:          r.ToolID,
			ToolName:        UnknownTool,
			ProfileAvatar:   Placeholder,
			TargetURL:       r.TargetURL,
		}
		if p, ok := platforms[r.PlatformID]; ok {
			row.PlatformName = p.Name
			row.PlatformImage = orDefault(p.Image, Placeholder)
		}
		if t, ok := tools[r.ToolID]; ok {
			row.ToolName = t.Name
		}
		if p, ok := profiles[r.FirstProfileID()]; ok {
			row.ProfileAvatar = orDefault(p.ProfilePicURL, Placeholder)
		}
		items = append(items, row)
	}
	return pagination.NewPage(items, page, total), nil
}

// Videos lists the videos of one of the user's requests.
func (s *Service) Videos(ctx context.Context, userID, requestID uint, page int) (pagination.Page[VideoRow], error) {
	if _, err := s.ownedRequest(ctx, userID, requestID); err != nil {
		return pagination.Page[VideoRow]{}, err
	}

	videos, total, err := s.repos.Video.ListByRequest(ctx, requestID, pagination.Offset(page), pagination.PageSize)
	if err != nil {
		return pagination.Page[VideoRow]{}, fmt.Errorf("list videos: %w", err)
	}

	var profileIDs []uint
	var slugs []string
	for _, v := range videos {
		if v.ProfileID != 0 {
			profileIDs = append(profileIDs, v.ProfileID)
		}
		slugs = append(slugs, v.Platform)
	}

	var (
		profiles  map[uint]models.Profile
		platforms map[string]models.Platform
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		profiles, err = s.repos.Profile.ByIDs(gctx, distinct(profileIDs))
		return err
	})
	g.Go(func() (err error) {
		platforms, err = s.repos.Catalog.PlatformsBySlugs(gctx, distinct(slugs))
		return err
	})
	if err := g.Wait(); err != nil {
		return pagination.Page[VideoRow]{}, fmt.Errorf("video lookups: %w", err)
	}

	items := make([]VideoRow, 0, len(videos))
	for _, v := range videos {
		row := VideoRow{
			Video:         v,
			Title:         v.Title(),
			DurationText:  models.FormatDuration(v.Duration),
			ProfileName:   v.Username,
			ProfileAvatar: Placeholder,
			PlatformName:  UnknownPlatform,
		}
		if p, ok := profiles[v.ProfileID]; ok {
			row.ProfileName = p.DisplayName()
			row.ProfileAvatar = orDefault(p.ProfilePicURL, Placeholder)
		}
		if p, ok := platforms[v.Platform]; ok {
			row.PlatformName = p.Name
		}
		items = append(items, row)
	}
	return pagination.NewPage(items, page, total), nil
}

// Payments lists the user's paid payments newest first.
func (s *Service) Payments(ctx context.Context, userID uint, page int) (pagination.Page[PaymentRow], error) {
	payments, total, err := s.repos.Payment.ListPaid(ctx, userID, pagination.Offset(page), pagination.PageSize)
	if err != nil {
		return pagination.Page[PaymentRow]{}, fmt.Errorf("list payments: %w", err)
	}

	planIDs := make([]uint, 0, len(payments))
	for _, p := range payments {
		planIDs = append(planIDs, p.PlanID)
	}
	plans, err := s.repos.Catalog.PlansByIDs(ctx, distinct(planIDs))
	if err != nil {
		return pagination.Page[PaymentRow]{}, fmt.Errorf("plan lookup: %w", err)
	}

	items := make([]PaymentRow, 0, len(payments))
	for _, p := range payments {
		row := PaymentRow{
			ID:        p.ID,
			CreatedAt: p.CreatedAt,
			Value:     p.Value,
			Method:    p.Method,
			Gemas:     p.Gemas,
			PlanName:  UnknownPlan,
		}
		if plan, ok := plans[p.PlanID]; ok {
			row.PlanName = plan.Name
		}
		items = append(items, row)
	}
	return pagination.NewPage(items, page, total), nil
}

func (s *Service) ownedRequest(ctx context.Context, userID, requestID uint) (*models.ExtractionRequest, error) {
	req, err := s.repos.Request.GetForUser(ctx, userID, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load request %d: %w", requestID, err)
	}
	return req, nil
}

func distinct[T comparable](in []T) []T {
	seen := make(map[T]struct{}, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
