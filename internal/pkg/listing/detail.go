package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/trendhack/dashboard/app/models"
	"github.com/trendhack/dashboard/app/repository"
	"github.com/trendhack/dashboard/internal/pkg/status"
)

type RequestDetail struct {
	Request         *models.ExtractionRequest `json:"request"`
	Badge           status.Badge              `json:"badge"`
	ProfileName     string                    `json:"profile_name"`
	Totals          repository.VideoTotals    `json:"totals"`
	AvgDurationText string                    `json:"avg_duration_text"`
}

type ProfileCard struct {
	ID             uint   `json:"id,omitempty"`
	Username       string `json:"username"`
	FullName       string `json:"full_name"`
	Avatar         string `json:"avatar"`
	FollowersCount int64  `json:"followers_count"`
	FollowsCount   int64  `json:"follows_count"`
}

type TechnicalInfo struct {
	Dimensions  string `json:"dimensions"`
	IsSponsored bool   `json:"is_sponsored"`
	ContentType string `json:"content_type"`
}

type VideoStats struct {
	Views        int64  `json:"views"`
	Likes        int64  `json:"likes"`
	Comments     int64  `json:"comments"`
	DurationText string `json:"duration_text"`
}

type VideoDetail struct {
	Video        *models.Video      `json:"video"`
	Title        string             `json:"title"`
	VideoURL     string             `json:"video_url"`
	Profile      ProfileCard        `json:"profile"`
	PlatformName string             `json:"platform_name"`
	Technical    TechnicalInfo      `json:"technical"`
	Stats        VideoStats         `json:"stats"`
	Agent        *models.VideoAgent `json:"agent"`
}

// Request returns one of the user's requests with aggregates over all its videos.
func (s *Service) Request(ctx context.Context, userID, requestID uint) (*RequestDetail, error) {
	req, err := s.ownedRequest(ctx, userID, requestID)
	if err != nil {
		return nil, err
	}

	var (
		totals  *repository.VideoTotals
		profile *models.Profile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		totals, err = s.repos.Video.Totals(gctx, req.ID)
		return err
	})
	if id := req.FirstProfileID(); id != 0 {
		g.Go(func() error {
			p, err := s.repos.Profile.GetByID(gctx, id)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			profile = p
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("request %d detail: %w", req.ID, err)
	}

	d := &RequestDetail{
		Request:         req,
		Badge:           status.BadgeFor(req.Status),
		Totals:          *totals,
		AvgDurationText: models.FormatDuration(totals.AvgDuration),
	}
	if profile != nil {
		d.ProfileName = profile.DisplayName()
	}
	return d, nil
}

// Video returns one video of the user's requests with its profile, platform
// and agent state.
func (s *Service) Video(ctx context.Context, userID, videoID uint) (*VideoDetail, error) {
	video, err := s.repos.Video.GetByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load video %d: %w", videoID, err)
	}
	if _, err := s.ownedRequest(ctx, userID, video.RequestID); err != nil {
		return nil, err
	}

	var (
		profile *models.Profile
		agent   *models.VideoAgent
	)
	g, gctx := errgroup.WithContext(ctx)
	if video.ProfileID != 0 {
		g.Go(func() error {
			p, err := s.repos.Profile.GetByID(gctx, video.ProfileID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			profile = p
			return err
		})
	}
	g.Go(func() error {
		a, err := s.repos.Agent.GetByVideoID(gctx, video.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			agent = models.NewVideoAgent(video.ID)
			return nil
		}
		agent = a
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("video %d detail: %w", video.ID, err)
	}

	platformName, err := s.platformName(ctx, profile, video.Platform)
	if err != nil {
		return nil, err
	}

	return &VideoDetail{
		Video:        video,
		Title:        video.Title(),
		VideoURL:     video.PrimaryVideoURL(),
		Profile:      profileCard(profile, video.Username),
		PlatformName: platformName,
		Technical: TechnicalInfo{
			Dimensions:  video.Dimensions(),
			IsSponsored: video.IsSponsored,
			ContentType: video.Type,
		},
		Stats: VideoStats{
			Views:        video.ViewsCount,
			Likes:        video.LikesCount,
			Comments:     video.CommentsCount,
			DurationText: models.FormatDuration(video.Duration),
		},
		Agent: agent,
	}, nil
}

// platformName resolves by the profile's platform, then by the video's slug,
// and finally falls back to the raw slug.
func (s *Service) platformName(ctx context.Context, profile *models.Profile, slug string) (string, error) {
	if profile != nil && profile.PlatformID != 0 {
		p, err := s.repos.Catalog.GetPlatform(ctx, profile.PlatformID)
		if err == nil {
			return p.Name, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("load platform %d: %w", profile.PlatformID, err)
		}
	}
	if slug == "" {
		return UnknownPlatform, nil
	}
	bySlug, err := s.repos.Catalog.PlatformsBySlugs(ctx, []string{slug})
	if err != nil {
		return "", fmt.Errorf("load platform %q: %w", slug, err)
	}
	if p, ok := bySlug[slug]; ok {
		return p.Name, nil
	}
	return slug, nil
}

func profileCard(p *models.Profile, fallbackUsername string) ProfileCard {
	card := ProfileCard{
		Username: handle(fallbackUsername),
		FullName: fallbackUsername,
		Avatar:   Placeholder,
	}
	if p == nil {
		return card
	}
	card.ID = p.ID
	if p.Username != "" {
		card.Username = handle(p.Username)
	}
	card.FullName = p.DisplayName()
	card.Avatar = orDefault(p.ProfilePicURL, Placeholder)
	card.FollowersCount = p.FollowersCount
	card.FollowsCount = p.FollowsCount
	return card
}

func handle(username string) string {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return ""
	}
	return "@" + username
}
