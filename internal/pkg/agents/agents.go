// Package agents drives the per-video AI sub-results. Users may only start
// the simplified and reply agents; the pipeline completes them.
package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/trendhack/dashboard/app/models"
	"github.com/trendhack/dashboard/app/repository"
	"github.com/trendhack/dashboard/internal/pkg/realtime"
)

const (
	MaxPromptLength = 2000
	HistoryLimit    = 8
)

var (
	ErrNotFound          = errors.New("video agent not found")
	ErrInvalidTransition = errors.New("invalid agent transition")
	ErrUnknownField      = errors.New("unknown agent field")
	ErrInvalidPrompt     = fmt.Errorf("prompt must have between 1 and %d characters", MaxPromptLength)
)

type Service struct {
	repos     *repository.Repositories
	publisher realtime.Publisher
}

func NewService(repos *repository.Repositories, publisher realtime.Publisher) *Service {
	return &Service{repos: repos, publisher: publisher}
}

// RequestSimplified starts the simplified strategy agent of a video.
func (s *Service) RequestSimplified(ctx context.Context, userID, videoID uint) (*models.VideoAgent, error) {
	agent, err := s.ownedAgent(ctx, userID, videoID)
	if err != nil {
		return nil, err
	}
	updated, err := s.advance(ctx, agent.ID, models.AgentFieldSimplified, models.AgentStatusProgress, "", nil)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, userID, updated.ID)
	return updated, nil
}

// RequestReply records prompt in the user's history and starts the reply agent with it.
func (s *Service) RequestReply(ctx context.Context, userID, videoID uint, prompt string) (*models.VideoAgent, error) {
	prompt = strings.TrimSpace(prompt)
	if n := utf8.RuneCountInString(prompt); n == 0 || n > MaxPromptLength {
		return nil, ErrInvalidPrompt
	}

	agent, err := s.ownedAgent(ctx, userID, videoID)
	if err != nil {
		return nil, err
	}
	if !agent.Reply.Status.CanAdvanceTo(models.AgentStatusProgress) {
		return nil, ErrInvalidTransition
	}

	if err := s.repos.History.Create(ctx, &models.PromptHistory{UserID: userID, VideoID: videoID, Content: prompt}); err != nil {
		return nil, fmt.Errorf("store prompt history: %w", err)
	}

	updated, err := s.advance(ctx, agent.ID, models.AgentFieldReply, models.AgentStatusProgress, "", func(a *models.VideoAgent) {
		a.Business = prompt
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, userID, updated.ID)
	return updated, nil
}

// Advance applies a pipeline update to one sub-result and notifies the owner
// of the video. Content is stored when the sub-result completes.
func (s *Service) Advance(ctx context.Context, agentID uint, field string, next models.AgentStatus, content string) (*models.VideoAgent, error) {
	updated, err := s.advance(ctx, agentID, field, next, content, nil)
	if err != nil {
		return nil, err
	}

	owner, err := s.ownerOf(ctx, updated.VideoID)
	if err != nil {
		log.Warnf("[Agents] No owner for agent %d: %v", agentID, err)
		return updated, nil
	}
	s.publish(ctx, owner, updated.ID)
	return updated, nil
}

// History returns the user's latest reply prompts.
func (s *Service) History(ctx context.Context, userID uint) ([]models.PromptHistory, error) {
	entries, err := s.repos.History.Latest(ctx, userID, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load prompt history: %w", err)
	}
	if entries == nil {
		entries = []models.PromptHistory{}
	}
	return entries, nil
}

func (s *Service) advance(ctx context.Context, agentID uint, field string, next models.AgentStatus, content string, extra func(*models.VideoAgent)) (*models.VideoAgent, error) {
	updated, err := s.repos.Agent.Mutate(ctx, agentID, func(a *models.VideoAgent) error {
		res := a.Field(field)
		if res == nil {
			return ErrUnknownField
		}
		if !res.Status.CanAdvanceTo(next) {
			return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, field, res.Status, next)
		}
		res.Status = next
		if next == models.AgentStatusComplete {
			res.Content = content
		}
		if extra != nil {
			extra(a)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return updated, nil
}

func (s *Service) ownedAgent(ctx context.Context, userID, videoID uint) (*models.VideoAgent, error) {
	owner, err := s.ownerOf(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if owner != userID {
		return nil, ErrNotFound
	}
	agent, err := s.repos.Agent.GetByVideoID(ctx, videoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load agent of video %d: %w", videoID, err)
	}
	return agent, nil
}

func (s *Service) ownerOf(ctx context.Context, videoID uint) (uint, error) {
	video, err := s.repos.Video.GetByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("load video %d: %w", videoID, err)
	}
	req, err := s.repos.Request.GetByID(ctx, video.RequestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("load request %d: %w", video.RequestID, err)
	}
	return req.UserID, nil
}

func (s *Service) publish(ctx context.Context, userID, agentID uint) {
	evt := realtime.Event{Table: realtime.TableAgents, Action: realtime.ActionUpdate, RowID: agentID}
	if err := s.publisher.Publish(ctx, userID, evt); err != nil {
		log.Warnf("[Agents] Realtime publish for agent %d failed: %v", agentID, err)
	}
}
