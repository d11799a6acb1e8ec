package jobqueue

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/trendhack/dashboard/app/repository"
	"github.com/trendhack/dashboard/internal/pkg/mediastore"
	"github.com/trendhack/dashboard/internal/pkg/statistics"
)

// MetricsRefresher recomputes and caches a user's dashboard counters.
type MetricsRefresher interface {
	Refresh(ctx context.Context, userID uint) (*statistics.UserMetrics, error)
}

// MediaMirror is the part of *mediastore.Mirror the jobs use.
type MediaMirror interface {
	Enabled() bool
	Prefix() string
	IsMirrored(url string) bool
	Copy(ctx context.Context, kind string, id uint, src string) (string, error)
}

// Processors holds the dependencies of every job handler.
type Processors struct {
	Metrics  MetricsRefresher
	Mirror   MediaMirror
	Profiles repository.ProfileRepository
	Videos   repository.VideoRepository
}

// RegisterAll binds every job type to its handler on q.
func (p *Processors) RegisterAll(q *Queue) {
	q.Register(JobTypeRefreshMetrics, p.processRefreshMetricsJob)
	q.Register(JobTypeMirrorMedia, p.processMirrorMediaJob)
}

func (p *Processors) processRefreshMetricsJob(ctx context.Context, job *Job) error {
	payload, err := RefreshMetricsJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid refresh_metrics payload: %w", err)
	}
	if payload.UserID == 0 {
		return fmt.Errorf("refresh_metrics payload without user_id")
	}
	if _, err := p.Metrics.Refresh(ctx, payload.UserID); err != nil {
		return err
	}
	return nil
}

func (p *Processors) processMirrorMediaJob(ctx context.Context, job *Job) error {
	payload, err := MirrorMediaJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid mirror_media payload: %w", err)
	}
	if p.Mirror == nil || !p.Mirror.Enabled() {
		log.Debugf("[JobQueue] Mirroring disabled, skipping %s %d", payload.Kind, payload.RowID)
		return nil
	}
	if payload.SourceURL == "" || p.Mirror.IsMirrored(payload.SourceURL) {
		return nil
	}

	mirrored, err := p.Mirror.Copy(ctx, payload.Kind, payload.RowID, payload.SourceURL)
	if err != nil {
		return err
	}

	switch payload.Kind {
	case mediastore.KindProfile:
		_, err = p.Profiles.Update(ctx, payload.RowID, map[string]interface{}{"profile_pic_url": mirrored})
	case mediastore.KindVideo:
		err = p.Videos.UpdateThumbnail(ctx, payload.RowID, mirrored)
	default:
		return fmt.Errorf("unknown media kind %q", payload.Kind)
	}
	if err != nil {
		return fmt.Errorf("store mirrored url for %s %d: %w", payload.Kind, payload.RowID, err)
	}
	log.Infof("[JobQueue] Mirrored %s %d", payload.Kind, payload.RowID)
	return nil
}
