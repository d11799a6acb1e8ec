package jobqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/trendhack/dashboard/app/repository"
	"github.com/trendhack/dashboard/internal/pkg/mediastore"
)

const (
	MirrorSweepInterval = 30 * time.Minute
	MirrorSweepBatch    = 50
)

// Manager owns the queue workers and the periodic tasks that feed them
type Manager struct {
	queue     *Queue
	profiles  repository.ProfileRepository
	mirror    MediaMirror
	scheduler gocron.Scheduler
	mu        sync.Mutex
	running   bool
}

func NewManager(queue *Queue, profiles repository.ProfileRepository, mirror MediaMirror) *Manager {
	return &Manager{queue: queue, profiles: profiles, mirror: mirror}
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the workers and, when mirroring is enabled, the sweep schedule
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	m.queue.Start()

	if m.mirror != nil && m.mirror.Enabled() {
		s, err := gocron.NewScheduler(
			gocron.WithLocation(time.UTC),
			gocron.WithLogger(schedulerLogger{}),
		)
		if err != nil {
			m.queue.Stop()
			return fmt.Errorf("failed to create scheduler: %w", err)
		}
		_, err = s.NewJob(
			gocron.DurationJob(MirrorSweepInterval),
			gocron.NewTask(func() {
				if _, err := m.SweepMirrors(context.Background()); err != nil {
					log.Errorf("[JobQueue Manager] Mirror sweep error: %v", err)
				}
			}),
			gocron.WithName("mirror_sweep"),
		)
		if err != nil {
			m.queue.Stop()
			return fmt.Errorf("failed to schedule mirror sweep: %w", err)
		}
		s.Start()
		m.scheduler = s
	}

	m.running = true
	log.Info("[JobQueue Manager] Started successfully")
	return nil
}

// Stop stops the scheduler first so no new work is enqueued, then the workers
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	if m.scheduler != nil {
		if err := m.scheduler.Shutdown(); err != nil {
			log.Errorf("[JobQueue Manager] Scheduler shutdown error: %v", err)
		}
		m.scheduler = nil
	}
	m.queue.Stop()
	m.running = false
	log.Info("[JobQueue Manager] Stopped successfully")
}

// SweepMirrors enqueues one batch of profiles whose avatar is not mirrored yet.
func (m *Manager) SweepMirrors(ctx context.Context) (int, error) {
	if m.mirror == nil || !m.mirror.Enabled() {
		return 0, nil
	}
	profiles, err := m.profiles.ListUnmirrored(ctx, m.mirror.Prefix(), MirrorSweepBatch)
	if err != nil {
		return 0, err
	}
	queued := 0
	for _, p := range profiles {
		if err := m.queue.EnqueueMirror(ctx, mediastore.KindProfile, p.ID, p.ProfilePicURL); err != nil {
			return queued, err
		}
		queued++
	}
	if queued > 0 {
		log.Infof("[JobQueue Manager] Queued %d avatar mirrors", queued)
	}
	return queued, nil
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
