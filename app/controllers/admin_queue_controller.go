package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/trendhack/dashboard/internal/pkg/jobqueue"
)

// QueueMonitor reads the job queue counters.
type QueueMonitor interface {
	GetJobStats(ctx context.Context) (map[jobqueue.JobStatus]int64, error)
	GetQueueSize(ctx context.Context) (int64, error)
	GetProcessingSize(ctx context.Context) (int64, error)
}

// MirrorSweeper queues mirrors for media not yet copied to our bucket.
type MirrorSweeper interface {
	SweepMirrors(ctx context.Context) (int, error)
}

// AdminQueueController exposes the background job queue to admins.
type AdminQueueController struct {
	queue   QueueMonitor
	sweeper MirrorSweeper
}

func NewAdminQueueController(queue QueueMonitor, sweeper MirrorSweeper) *AdminQueueController {
	return &AdminQueueController{queue: queue, sweeper: sweeper}
}

// HandleQueueStats returns the job counters and the current queue depth.
func (aqc *AdminQueueController) HandleQueueStats(c *fiber.Ctx) error {
	ctx := c.UserContext()

	stats, err := aqc.queue.GetJobStats(ctx)
	if err != nil {
		return internalError(c, "AdminQueue", err)
	}
	pending, err := aqc.queue.GetQueueSize(ctx)
	if err != nil {
		return internalError(c, "AdminQueue", err)
	}
	processing, err := aqc.queue.GetProcessingSize(ctx)
	if err != nil {
		return internalError(c, "AdminQueue", err)
	}

	return c.JSON(fiber.Map{
		"stats":      stats,
		"pending":    pending,
		"processing": processing,
	})
}

// HandleMirrorSweep runs the media mirror sweep right away.
func (aqc *AdminQueueController) HandleMirrorSweep(c *fiber.Ctx) error {
	queued, err := aqc.sweeper.SweepMirrors(c.UserContext())
	if err != nil {
		return internalError(c, "AdminQueue", err)
	}
	log.Infof("[AdminQueue] Manual mirror sweep queued %d jobs", queued)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"queued": queued})
}
