package jobqueue

import (
	"github.com/go-co-op/gocron/v2"
	"github.com/gofiber/fiber/v2/log"
)

// schedulerLogger routes gocron's structured logs to the fiber logger.
type schedulerLogger struct{}

var _ gocron.Logger = schedulerLogger{}

func (schedulerLogger) Debug(msg string, args ...any) {
	log.Debugw("[Scheduler] "+msg, args...)
}

func (schedulerLogger) Info(msg string, args ...any) {
	log.Infow("[Scheduler] "+msg, args...)
}

func (schedulerLogger) Warn(msg string, args ...any) {
	log.Warnw("[Scheduler] "+msg, args...)
}

func (schedulerLogger) Error(msg string, args ...any) {
	log.Errorw("[Scheduler] "+msg, args...)
}
