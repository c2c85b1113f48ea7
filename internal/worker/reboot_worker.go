package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/homepanel/api/internal/client"
	"github.com/homepanel/api/internal/model"
	"github.com/sirupsen/logrus"
)

// RebootWorker runs queued reboot requests
type RebootWorker struct {
	launcher client.Launcher
	log      logrus.FieldLogger
}

// NewRebootWorker creates a new reboot worker
func NewRebootWorker(launcher client.Launcher, log logrus.FieldLogger) *RebootWorker {
	return &RebootWorker{
		launcher: launcher,
		log:      log.WithField("component", "reboot-worker"),
	}
}

// ProcessTask handles reboot task processing. Failures are never retried:
// a reboot that fires late is worse than one that does not fire.
func (w *RebootWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.RebootTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal reboot payload: %v: %w", err, asynq.SkipRetry)
	}

	logger := w.log.WithFields(logrus.Fields{
		"requestId":   payload.RequestID,
		"requestedBy": payload.RequestedBy,
		"reason":      payload.Reason,
	})
	logger.Warn("Rebooting host")

	if err := w.launcher.Launch(ctx); err != nil {
		logger.WithError(err).Error("Reboot command failed")
		return fmt.Errorf("reboot command failed: %v: %w", err, asynq.SkipRetry)
	}

	return nil
}
