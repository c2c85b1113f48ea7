package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/homepanel/api/internal/client"
	"github.com/homepanel/api/internal/model"
	"github.com/sirupsen/logrus"
)

const (
	TaskTypeReboot = "system:reboot"

	// QueueSystem holds host-level tasks
	QueueSystem = "system"
)

// ErrRebootNotConfigured is returned when no reboot command is set
var ErrRebootNotConfigured = errors.New("reboot command not configured")

// TaskEnqueuer is the subset of *asynq.Client used to schedule tasks
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// SystemService schedules host reboots. With a task queue the reboot runs in
// the worker after the delay; without one it is launched in-process.
type SystemService struct {
	enqueuer TaskEnqueuer
	launcher client.Launcher
	delay    time.Duration
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewSystemService creates a system service. enqueuer may be nil.
func NewSystemService(enqueuer TaskEnqueuer, launcher client.Launcher, delay time.Duration, log logrus.FieldLogger) *SystemService {
	return &SystemService{
		enqueuer: enqueuer,
		launcher: launcher,
		delay:    delay,
		log:      log.WithField("component", "system"),
		now:      time.Now,
	}
}

// Reboot schedules a host reboot and returns immediately
func (s *SystemService) Reboot(ctx context.Context, req *model.RebootRequest, requestedBy string) (*model.RebootResponse, error) {
	// The worker runs the same launcher, so a queued reboot needs it too.
	if s.launcher == nil || !s.launcher.IsConfigured() {
		return nil, ErrRebootNotConfigured
	}

	delay := s.delay
	if req != nil && req.DelaySeconds != nil {
		delay = time.Duration(*req.DelaySeconds) * time.Second
	}

	payload := model.RebootTaskPayload{
		RequestID:   uuid.New().String(),
		RequestedBy: requestedBy,
	}
	if req != nil {
		payload.Reason = req.Reason
	}

	logger := s.log.WithFields(logrus.Fields{
		"requestId":   payload.RequestID,
		"requestedBy": requestedBy,
		"delay":       delay.String(),
	})

	resp := &model.RebootResponse{
		RequestID:   payload.RequestID,
		Status:      "scheduled",
		ScheduledAt: s.now().Add(delay),
	}

	if s.enqueuer != nil {
		task, err := newRebootTask(&payload)
		if err != nil {
			return nil, fmt.Errorf("failed to create task: %w", err)
		}

		_, err = s.enqueuer.EnqueueContext(ctx, task,
			asynq.Queue(QueueSystem),
			asynq.ProcessIn(delay),
			asynq.MaxRetry(0),
			asynq.TaskID(payload.RequestID),
			asynq.Retention(time.Hour),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to enqueue task: %w", err)
		}

		logger.Warn("Reboot queued")
		resp.Mode = model.RebootModeQueued
		return resp, nil
	}

	time.AfterFunc(delay, func() {
		if err := s.launcher.Launch(context.Background()); err != nil {
			logger.WithError(err).Error("Reboot command failed")
		}
	})

	logger.Warn("Reboot scheduled in-process")
	resp.Mode = model.RebootModeDirect
	return resp, nil
}

func newRebootTask(payload *model.RebootTaskPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeReboot, data), nil
}
