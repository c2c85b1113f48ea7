package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/homepanel/api/internal/apperr"
	"github.com/homepanel/api/internal/jobstore"
	"github.com/homepanel/api/internal/model"
	"github.com/sirupsen/logrus"
)

// JobNotifier is told about job updates and failed store writes
type JobNotifier interface {
	BroadcastJobUpdated(jobID, llmModel string, updatedAtMs int64)
	BroadcastError(jobID string, code, message string)
}

// CronService exposes the scheduler's job store to the HTTP layer
type CronService struct {
	store    *jobstore.Store
	notifier JobNotifier
	log      logrus.FieldLogger
}

// NewCronService creates a cron service. notifier may be nil.
func NewCronService(store *jobstore.Store, notifier JobNotifier, log logrus.FieldLogger) *CronService {
	return &CronService{
		store:    store,
		notifier: notifier,
		log:      log.WithField("component", "cron"),
	}
}

// ListJobs returns every job in store order
func (s *CronService) ListJobs(ctx context.Context) (*model.CronJobListResponse, error) {
	summaries, err := s.store.ListJobs(ctx)
	if err != nil {
		s.log.WithError(err).Error("Failed to list jobs")
		return nil, err
	}

	jobs := make([]model.CronJob, 0, len(summaries))
	for _, sum := range summaries {
		jobs = append(jobs, toCronJob(sum))
	}

	return &model.CronJobListResponse{
		Jobs:  jobs,
		Count: len(jobs),
	}, nil
}

// GetJob returns the stored record of one job
func (s *CronService) GetJob(ctx context.Context, jobID string) (json.RawMessage, error) {
	return s.store.GetJob(ctx, jobID)
}

// UpdateJobModel sets the LLM model of a job
func (s *CronService) UpdateJobModel(ctx context.Context, jobID, llmModel string) (*model.UpdateJobModelResponse, error) {
	logger := s.log.WithFields(logrus.Fields{
		"jobId": jobID,
		"model": llmModel,
	})

	summary, err := s.store.UpdateJobModel(ctx, jobID, llmModel)
	if err != nil {
		if errors.Is(err, apperr.ErrStoreUnavailable) {
			logger.WithError(err).Error("Job store write failed")
			if s.notifier != nil {
				s.notifier.BroadcastError(jobID, model.WSErrorCodeStoreUnavailable, apperr.Message(err))
			}
			return nil, err
		}
		logger.WithError(err).Warn("Job model update rejected")
		return nil, err
	}

	logger.WithField("updatedAtMs", summary.UpdatedAtMs).Info("Job model updated")

	if s.notifier != nil {
		s.notifier.BroadcastJobUpdated(summary.ID, summary.Model, summary.UpdatedAtMs)
	}

	return &model.UpdateJobModelResponse{
		Success: true,
		Job:     toCronJob(*summary),
	}, nil
}

func toCronJob(s jobstore.Summary) model.CronJob {
	return model.CronJob{
		ID:          s.ID,
		Kind:        s.Kind,
		Model:       s.Model,
		UpdatedAtMs: s.UpdatedAtMs,
	}
}
