// Package jobstore reads and mutates the scheduler's JSON job document.
//
// Every operation performs a fresh read of the whole document. Mutations run
// load, validate, locate, guard, mutate, stamp and write while holding the
// writer lock for the store, and the write replaces the file atomically.
package jobstore

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/homepanel/api/internal/apperr"
	"github.com/homepanel/api/internal/clock"
)

const (
	// CodeModelPrefix marks model identifiers reserved for code jobs.
	CodeModelPrefix = "code/"

	// KindSystemEvent is the payload kind of scheduler system events.
	KindSystemEvent = "systemEvent"
)

// Summary is the interpreted view of one job.
type Summary struct {
	ID          string `json:"id"`
	Kind        string `json:"kind,omitempty"`
	Model       string `json:"model,omitempty"`
	UpdatedAtMs int64  `json:"updatedAtMs,omitempty"`
}

// Store applies guarded updates to a job document.
type Store struct {
	repo  Repository
	clock clock.Clock
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for updatedAtMs.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// NewStore creates a store over repo.
func NewStore(repo Repository, opts ...Option) *Store {
	s := &Store{
		repo:  repo,
		clock: clock.Real{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repository returns the underlying repository.
func (s *Store) Repository() Repository {
	return s.repo
}

// UpdateJobModel sets payload.model of the job with id jobID and stamps its
// updatedAtMs. The document is written only if every check passes.
func (s *Store) UpdateJobModel(ctx context.Context, jobID, model string) (*Summary, error) {
	const op = "jobstore.UpdateJobModel"

	if jobID == "" || model == "" {
		return nil, apperr.New(apperr.KindInvalidArgument, op, "job id and model are required")
	}
	if strings.HasPrefix(model, CodeModelPrefix) {
		return nil, apperr.New(apperr.KindInvalidArgument, op, "code jobs cannot set LLM model")
	}

	release, err := acquire(ctx, s.repo.Key())
	if err != nil {
		return nil, apperr.Wrap(apperr.KindConflict, op, "job store is busy", err)
	}
	defer release()

	doc, err := s.repo.Load(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStoreUnavailable, op, "failed to load job store", err)
	}

	job, ok := doc.Find(jobID)
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, op, "job not found")
	}
	if _, err := job.Payload(); err != nil {
		return nil, apperr.Wrap(apperr.KindStoreUnavailable, op, "job payload is malformed", err)
	}
	if job.Kind() == KindSystemEvent {
		return nil, apperr.New(apperr.KindInvalidArgument, op, "system event jobs do not use LLM models")
	}

	stamp := s.clock.Now().UnixMilli()
	if prev := job.UpdatedAtMs(); stamp <= prev {
		stamp = prev + 1
	}
	if err := job.setModel(model, stamp); err != nil {
		return nil, apperr.Wrap(apperr.KindStoreUnavailable, op, "failed to update job", err)
	}

	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, apperr.Wrap(apperr.KindStoreUnavailable, op, "failed to write job store", err)
	}

	return summarize(job), nil
}

// ListJobs returns a summary of every job in document order.
func (s *Store) ListJobs(ctx context.Context) ([]Summary, error) {
	doc, err := s.repo.Load(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStoreUnavailable, "jobstore.ListJobs", "failed to load job store", err)
	}

	out := make([]Summary, 0, len(doc.Jobs))
	for _, job := range doc.Jobs {
		out = append(out, *summarize(job))
	}
	return out, nil
}

// GetJob returns the raw JSON record of one job.
func (s *Store) GetJob(ctx context.Context, jobID string) (json.RawMessage, error) {
	const op = "jobstore.GetJob"

	if jobID == "" {
		return nil, apperr.New(apperr.KindInvalidArgument, op, "job id is required")
	}

	doc, err := s.repo.Load(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStoreUnavailable, op, "failed to load job store", err)
	}

	job, ok := doc.Find(jobID)
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, op, "job not found")
	}
	return job.Raw()
}

// Snapshot returns the encoded document as currently stored. It holds the
// writer lock so the snapshot never interleaves with an update.
func (s *Store) Snapshot(ctx context.Context) ([]byte, error) {
	const op = "jobstore.Snapshot"

	release, err := acquire(ctx, s.repo.Key())
	if err != nil {
		return nil, apperr.Wrap(apperr.KindConflict, op, "job store is busy", err)
	}
	defer release()

	doc, err := s.repo.Load(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStoreUnavailable, op, "failed to load job store", err)
	}
	data, err := doc.Marshal()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStoreUnavailable, op, "failed to encode job store", err)
	}
	return data, nil
}

func summarize(job *Job) *Summary {
	return &Summary{
		ID:          job.ID,
		Kind:        job.Kind(),
		Model:       job.Model(),
		UpdatedAtMs: job.UpdatedAtMs(),
	}
}
