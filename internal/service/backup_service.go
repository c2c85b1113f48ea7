package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/homepanel/api/internal/client"
	"github.com/homepanel/api/internal/jobstore"
	"github.com/homepanel/api/internal/model"
	"github.com/sirupsen/logrus"
)

// ErrBackupNotConfigured is returned when no object store is set up
var ErrBackupNotConfigured = errors.New("backup storage not configured")

// BackupService uploads snapshots of the job store to object storage
type BackupService struct {
	store       *jobstore.Store
	objectStore client.ObjectStore
	log         logrus.FieldLogger
	now         func() time.Time
}

// NewBackupService creates a backup service. objectStore may be nil.
func NewBackupService(store *jobstore.Store, objectStore client.ObjectStore, log logrus.FieldLogger) *BackupService {
	return &BackupService{
		store:       store,
		objectStore: objectStore,
		log:         log.WithField("component", "backup"),
		now:         time.Now,
	}
}

// IsConfigured reports whether backups can be taken
func (s *BackupService) IsConfigured() bool {
	return s.objectStore != nil
}

// Backup uploads the current job document and returns a download URL
func (s *BackupService) Backup(ctx context.Context) (*model.CronBackupResponse, error) {
	if s.objectStore == nil {
		return nil, ErrBackupNotConfigured
	}

	data, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	key := fmt.Sprintf("backups/cron/%s/%s.json", now.Format("2006-01-02"), uuid.New().String())

	url, err := s.objectStore.Put(ctx, key, data, "application/json")
	if err != nil {
		s.log.WithError(err).Error("Job store backup upload failed")
		return nil, fmt.Errorf("failed to upload backup: %w", err)
	}

	if signed, err := s.objectStore.SignedURL(ctx, key, 15*time.Minute); err == nil {
		url = signed
	} else {
		s.log.WithError(err).Warn("Presigning backup URL failed, returning public URL")
	}

	s.log.WithFields(logrus.Fields{"key": key, "size": len(data)}).Info("Job store backed up")

	return &model.CronBackupResponse{
		Key:       key,
		URL:       url,
		Size:      len(data),
		CreatedAt: now.UnixMilli(),
	}, nil
}
