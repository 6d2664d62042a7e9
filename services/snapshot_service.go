package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/mergington-activities/metrics"
	"github.com/Dosada05/mergington-activities/repositories"
	"github.com/Dosada05/mergington-activities/storage"
	"github.com/google/uuid"
)

const snapshotKeyPrefix = "snapshots/"

// SnapshotService copies the whole roster document to object storage.
type SnapshotService struct {
	repo     repositories.RosterRepository
	uploader storage.FileUploader
	logger   *slog.Logger
	now      func() time.Time
}

func NewSnapshotService(repo repositories.RosterRepository, uploader storage.FileUploader, logger *slog.Logger) *SnapshotService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotService{
		repo:     repo,
		uploader: uploader,
		logger:   logger,
		now:      time.Now,
	}
}

// Snapshot uploads the current roster under snapshots/<UTC timestamp>-<uuid>.json.
func (s *SnapshotService) Snapshot(ctx context.Context) (*storage.UploadResult, error) {
	roster, err := s.repo.Load(ctx)
	if err != nil {
		metrics.RosterSnapshotsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to load roster for snapshot: %w", err)
	}

	data, err := json.MarshalIndent(roster, "", "  ")
	if err != nil {
		metrics.RosterSnapshotsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to encode roster snapshot: %w", err)
	}

	key := snapshotKey(s.now(), uuid.New())
	result, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(append(data, '\n')))
	if err != nil {
		metrics.RosterSnapshotsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to upload roster snapshot: %w", err)
	}

	metrics.RosterSnapshotsTotal.WithLabelValues("success").Inc()
	s.logger.InfoContext(ctx, "roster snapshot uploaded",
		slog.String("key", result.Key),
		slog.Int("activities", len(roster)),
	)
	return result, nil
}

// RunScheduler takes a snapshot right away and then every interval until ctx is done.
// Failures are logged and do not stop the loop.
func (s *SnapshotService) RunScheduler(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	s.logger.Info("roster snapshot scheduler started", slog.Duration("interval", interval))

	if _, err := s.Snapshot(ctx); err != nil {
		s.logger.Error("snapshot scheduler: initial run failed", slog.Any("error", err))
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("roster snapshot scheduler stopped")
			return nil
		case <-ticker.C:
			if _, err := s.Snapshot(ctx); err != nil {
				s.logger.Error("snapshot scheduler: periodic run failed", slog.Any("error", err))
			}
		}
	}
}

func snapshotKey(t time.Time, id uuid.UUID) string {
	return snapshotKeyPrefix + t.UTC().Format("20060102T150405Z") + "-" + id.String() + ".json"
}
