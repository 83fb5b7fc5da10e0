package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-pos/odyssey-pos/internal/jobs"
	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

// DefaultIdempotencyRetentionDays bounds how long a checkout retry can replay.
const DefaultIdempotencyRetentionDays = 7

// IdempotencyCleanupJob deletes idempotency keys past the retention window.
type IdempotencyCleanupJob struct {
	Store         *shared.IdempotencyStore
	DB            shared.Querier
	RetentionDays int
	Logger        *slog.Logger
	Metrics       *jobmetrics.Metrics
}

// Handle processes TaskIdempotencyCleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, _ *asynq.Task) (resultErr error) {
	if j == nil || j.Store == nil || j.DB == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track(TaskIdempotencyCleanup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	days := j.RetentionDays
	if days <= 0 {
		days = DefaultIdempotencyRetentionDays
	}
	logger := jobLogger(j.Logger, TaskIdempotencyCleanup)
	removed, err := j.Store.Cleanup(ctx, j.DB, days)
	if err != nil {
		logger.Error("purge idempotency keys", slog.Any("error", err))
		return err
	}
	logger.Info("purged idempotency keys", slog.Int64("removed", removed), slog.Int("retention_days", days))
	return nil
}
