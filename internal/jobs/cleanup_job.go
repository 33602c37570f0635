package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// CleanupJobName is the scheduler name of the notification cleanup job
const CleanupJobName = "notification_cleanup"

// NotificationCleaner deletes notifications past a given age
type NotificationCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// CleanupJob deletes notifications older than the retention window
type CleanupJob struct {
	cleaner   NotificationCleaner
	retention time.Duration
	logger    *zap.Logger
	timeout   time.Duration
}

func NewCleanupJob(cleaner NotificationCleaner, retention time.Duration, logger *zap.Logger, timeout time.Duration) *CleanupJob {
	return &CleanupJob{
		cleaner:   cleaner,
		retention: retention,
		logger:    logger,
		timeout:   timeout,
	}
}

func (j *CleanupJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	deleted, err := j.cleaner.Cleanup(ctx, j.retention)
	if err != nil {
		j.logger.Error("notification cleanup failed", zap.Error(err))
		return
	}
	j.logger.Info("notification cleanup completed",
		zap.Int64("deleted", deleted),
		zap.Duration("retention", j.retention),
	)
}

// RegisterCleanupJob adds the cleanup job to the scheduler
func RegisterCleanupJob(scheduler *Scheduler, job *CleanupJob, cronExpr string) error {
	return scheduler.AddJob(CleanupJobName, cronExpr, job.Run)
}
