package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wondrlab/crosssell-api/internal/domain"
	"go.uber.org/zap"
)

// OverdueJobName is the scheduler name of the overdue task job
const OverdueJobName = "task_overdue"

// TaskStore is the task persistence the overdue job needs
type TaskStore interface {
	ListOverdue(ctx context.Context, today time.Time) ([]domain.Task, error)
	RecordOverdueNotice(ctx context.Context, id uint, count int, at time.Time) error
}

// UserDirectory finds escalation recipients
type UserDirectory interface {
	ListByRole(ctx context.Context, role domain.UserRole) ([]domain.User, error)
}

// Notifier delivers in-app notifications
type Notifier interface {
	Notify(ctx context.Context, userID uint, notificationType domain.NotificationType,
		title, message, relatedTo string, relatedID uint) (*domain.NotificationDTO, error)
	NotifyAll(ctx context.Context, userIDs []uint, notificationType domain.NotificationType,
		title, message, relatedTo string, relatedID uint) int
}

// OverdueResult counts what one run did
type OverdueResult struct {
	Overdue   int
	Notified  int
	Skipped   int
	Escalated int
	Failed    int
}

// OverdueJob reminds assignees of overdue tasks once per day. When a task has
// been reminded threshold times its supervisor is told as well.
type OverdueJob struct {
	tasks     TaskStore
	users     UserDirectory
	notifier  Notifier
	threshold int
	logger    *zap.Logger
	timeout   time.Duration
}

func NewOverdueJob(tasks TaskStore, users UserDirectory, notifier Notifier, threshold int, logger *zap.Logger, timeout time.Duration) *OverdueJob {
	if threshold < 1 {
		threshold = 1
	}
	return &OverdueJob{
		tasks:     tasks,
		users:     users,
		notifier:  notifier,
		threshold: threshold,
		logger:    logger,
		timeout:   timeout,
	}
}

// Run is the cron entry point
func (j *OverdueJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	result, err := j.RunAt(ctx, time.Now())
	if err != nil {
		j.logger.Error("overdue task job failed", zap.Error(err))
		return
	}
	j.logger.Info("overdue task job completed",
		zap.Int("overdue", result.Overdue),
		zap.Int("notified", result.Notified),
		zap.Int("skipped", result.Skipped),
		zap.Int("escalated", result.Escalated),
		zap.Int("failed", result.Failed),
	)
}

// RunAt processes every task overdue as of now. A task already reminded on
// now's calendar day is skipped, so repeated runs on one day are harmless.
// Calendar days are taken in now's location.
func (j *OverdueJob) RunAt(ctx context.Context, now time.Time) (*OverdueResult, error) {
	today := domain.DateOnly(now)
	tasks, err := j.tasks.ListOverdue(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue tasks: %w", err)
	}

	result := &OverdueResult{Overdue: len(tasks)}
	for i := range tasks {
		task := &tasks[i]
		if task.LastOverdueNoticeAt != nil && !domain.DateOnly(task.LastOverdueNoticeAt.In(now.Location())).Before(today) {
			result.Skipped++
			continue
		}

		days := int(today.Sub(domain.DateOnly(task.DueDate)).Hours() / 24)
		_, err := j.notifier.Notify(ctx, task.AssignedUserID,
			domain.NotificationTypeTaskOverdue,
			"Task overdue",
			fmt.Sprintf("Task '%s' is %d day(s) overdue", task.Name, days),
			domain.RelatedTask, task.ID,
		)
		if err != nil {
			j.logger.Warn("failed to send overdue notification",
				zap.Uint("taskID", task.ID),
				zap.Error(err),
			)
			result.Failed++
			continue
		}

		count := task.OverdueNoticeCount + 1
		if err := j.tasks.RecordOverdueNotice(ctx, task.ID, count, now.UTC()); err != nil {
			j.logger.Warn("failed to record overdue notice",
				zap.Uint("taskID", task.ID),
				zap.Error(err),
			)
			result.Failed++
			continue
		}
		result.Notified++

		if count == j.threshold {
			if j.escalate(ctx, task, days) > 0 {
				result.Escalated++
			}
		}
	}
	return result, nil
}

// escalate notifies the client's account owner, or every admin when the
// assignee is the owner or the client has none. Returns the number of recipients.
func (j *OverdueJob) escalate(ctx context.Context, task *domain.Task, days int) int {
	var recipients []uint
	if task.Opportunity != nil && task.Opportunity.Client != nil {
		owner := task.Opportunity.Client.AccountOwnerID
		if owner != nil && *owner != task.AssignedUserID {
			recipients = []uint{*owner}
		}
	}
	if len(recipients) == 0 {
		admins, err := j.users.ListByRole(ctx, domain.RoleAdmin)
		if err != nil {
			j.logger.Warn("failed to list admins for escalation",
				zap.Uint("taskID", task.ID),
				zap.Error(err),
			)
			return 0
		}
		for _, admin := range admins {
			recipients = append(recipients, admin.ID)
		}
	}

	assignee := fmt.Sprintf("user %d", task.AssignedUserID)
	if task.AssignedUser != nil {
		assignee = task.AssignedUser.Username
	}
	sent := j.notifier.NotifyAll(ctx, recipients,
		domain.NotificationTypeTaskOverdueEscalation,
		"Overdue task escalated",
		fmt.Sprintf("Task '%s' assigned to %s is %d day(s) overdue after %d reminders", task.Name, assignee, days, j.threshold),
		domain.RelatedTask, task.ID,
	)
	j.logger.Info("overdue task escalated",
		zap.Uint("taskID", task.ID),
		zap.Int("recipients", sent),
	)
	return sent
}

// RegisterOverdueJob adds the overdue job to the scheduler
func RegisterOverdueJob(scheduler *Scheduler, job *OverdueJob, cronExpr string) error {
	return scheduler.AddJob(OverdueJobName, cronExpr, job.Run)
}
