package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/jobs"
	"github.com/wondrlab/crosssell-api/internal/repository"
	"github.com/wondrlab/crosssell-api/internal/service"
	"github.com/wondrlab/crosssell-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db            *gorm.DB
	job           *jobs.OverdueJob
	notifications *service.NotificationService
	assignee      *domain.User
	owner         *domain.User
	admin         *domain.User
}

func setup(t *testing.T, withOwner bool) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	f := &fixture{db: db}
	f.admin = testutil.CreateTestUser(t, db, "admin", domain.RoleAdmin)
	f.assignee = testutil.CreateTestUser(t, db, "seller", domain.RoleSales)
	f.owner = testutil.CreateTestUser(t, db, "owner", domain.RoleSales)

	f.notifications = service.NewNotificationService(repository.NewNotificationRepository(db), logger)
	f.job = jobs.NewOverdueJob(repository.NewTaskRepository(db), repository.NewUserRepository(db),
		f.notifications, 3, logger, time.Minute)

	var ownerID *uint
	if withOwner {
		ownerID = &f.owner.ID
	}
	svc := testutil.CreateTestService(t, db, "Backup", "Cloud", domain.ServiceStatusActive)
	client := testutil.CreateTestClient(t, db, "Acme", ownerID)
	opp := testutil.CreateTestOpportunity(t, db, client.ID, svc.ID, f.assignee.ID, domain.OpportunityStatusNew)
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	testutil.CreateTestTask(t, db, opp.ID, f.assignee.ID, due, domain.TaskStatusPending)
	testutil.CreateTestTask(t, db, opp.ID, f.assignee.ID, due, domain.TaskStatusCompleted)
	testutil.CreateTestTask(t, db, opp.ID, f.assignee.ID, due.AddDate(0, 1, 0), domain.TaskStatusPending)
	return f
}

func countOf(t *testing.T, db *gorm.DB, userID uint, notificationType domain.NotificationType) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&domain.Notification{}).
		Where("user_id = ? AND type = ?", userID, notificationType).
		Count(&count).Error)
	return count
}

func day(n int) time.Time {
	return time.Date(2026, 3, n, 7, 0, 0, 0, time.UTC)
}

func TestOverdueJob_OncePerDay(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()

	result, err := f.job.RunAt(ctx, day(3))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Overdue)
	assert.Equal(t, 1, result.Notified)

	result, err = f.job.RunAt(ctx, day(3).Add(5*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Zero(t, result.Notified)

	assert.Equal(t, int64(1), countOf(t, f.db, f.assignee.ID, domain.NotificationTypeTaskOverdue))

	var task domain.Task
	require.NoError(t, f.db.Where("status = ? AND due_date < ?", domain.TaskStatusPending, day(3)).First(&task).Error)
	assert.Equal(t, 1, task.OverdueNoticeCount)
	require.NotNil(t, task.LastOverdueNoticeAt)
}

func TestOverdueJob_EscalatesToAccountOwner(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()

	for d := 2; d <= 5; d++ {
		_, err := f.job.RunAt(ctx, day(d))
		require.NoError(t, err)
	}

	assert.Equal(t, int64(4), countOf(t, f.db, f.assignee.ID, domain.NotificationTypeTaskOverdue))
	assert.Equal(t, int64(1), countOf(t, f.db, f.owner.ID, domain.NotificationTypeTaskOverdueEscalation),
		"escalation is sent once when the threshold is reached")
	assert.Zero(t, countOf(t, f.db, f.admin.ID, domain.NotificationTypeTaskOverdueEscalation))
}

func TestOverdueJob_EscalatesToAdminsWithoutOwner(t *testing.T) {
	f := setup(t, false)
	ctx := context.Background()

	var escalated int
	for d := 2; d <= 4; d++ {
		result, err := f.job.RunAt(ctx, day(d))
		require.NoError(t, err)
		escalated += result.Escalated
	}

	assert.Equal(t, 1, escalated)
	assert.Equal(t, int64(1), countOf(t, f.db, f.admin.ID, domain.NotificationTypeTaskOverdueEscalation))
	assert.Zero(t, countOf(t, f.db, f.owner.ID, domain.NotificationTypeTaskOverdueEscalation))
}

func TestOverdueJob_OwnerIsAssignee(t *testing.T) {
	f := setup(t, false)
	ctx := context.Background()
	require.NoError(t, f.db.Model(&domain.Client{}).Where("name = ?", "Acme").
		Update("account_owner_id", f.assignee.ID).Error)

	for d := 2; d <= 4; d++ {
		_, err := f.job.RunAt(ctx, day(d))
		require.NoError(t, err)
	}

	assert.Zero(t, countOf(t, f.db, f.assignee.ID, domain.NotificationTypeTaskOverdueEscalation))
	assert.Equal(t, int64(1), countOf(t, f.db, f.admin.ID, domain.NotificationTypeTaskOverdueEscalation))
}

func TestCleanupJob_Run(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := testutil.CreateTestUser(t, db, "alice", domain.RoleSales)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), zap.NewNop())

	old, err := notifications.Notify(context.Background(), user.ID, domain.NotificationTypeNewClient, "old", "", "", 0)
	require.NoError(t, err)
	_, err = notifications.Notify(context.Background(), user.ID, domain.NotificationTypeNewClient, "new", "", "", 0)
	require.NoError(t, err)
	require.NoError(t, db.Model(&domain.Notification{}).Where("id = ?", old.ID).
		Update("created_at", time.Now().UTC().AddDate(0, 0, -91)).Error)

	jobs.NewCleanupJob(notifications, 90*24*time.Hour, zap.NewNop(), time.Minute).Run()

	var count int64
	require.NoError(t, db.Model(&domain.Notification{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestScheduler_AddJob(t *testing.T) {
	scheduler := jobs.NewScheduler(zap.NewNop())
	job := jobs.NewCleanupJob(nil, time.Hour, zap.NewNop(), time.Minute)

	require.NoError(t, jobs.RegisterCleanupJob(scheduler, job, "0 30 3 * * *"))
	assert.Error(t, jobs.RegisterCleanupJob(scheduler, job, "0 30 3 * * *"), "duplicate names are rejected")
	assert.Error(t, scheduler.AddJob("broken", "not a cron", func() {}))

	ran := make(chan struct{}, 1)
	require.NoError(t, scheduler.AddJob("tick", "@every 1s", func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	}))
	assert.Equal(t, []string{jobs.CleanupJobName, "tick"}, scheduler.GetJobNames())

	scheduler.Start()
	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled job did not run")
	}
	<-scheduler.Stop().Done()

	require.NoError(t, scheduler.RemoveJob("tick"))
	assert.Error(t, scheduler.RemoveJob("tick"))
}

func TestOverdueJob_CalendarDayFollowsRunLocation(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()
	pacific := time.FixedZone("UTC-8", -8*60*60)

	// 20:00 local is already the next day in UTC
	result, err := f.job.RunAt(ctx, time.Date(2026, 3, 3, 20, 0, 0, 0, pacific))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Notified)

	result, err = f.job.RunAt(ctx, time.Date(2026, 3, 4, 7, 0, 0, 0, pacific))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Notified, "a new local day gets a new reminder")

	result, err = f.job.RunAt(ctx, time.Date(2026, 3, 4, 22, 0, 0, 0, pacific))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)

	assert.Equal(t, int64(2), countOf(t, f.db, f.assignee.ID, domain.NotificationTypeTaskOverdue))
}
