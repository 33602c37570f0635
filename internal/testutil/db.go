package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wondrlab/crosssell-api/internal/database"
	"github.com/wondrlab/crosssell-api/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Int64

func next() int64 {
	return seq.Add(1)
}

// SetupTestDB opens a fresh in-memory SQLite database with every table migrated.
// The pool is limited to one connection so all queries see the same memory database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err, "failed to open sqlite database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(database.Models()...))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// CreateTestUser creates a user with the given role
func CreateTestUser(t *testing.T, db *gorm.DB, username string, role domain.UserRole) *domain.User {
	t.Helper()
	user := &domain.User{
		Username:     username,
		Email:        fmt.Sprintf("%s-%d@example.com", username, next()),
		Role:         role,
		PasswordHash: "not-a-real-hash",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestClient creates a client owned by ownerID (nil for no owner)
func CreateTestClient(t *testing.T, db *gorm.DB, name string, ownerID *uint, servicesUsed ...uint) *domain.Client {
	t.Helper()
	client := &domain.Client{
		Name:           name,
		Industry:       "Retail",
		AccountOwnerID: ownerID,
		ServicesUsed:   servicesUsed,
		Status:         domain.ClientStatusActive,
	}
	require.NoError(t, db.Omit("AccountOwner").Create(client).Error)
	return client
}

// CreateTestService creates a catalog service with the given status
func CreateTestService(t *testing.T, db *gorm.DB, name, businessUnit string, status domain.ServiceStatus) *domain.Service {
	t.Helper()
	svc := &domain.Service{
		Name:         name,
		BusinessUnit: businessUnit,
		Status:       status,
	}
	require.NoError(t, db.Create(svc).Error)
	return svc
}

// CreateTestOpportunity creates an opportunity linking client and service
func CreateTestOpportunity(t *testing.T, db *gorm.DB, clientID, serviceID, userID uint, status domain.OpportunityStatus) *domain.Opportunity {
	t.Helper()
	opp := &domain.Opportunity{
		Name:           fmt.Sprintf("Opportunity %d", next()),
		ClientID:       clientID,
		ServiceID:      serviceID,
		AssignedUserID: userID,
		Status:         status,
		Priority:       domain.PriorityMedium,
		EstimatedValue: decimal.NewFromInt(1000),
		DueDate:        domain.DateOnly(time.Now().AddDate(0, 0, 30)),
	}
	require.NoError(t, db.Omit("Client", "Service", "AssignedUser").Create(opp).Error)
	return opp
}

// CreateTestTask creates a task on the opportunity due on the given date
func CreateTestTask(t *testing.T, db *gorm.DB, opportunityID, userID uint, due time.Time, status domain.TaskStatus) *domain.Task {
	t.Helper()
	task := &domain.Task{
		Name:           fmt.Sprintf("Task %d", next()),
		OpportunityID:  opportunityID,
		AssignedUserID: userID,
		DueDate:        domain.DateOnly(due),
		Status:         status,
	}
	require.NoError(t, db.Omit("Opportunity", "AssignedUser").Create(task).Error)
	return task
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}
