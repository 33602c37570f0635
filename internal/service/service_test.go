package service_test

import (
	"context"
	"testing"

	"github.com/wondrlab/crosssell-api/internal/auth"
	"github.com/wondrlab/crosssell-api/internal/config"
	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/repository"
	"github.com/wondrlab/crosssell-api/internal/service"
	"github.com/wondrlab/crosssell-api/internal/storage"
	"github.com/wondrlab/crosssell-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// testEnv wires every service against one in-memory database
type testEnv struct {
	db            *gorm.DB
	notifications *service.NotificationService
	users         *service.UserService
	auth          *service.AuthService
	units         *service.BusinessUnitService
	industries    *service.IndustryService
	clients       *service.ClientService
	catalog       *service.CatalogService
	opportunities *service.OpportunityService
	tasks         *service.TaskService
	lookups       *service.LookupService
	matrix        *service.MatrixService
	imports       *service.ImportService
	authCfg       *config.AuthConfig
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithStorage(t, nil)
}

func newTestEnvWithStorage(t *testing.T, store storage.Storage) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	userRepo := repository.NewUserRepository(db)
	unitRepo := repository.NewBusinessUnitRepository(db)
	industryRepo := repository.NewIndustryRepository(db)
	clientRepo := repository.NewClientRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	oppRepo := repository.NewOpportunityRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	authCfg := &config.AuthConfig{
		JWTSecret:         "test-secret-that-is-long-enough-for-hs256",
		TokenTTL:          60,
		Issuer:            "crosssell-test",
		AllowRegistration: true,
	}

	env := &testEnv{db: db, authCfg: authCfg}
	env.notifications = service.NewNotificationService(notificationRepo, logger)
	env.users = service.NewUserService(userRepo, logger)
	env.auth = service.NewAuthService(env.users, userRepo, auth.NewTokenManager(authCfg), authCfg, logger)
	env.units = service.NewBusinessUnitService(db, unitRepo, serviceRepo, logger)
	env.industries = service.NewIndustryService(industryRepo, logger)
	env.clients = service.NewClientService(db, clientRepo, serviceRepo, oppRepo, userRepo, env.notifications, logger)
	env.catalog = service.NewCatalogService(db, serviceRepo, unitRepo, clientRepo, oppRepo, logger)
	env.opportunities = service.NewOpportunityService(db, oppRepo, clientRepo, serviceRepo, userRepo, env.notifications, logger)
	env.tasks = service.NewTaskService(taskRepo, oppRepo, userRepo, env.notifications, logger)
	env.lookups = service.NewLookupService(clientRepo, serviceRepo, oppRepo, userRepo)
	env.matrix = service.NewMatrixService(clientRepo, serviceRepo, oppRepo, env.opportunities, logger)
	env.imports = service.NewImportService(env.lookups, env.clients, env.catalog, env.opportunities, env.tasks,
		store, &config.ImportConfig{FallbackUserID: 1, FallbackOpportunityID: 1}, store != nil, logger)
	return env
}

func userContext(user *domain.User) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	})
}

func systemContext() context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:   auth.SystemUserID,
		Username: "system",
		Role:     domain.RoleAdmin,
		System:   true,
	})
}

// notificationsOf returns every notification stored for the user
func notificationsOf(t *testing.T, db *gorm.DB, userID uint) []domain.Notification {
	t.Helper()
	var notifications []domain.Notification
	if err := db.Where("user_id = ?", userID).Order("id ASC").Find(&notifications).Error; err != nil {
		t.Fatalf("failed to load notifications: %v", err)
	}
	return notifications
}
