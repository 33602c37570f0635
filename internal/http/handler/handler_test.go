package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/wondrlab/crosssell-api/internal/auth"
	"github.com/wondrlab/crosssell-api/internal/config"
	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/http/handler"
	"github.com/wondrlab/crosssell-api/internal/repository"
	"github.com/wondrlab/crosssell-api/internal/service"
	"github.com/wondrlab/crosssell-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// handlerEnv wires every handler against one in-memory database
type handlerEnv struct {
	db            *gorm.DB
	admin         *domain.User
	auth          *handler.AuthHandler
	users         *handler.UserHandler
	clients       *handler.ClientHandler
	catalog       *handler.CatalogHandler
	opportunities *handler.OpportunityHandler
	tasks         *handler.TaskHandler
	admins        *handler.AdminHandler
	notifications *handler.NotificationHandler
	lookups       *handler.LookupHandler
	imports       *handler.ImportHandler
	userService   *service.UserService
}

func newHandlerEnv(t *testing.T) *handlerEnv {
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

	notifications := service.NewNotificationService(notificationRepo, logger)
	users := service.NewUserService(userRepo, logger)
	authService := service.NewAuthService(users, userRepo, auth.NewTokenManager(authCfg), authCfg, logger)
	units := service.NewBusinessUnitService(db, unitRepo, serviceRepo, logger)
	industries := service.NewIndustryService(industryRepo, logger)
	clients := service.NewClientService(db, clientRepo, serviceRepo, oppRepo, userRepo, notifications, logger)
	catalog := service.NewCatalogService(db, serviceRepo, unitRepo, clientRepo, oppRepo, logger)
	opportunities := service.NewOpportunityService(db, oppRepo, clientRepo, serviceRepo, userRepo, notifications, logger)
	tasks := service.NewTaskService(taskRepo, oppRepo, userRepo, notifications, logger)
	lookups := service.NewLookupService(clientRepo, serviceRepo, oppRepo, userRepo)
	matrix := service.NewMatrixService(clientRepo, serviceRepo, oppRepo, opportunities, logger)
	imports := service.NewImportService(lookups, clients, catalog, opportunities, tasks,
		nil, &config.ImportConfig{FallbackUserID: 1, FallbackOpportunityID: 1}, false, logger)

	return &handlerEnv{
		db:            db,
		admin:         testutil.CreateTestUser(t, db, "admin", domain.RoleAdmin),
		auth:          handler.NewAuthHandler(authService, logger),
		users:         handler.NewUserHandler(users, logger),
		clients:       handler.NewClientHandler(clients, logger),
		catalog:       handler.NewCatalogHandler(catalog, logger),
		opportunities: handler.NewOpportunityHandler(opportunities, matrix, logger),
		tasks:         handler.NewTaskHandler(tasks, logger),
		admins:        handler.NewAdminHandler(units, industries, logger),
		notifications: handler.NewNotificationHandler(notifications, logger),
		lookups:       handler.NewLookupHandler(lookups, logger),
		imports:       handler.NewImportHandler(imports, 1<<20, logger),
		userService:   users,
	}
}

// newRequest builds a request authenticated as user with the given chi path params
func newRequest(t *testing.T, method, target string, body interface{}, user *domain.User, params map[string]string) *http.Request {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if _, ok := body.(string); !ok && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	ctx := req.Context()
	if user != nil {
		ctx = auth.WithUserContext(ctx, &auth.UserContext{
			UserID:   user.ID,
			Username: user.Username,
			Email:    user.Email,
			Role:     user.Role,
		})
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

// envelope is the decoded API response with data kept raw
type envelope struct {
	Success bool                          `json:"success"`
	Data    json.RawMessage               `json:"data"`
	Message string                        `json:"message"`
	Meta    map[string]interface{}        `json:"meta"`
	Errors  json.RawMessage               `json:"errors"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data), string(env.Data))
	}
	return env
}
