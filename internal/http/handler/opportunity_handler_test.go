package handler_test

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/matrix"
	"github.com/wondrlab/crosssell-api/internal/service"
	"github.com/wondrlab/crosssell-api/internal/testutil"
)

func TestOpportunityHandler_CreateAndStatus(t *testing.T) {
	env := newHandlerEnv(t)
	acme := testutil.CreateTestClient(t, env.db, "Acme", nil)
	hosting := testutil.CreateTestService(t, env.db, "Hosting", "Cloud", domain.ServiceStatusActive)

	rr := serve(env.opportunities.Create, newRequest(t, http.MethodPost, "/opportunities", map[string]interface{}{
		"name":            "Hosting upsell",
		"client_id":       acme.ID,
		"service_id":      hosting.ID,
		"estimated_value": "1500.50",
		"due_date":        "2026-12-01",
	}, env.admin, nil))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var opp domain.OpportunityDTO
	decode(t, rr, &opp)
	assert.Equal(t, env.admin.ID, opp.AssignedUserID)
	assert.Equal(t, "1500.5", opp.EstimatedValue.String())
	assert.Equal(t, "2026-12-01", opp.DueDate)

	params := map[string]string{"id": strconv.FormatUint(uint64(opp.ID), 10)}
	rr = serve(env.opportunities.UpdateStatus, newRequest(t, http.MethodPatch, "/", map[string]string{"status": "won"}, env.admin, params))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	decode(t, rr, &opp)
	assert.Equal(t, domain.OpportunityStatusWon, opp.Status)

	rr = serve(env.clients.GetByID, newRequest(t, http.MethodGet, "/", nil, env.admin,
		map[string]string{"id": strconv.FormatUint(uint64(acme.ID), 10)}))
	var client domain.ClientDTO
	decode(t, rr, &client)
	assert.Contains(t, client.ServicesUsed, hosting.ID)
}

func TestOpportunityHandler_CreateBadDate(t *testing.T) {
	env := newHandlerEnv(t)
	rr := serve(env.opportunities.Create, newRequest(t, http.MethodPost, "/opportunities", map[string]interface{}{
		"name":       "Bad",
		"client_id":  1,
		"service_id": 1,
		"due_date":   "01/12/2026",
	}, env.admin, nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"field":"due_date"`)
}

func TestOpportunityHandler_ListFilters(t *testing.T) {
	env := newHandlerEnv(t)
	acme := testutil.CreateTestClient(t, env.db, "Acme", nil)
	globex := testutil.CreateTestClient(t, env.db, "Globex", nil)
	hosting := testutil.CreateTestService(t, env.db, "Hosting", "Cloud", domain.ServiceStatusActive)
	testutil.CreateTestOpportunity(t, env.db, acme.ID, hosting.ID, env.admin.ID, domain.OpportunityStatusNew)
	testutil.CreateTestOpportunity(t, env.db, globex.ID, hosting.ID, env.admin.ID, domain.OpportunityStatusLost)

	rr := serve(env.opportunities.List, newRequest(t, http.MethodGet,
		"/opportunities?clientId="+strconv.FormatUint(uint64(acme.ID), 10), nil, env.admin, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var opps []domain.OpportunityDTO
	decode(t, rr, &opps)
	require.Len(t, opps, 1)
	assert.Equal(t, "Acme", opps[0].ClientName)

	rr = serve(env.opportunities.List, newRequest(t, http.MethodGet, "/opportunities?status=lost", nil, env.admin, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, rr, &opps)
	require.Len(t, opps, 1)
	assert.Equal(t, globex.ID, opps[0].ClientID)

	rr = serve(env.opportunities.List, newRequest(t, http.MethodGet, "/opportunities?serviceId=-1", nil, env.admin, nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestOpportunityHandler_Matrix(t *testing.T) {
	env := newHandlerEnv(t)
	hosting := testutil.CreateTestService(t, env.db, "Hosting", "Cloud", domain.ServiceStatusActive)
	backup := testutil.CreateTestService(t, env.db, "Backup", "Cloud", domain.ServiceStatusActive)
	acme := testutil.CreateTestClient(t, env.db, "Acme", nil, hosting.ID)

	rr := serve(env.opportunities.Matrix, newRequest(t, http.MethodGet, "/opportunities/matrix", nil, env.admin, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var grid matrix.Matrix
	decode(t, rr, &grid)
	assert.Len(t, grid.Services, 2)
	assert.Equal(t, "active", grid.Matrix[acme.ID][hosting.ID].Status)
	_, present := grid.Matrix[acme.ID][backup.ID]
	assert.False(t, present, "unused service is a blank cell")

	rr = serve(env.opportunities.CreateFromCell, newRequest(t, http.MethodPost, "/opportunities/matrix",
		map[string]uint{"client_id": acme.ID, "service_id": backup.ID}, env.admin, nil))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var cell service.CellResult
	decode(t, rr, &cell)
	assert.Equal(t, "new", cell.Cell.Status)
	assert.Equal(t, "Backup for Acme", cell.Opportunity.Name)

	rr = serve(env.opportunities.CreateFromCell, newRequest(t, http.MethodPost, "/opportunities/matrix",
		map[string]uint{"client_id": acme.ID, "service_id": hosting.ID}, env.admin, nil))
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = serve(env.opportunities.CreateFromCell, newRequest(t, http.MethodPost, "/opportunities/matrix",
		map[string]uint{"client_id": acme.ID}, env.admin, nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestOpportunityHandler_ExportMatrix(t *testing.T) {
	env := newHandlerEnv(t)
	hosting := testutil.CreateTestService(t, env.db, "Hosting", "Cloud", domain.ServiceStatusActive)
	testutil.CreateTestClient(t, env.db, "Acme", nil, hosting.ID)

	rr := serve(env.opportunities.ExportMatrix, newRequest(t, http.MethodGet, "/opportunities/matrix/export", nil, env.admin, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "crosssell_matrix_"+time.Now().UTC().Format("2006-01-02")+".xlsx")
	// xlsx is a zip archive
	assert.Equal(t, "PK", rr.Body.String()[:2])
}

func TestTaskHandler_ListAndDelete(t *testing.T) {
	env := newHandlerEnv(t)
	acme := testutil.CreateTestClient(t, env.db, "Acme", nil)
	hosting := testutil.CreateTestService(t, env.db, "Hosting", "Cloud", domain.ServiceStatusActive)
	opp := testutil.CreateTestOpportunity(t, env.db, acme.ID, hosting.ID, env.admin.ID, domain.OpportunityStatusNew)
	late := testutil.CreateTestTask(t, env.db, opp.ID, env.admin.ID, time.Now().AddDate(0, 0, -3), domain.TaskStatusPending)
	testutil.CreateTestTask(t, env.db, opp.ID, env.admin.ID, time.Now().AddDate(0, 0, 3), domain.TaskStatusPending)

	rr := serve(env.tasks.List, newRequest(t, http.MethodGet, "/tasks?overdue=true", nil, env.admin, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var tasks []domain.TaskDTO
	decode(t, rr, &tasks)
	require.Len(t, tasks, 1)
	assert.Equal(t, late.ID, tasks[0].ID)
	assert.True(t, tasks[0].IsOverdue)

	rr = serve(env.tasks.List, newRequest(t, http.MethodGet, "/tasks?overdue=soon", nil, env.admin, nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	params := map[string]string{"id": strconv.FormatUint(uint64(late.ID), 10)}
	rr = serve(env.tasks.Delete, newRequest(t, http.MethodDelete, "/", nil, env.admin, params))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = serve(env.tasks.GetByID, newRequest(t, http.MethodGet, "/", nil, env.admin, params))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTaskHandler_CreateDefaults(t *testing.T) {
	env := newHandlerEnv(t)
	acme := testutil.CreateTestClient(t, env.db, "Acme", nil)
	hosting := testutil.CreateTestService(t, env.db, "Hosting", "Cloud", domain.ServiceStatusActive)
	opp := testutil.CreateTestOpportunity(t, env.db, acme.ID, hosting.ID, env.admin.ID, domain.OpportunityStatusNew)

	rr := serve(env.tasks.Create, newRequest(t, http.MethodPost, "/tasks",
		map[string]interface{}{"name": "Call", "opportunity_id": opp.ID}, env.admin, nil))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var task domain.TaskDTO
	decode(t, rr, &task)
	assert.Equal(t, env.admin.ID, task.AssignedUserID)
	assert.Equal(t, domain.TaskStatusPending, task.Status)
	assert.NotEmpty(t, task.DueDate)
}
