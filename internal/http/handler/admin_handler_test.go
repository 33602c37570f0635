package handler_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/testutil"
)

func TestAdminHandler_BusinessUnits(t *testing.T) {
	env := newHandlerEnv(t)

	rr := serve(env.admins.CreateBusinessUnit, newRequest(t, http.MethodPost, "/admin/business-units",
		map[string]string{"name": "Cloud"}, env.admin, nil))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var unit domain.BusinessUnitDTO
	decode(t, rr, &unit)
	assert.Equal(t, domain.RecordStatusActive, unit.Status)

	rr = serve(env.admins.CreateBusinessUnit, newRequest(t, http.MethodPost, "/admin/business-units",
		map[string]string{"name": "cloud"}, env.admin, nil))
	assert.Equal(t, http.StatusConflict, rr.Code)

	testutil.CreateTestService(t, env.db, "Hosting", "Cloud", domain.ServiceStatusActive)
	params := map[string]string{"id": strconv.FormatUint(uint64(unit.ID), 10)}

	rr = serve(env.admins.GetBusinessUnit, newRequest(t, http.MethodGet, "/", nil, env.admin, params))
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, rr, &unit)
	assert.EqualValues(t, 1, unit.ServiceCount)

	rr = serve(env.admins.DeleteBusinessUnit, newRequest(t, http.MethodDelete, "/", nil, env.admin, params))
	require.Equal(t, http.StatusConflict, rr.Code)

	rr = serve(env.admins.UpdateBusinessUnitStatus, newRequest(t, http.MethodPatch, "/",
		map[string]string{"status": "inactive"}, env.admin, params))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = serve(env.admins.ListBusinessUnits, newRequest(t, http.MethodGet, "/admin/business-units?status=active", nil, env.admin, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var units []domain.BusinessUnitDTO
	decode(t, rr, &units)
	assert.Empty(t, units)
}

func TestAdminHandler_Industries(t *testing.T) {
	env := newHandlerEnv(t)

	rr := serve(env.admins.CreateIndustry, newRequest(t, http.MethodPost, "/admin/industries",
		map[string]string{"name": "Retail"}, env.admin, nil))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var industry domain.IndustryDTO
	decode(t, rr, &industry)
	params := map[string]string{"id": strconv.FormatUint(uint64(industry.ID), 10)}

	rr = serve(env.admins.UpdateIndustry, newRequest(t, http.MethodPut, "/",
		map[string]string{"name": "Retail & Consumer"}, env.admin, params))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	decode(t, rr, &industry)
	assert.Equal(t, "Retail & Consumer", industry.Name)

	rr = serve(env.admins.ListIndustries, newRequest(t, http.MethodGet, "/admin/industries", nil, env.admin, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var industries []domain.IndustryDTO
	decode(t, rr, &industries)
	assert.Len(t, industries, 1)

	rr = serve(env.admins.DeleteIndustry, newRequest(t, http.MethodDelete, "/", nil, env.admin, params))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = serve(env.admins.GetIndustry, newRequest(t, http.MethodGet, "/", nil, env.admin, params))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCatalogHandler_CRUD(t *testing.T) {
	env := newHandlerEnv(t)

	rr := serve(env.catalog.Create, newRequest(t, http.MethodPost, "/services", map[string]interface{}{
		"name":                  "Hosting",
		"business_unit":         "Cloud",
		"applicable_industries": []string{" Retail ", "Finance"},
	}, env.admin, nil))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var svc domain.ServiceDTO
	decode(t, rr, &svc)
	assert.Equal(t, []string{"Retail", "Finance"}, svc.ApplicableIndustries)

	rr = serve(env.catalog.Create, newRequest(t, http.MethodPost, "/services",
		map[string]string{"name": "hosting", "business_unit": "Cloud"}, env.admin, nil))
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = serve(env.catalog.List, newRequest(t, http.MethodGet, "/services?businessUnit=Cloud", nil, env.admin, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var services []domain.ServiceDTO
	decode(t, rr, &services)
	assert.Len(t, services, 1)

	params := map[string]string{"id": strconv.FormatUint(uint64(svc.ID), 10)}
	rr = serve(env.catalog.UpdateStatus, newRequest(t, http.MethodPatch, "/",
		map[string]string{"status": "deprecated"}, env.admin, params))
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, rr, &svc)
	assert.Equal(t, domain.ServiceStatusDeprecated, svc.Status)

	rr = serve(env.catalog.Delete, newRequest(t, http.MethodDelete, "/", nil, env.admin, params))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestLookupHandler_Get(t *testing.T) {
	env := newHandlerEnv(t)
	hosting := testutil.CreateTestService(t, env.db, "Hosting", "Cloud", domain.ServiceStatusActive)
	acme := testutil.CreateTestClient(t, env.db, "Acme", nil)
	testutil.CreateTestOpportunity(t, env.db, acme.ID, hosting.ID, env.admin.ID, domain.OpportunityStatusNew)

	rr := serve(env.lookups.Get, newRequest(t, http.MethodGet, "/lookups", nil, env.admin, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var lookups domain.Lookups
	decode(t, rr, &lookups)
	assert.Len(t, lookups.Clients, 1)
	assert.Len(t, lookups.Services, 1)
	assert.Len(t, lookups.Opportunities, 1)
	assert.Len(t, lookups.Users, 1)
	assert.Equal(t, "Acme", lookups.Clients[0].Name)
}
