package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/service"
	"github.com/wondrlab/crosssell-api/internal/testutil"
)

func TestCatalogService_Create(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.units.Create(context.Background(), &domain.CreateBusinessUnitRequest{Name: "Cloud Services"})
	require.NoError(t, err)

	dto, err := env.catalog.Create(context.Background(), &domain.CreateServiceRequest{
		Name:                 "Backup",
		BusinessUnit:         "cloud services",
		ApplicableIndustries: []string{"Retail", " ", "Finance "},
	})
	require.NoError(t, err)
	assert.Equal(t, "Cloud Services", dto.BusinessUnit)
	assert.Equal(t, domain.ServiceStatusActive, dto.Status)
	assert.Equal(t, []string{"Retail", "Finance"}, dto.ApplicableIndustries)

	// same name in another unit is fine
	_, err = env.catalog.Create(context.Background(), &domain.CreateServiceRequest{Name: "Backup", BusinessUnit: "Security"})
	require.NoError(t, err)

	_, err = env.catalog.Create(context.Background(), &domain.CreateServiceRequest{Name: "backup", BusinessUnit: "Cloud Services"})
	assert.ErrorIs(t, err, service.ErrConflict)

	_, err = env.catalog.Create(context.Background(), &domain.CreateServiceRequest{Name: "Audit", BusinessUnit: "Security", Status: "retired"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestCatalogService_Delete(t *testing.T) {
	env := newTestEnv(t)
	seller := testutil.CreateTestUser(t, env.db, "seller", domain.RoleSales)
	svc := testutil.CreateTestService(t, env.db, "Backup", "Cloud", domain.ServiceStatusActive)
	other := testutil.CreateTestService(t, env.db, "Hosting", "Cloud", domain.ServiceStatusActive)
	client := testutil.CreateTestClient(t, env.db, "Acme", nil, svc.ID, other.ID)
	opp := testutil.CreateTestOpportunity(t, env.db, client.ID, svc.ID, seller.ID, domain.OpportunityStatusNew)
	testutil.CreateTestTask(t, env.db, opp.ID, seller.ID, opp.DueDate, domain.TaskStatusPending)

	result, err := env.catalog.Delete(context.Background(), svc.ID, false)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.True(t, result.HasOpportunities)
	assert.Equal(t, int64(1), result.OpportunityCount)
	assert.True(t, result.HasClients)
	assert.Equal(t, int64(1), result.ClientCount)

	result, err = env.catalog.Delete(context.Background(), svc.ID, true)
	require.NoError(t, err)
	assert.True(t, result.Success)

	clientDTO, err := env.clients.GetByID(context.Background(), client.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{other.ID}, clientDTO.ServicesUsed)

	var count int64
	env.db.Model(&domain.Opportunity{}).Count(&count)
	assert.Zero(t, count)
	env.db.Model(&domain.Task{}).Count(&count)
	assert.Zero(t, count)

	_, err = env.catalog.GetByID(context.Background(), svc.ID)
	assert.ErrorIs(t, err, service.ErrServiceNotFound)
}

func TestCatalogService_UpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	svc := testutil.CreateTestService(t, env.db, "Backup", "Cloud", domain.ServiceStatusActive)

	dto, err := env.catalog.UpdateStatus(context.Background(), svc.ID, "deprecated")
	require.NoError(t, err)
	assert.Equal(t, domain.ServiceStatusDeprecated, dto.Status)

	page, err := env.catalog.List(context.Background(), 1, 20, domain.ServiceFilters{Status: domain.ServiceStatusActive})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestBusinessUnitService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	unit, err := env.units.Create(ctx, &domain.CreateBusinessUnitRequest{Name: "Cloud"})
	require.NoError(t, err)
	assert.Equal(t, domain.RecordStatusActive, unit.Status)

	_, err = env.units.Create(ctx, &domain.CreateBusinessUnitRequest{Name: "cloud"})
	assert.ErrorIs(t, err, service.ErrConflict)

	svc := testutil.CreateTestService(t, env.db, "Backup", "Cloud", domain.ServiceStatusActive)

	t.Run("rename follows to services", func(t *testing.T) {
		renamed, err := env.units.Update(ctx, unit.ID, &domain.UpdateBusinessUnitRequest{Name: "Cloud Platform"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), renamed.ServiceCount)

		dto, err := env.catalog.GetByID(ctx, svc.ID)
		require.NoError(t, err)
		assert.Equal(t, "Cloud Platform", dto.BusinessUnit)
	})

	t.Run("delete reports services without force", func(t *testing.T) {
		result, err := env.units.Delete(ctx, unit.ID, false)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.True(t, result.HasServices)
		assert.Equal(t, int64(1), result.ServiceCount)
	})

	t.Run("force clears the unit on services", func(t *testing.T) {
		result, err := env.units.Delete(ctx, unit.ID, true)
		require.NoError(t, err)
		assert.True(t, result.Success)

		dto, err := env.catalog.GetByID(ctx, svc.ID)
		require.NoError(t, err)
		assert.Equal(t, "", dto.BusinessUnit)

		_, err = env.units.GetByID(ctx, unit.ID)
		assert.ErrorIs(t, err, service.ErrBusinessUnitNotFound)
	})

	t.Run("status", func(t *testing.T) {
		other, err := env.units.Create(ctx, &domain.CreateBusinessUnitRequest{Name: "Security"})
		require.NoError(t, err)

		dto, err := env.units.UpdateStatus(ctx, other.ID, "inactive")
		require.NoError(t, err)
		assert.Equal(t, domain.RecordStatusInactive, dto.Status)

		list, err := env.units.List(ctx, "active")
		require.NoError(t, err)
		assert.Empty(t, list)

		_, err = env.units.UpdateStatus(ctx, other.ID, "archived")
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func TestIndustryService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	industry, err := env.industries.Create(ctx, &domain.CreateIndustryRequest{Name: "Retail"})
	require.NoError(t, err)

	_, err = env.industries.Create(ctx, &domain.CreateIndustryRequest{Name: "retail "})
	assert.ErrorIs(t, err, service.ErrConflict)

	updated, err := env.industries.Update(ctx, industry.ID, &domain.UpdateIndustryRequest{Name: "Retail & Wholesale", Description: "Shops"})
	require.NoError(t, err)
	assert.Equal(t, "Shops", updated.Description)

	list, err := env.industries.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, env.industries.Delete(ctx, industry.ID))
	assert.ErrorIs(t, env.industries.Delete(ctx, industry.ID), service.ErrIndustryNotFound)
}
