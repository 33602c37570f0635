package service_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/service"
	"github.com/wondrlab/crosssell-api/internal/testutil"
	"github.com/xuri/excelize/v2"
)

func TestMatrixService_Get(t *testing.T) {
	env := newTestEnv(t)
	seller := testutil.CreateTestUser(t, env.db, "seller", domain.RoleSales)
	hosting := testutil.CreateTestService(t, env.db, "Hosting", "Cloud", domain.ServiceStatusActive)
	backup := testutil.CreateTestService(t, env.db, "Backup", "Cloud", domain.ServiceStatusActive)
	testutil.CreateTestService(t, env.db, "Legacy", "Cloud", domain.ServiceStatusDeprecated)
	acme := testutil.CreateTestClient(t, env.db, "Acme", nil, hosting.ID)
	opp := testutil.CreateTestOpportunity(t, env.db, acme.ID, backup.ID, seller.ID, domain.OpportunityStatusProposal)

	m, err := env.matrix.Get(context.Background())
	require.NoError(t, err)
	assert.Len(t, m.Clients, 1)
	assert.Len(t, m.Services, 2)

	row := m.Matrix[acme.ID]
	assert.Equal(t, "active", row[hosting.ID].Status)
	assert.Nil(t, row[hosting.ID].OpportunityID)
	assert.Equal(t, "proposal", row[backup.ID].Status)
	require.NotNil(t, row[backup.ID].OpportunityID)
	assert.Equal(t, opp.ID, *row[backup.ID].OpportunityID)
}

func TestMatrixService_CreateFromCell(t *testing.T) {
	env := newTestEnv(t)
	seller := testutil.CreateTestUser(t, env.db, "seller", domain.RoleSales)
	hosting := testutil.CreateTestService(t, env.db, "Hosting", "Cloud", domain.ServiceStatusActive)
	backup := testutil.CreateTestService(t, env.db, "Backup", "Cloud", domain.ServiceStatusActive)
	acme := testutil.CreateTestClient(t, env.db, "Acme", &seller.ID, hosting.ID)
	ctx := userContext(seller)

	result, err := env.matrix.CreateFromCell(ctx, &domain.CreateFromCellRequest{ClientID: acme.ID, ServiceID: backup.ID})
	require.NoError(t, err)
	assert.Equal(t, "Backup for Acme", result.Opportunity.Name)
	assert.Equal(t, "new", result.Cell.Status)
	require.NotNil(t, result.Cell.OpportunityID)
	assert.Equal(t, result.Opportunity.ID, *result.Cell.OpportunityID)
	assert.Equal(t, seller.ID, result.Opportunity.AssignedUserID)

	m, err := env.matrix.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new", m.Matrix[acme.ID][backup.ID].Status)

	_, err = env.matrix.CreateFromCell(ctx, &domain.CreateFromCellRequest{ClientID: acme.ID, ServiceID: hosting.ID})
	assert.ErrorIs(t, err, service.ErrCellOccupied)
	assert.ErrorIs(t, err, service.ErrConflict)

	_, err = env.matrix.CreateFromCell(ctx, &domain.CreateFromCellRequest{ClientID: acme.ID + 9, ServiceID: backup.ID})
	assert.ErrorIs(t, err, service.ErrClientNotFound)

	_, err = env.matrix.CreateFromCell(ctx, &domain.CreateFromCellRequest{ClientID: acme.ID, ServiceID: backup.ID + 9})
	assert.ErrorIs(t, err, service.ErrServiceNotFound)
}

func TestMatrixService_ExportXLSX(t *testing.T) {
	env := newTestEnv(t)
	hosting := testutil.CreateTestService(t, env.db, "Hosting", "Cloud", domain.ServiceStatusActive)
	testutil.CreateTestClient(t, env.db, "Acme", nil, hosting.ID)

	var buf bytes.Buffer
	require.NoError(t, env.matrix.ExportXLSX(context.Background(), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Client", "Hosting (Cloud)"}, rows[0])
	assert.Equal(t, []string{"Acme", "active"}, rows[1])
}
