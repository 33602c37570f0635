package service_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/service"
	"github.com/wondrlab/crosssell-api/internal/testutil"
)

func TestOpportunityService_Create(t *testing.T) {
	env := newTestEnv(t)
	seller := testutil.CreateTestUser(t, env.db, "seller", domain.RoleSales)
	client := testutil.CreateTestClient(t, env.db, "Acme", nil)
	svc := testutil.CreateTestService(t, env.db, "Backup", "Cloud", domain.ServiceStatusActive)

	t.Run("defaults and notification", func(t *testing.T) {
		dto, err := env.opportunities.Create(systemContext(), &domain.CreateOpportunityRequest{
			Name:           "Backup for Acme",
			ClientID:       client.ID,
			ServiceID:      svc.ID,
			AssignedUserID: seller.ID,
			EstimatedValue: decimal.RequireFromString("1250.50"),
		})
		require.NoError(t, err)

		assert.Equal(t, domain.OpportunityStatusNew, dto.Status)
		assert.Equal(t, domain.PriorityMedium, dto.Priority)
		assert.Equal(t, "Acme", dto.ClientName)
		assert.Equal(t, "Backup", dto.ServiceName)
		assert.Equal(t, "seller", dto.AssignedUserName)
		assert.True(t, decimal.RequireFromString("1250.5").Equal(dto.EstimatedValue))
		assert.NotEmpty(t, dto.DueDate)

		notifications := notificationsOf(t, env.db, seller.ID)
		require.Len(t, notifications, 1)
		assert.Equal(t, domain.NotificationTypeNewOpportunity, notifications[0].Type)
		assert.Equal(t, domain.RelatedOpportunity, notifications[0].RelatedTo)
		require.NotNil(t, notifications[0].RelatedID)
		assert.Equal(t, dto.ID, *notifications[0].RelatedID)
	})

	t.Run("caller becomes assignee", func(t *testing.T) {
		dto, err := env.opportunities.Create(userContext(seller), &domain.CreateOpportunityRequest{
			Name:      "Self assigned",
			ClientID:  client.ID,
			ServiceID: svc.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, seller.ID, dto.AssignedUserID)
	})

	t.Run("system caller needs an assignee", func(t *testing.T) {
		_, err := env.opportunities.Create(systemContext(), &domain.CreateOpportunityRequest{
			Name:      "Nobody",
			ClientID:  client.ID,
			ServiceID: svc.ID,
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("rejects missing references and negative value", func(t *testing.T) {
		cases := []domain.CreateOpportunityRequest{
			{Name: "x", ClientID: 999, ServiceID: svc.ID, AssignedUserID: seller.ID},
			{Name: "x", ClientID: client.ID, ServiceID: 999, AssignedUserID: seller.ID},
			{Name: "x", ClientID: client.ID, ServiceID: svc.ID, AssignedUserID: 999},
			{Name: "x", ClientID: client.ID, ServiceID: svc.ID, AssignedUserID: seller.ID, EstimatedValue: decimal.NewFromInt(-1)},
			{Name: "x", ClientID: client.ID, ServiceID: svc.ID, AssignedUserID: seller.ID, DueDate: "14/10/2026"},
		}
		for _, req := range cases {
			req := req
			_, err := env.opportunities.Create(systemContext(), &req)
			assert.ErrorIs(t, err, service.ErrInvalidInput)
		}
	})

	t.Run("created as won marks the service used", func(t *testing.T) {
		other := testutil.CreateTestClient(t, env.db, "Globex", nil)
		_, err := env.opportunities.Create(systemContext(), &domain.CreateOpportunityRequest{
			Name:           "Already closed",
			ClientID:       other.ID,
			ServiceID:      svc.ID,
			AssignedUserID: seller.ID,
			Status:         domain.OpportunityStatusWon,
		})
		require.NoError(t, err)

		dto, err := env.clients.GetByID(context.Background(), other.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{svc.ID}, dto.ServicesUsed)
	})
}

func TestOpportunityService_UpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	seller := testutil.CreateTestUser(t, env.db, "seller", domain.RoleSales)
	owner := testutil.CreateTestUser(t, env.db, "owner", domain.RoleBUHead)
	client := testutil.CreateTestClient(t, env.db, "Acme", &owner.ID)
	active := testutil.CreateTestService(t, env.db, "Backup", "Cloud", domain.ServiceStatusActive)
	retired := testutil.CreateTestService(t, env.db, "Fax", "Legacy", domain.ServiceStatusDeprecated)

	t.Run("status change notifies assignee and owner", func(t *testing.T) {
		opp := testutil.CreateTestOpportunity(t, env.db, client.ID, active.ID, seller.ID, domain.OpportunityStatusNew)

		dto, err := env.opportunities.UpdateStatus(systemContext(), opp.ID, "Proposal")
		require.NoError(t, err)
		assert.Equal(t, domain.OpportunityStatusProposal, dto.Status)

		for _, userID := range []uint{seller.ID, owner.ID} {
			notifications := notificationsOf(t, env.db, userID)
			require.NotEmpty(t, notifications)
			assert.Equal(t, domain.NotificationTypeOpportunityStatusChange, notifications[len(notifications)-1].Type)
		}
	})

	t.Run("won adds the service once", func(t *testing.T) {
		opp := testutil.CreateTestOpportunity(t, env.db, client.ID, active.ID, seller.ID, domain.OpportunityStatusNegotiation)

		_, err := env.opportunities.UpdateStatus(systemContext(), opp.ID, "won")
		require.NoError(t, err)
		_, err = env.opportunities.UpdateStatus(systemContext(), opp.ID, "lost")
		require.NoError(t, err)
		_, err = env.opportunities.UpdateStatus(systemContext(), opp.ID, "won")
		require.NoError(t, err)

		dto, err := env.clients.GetByID(context.Background(), client.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{active.ID}, dto.ServicesUsed)

		last := notificationsOf(t, env.db, owner.ID)
		assert.Equal(t, domain.NotificationTypeOpportunityWon, last[len(last)-1].Type)
	})

	t.Run("won on an inactive service leaves services_used alone", func(t *testing.T) {
		opp := testutil.CreateTestOpportunity(t, env.db, client.ID, retired.ID, seller.ID, domain.OpportunityStatusNew)

		_, err := env.opportunities.UpdateStatus(systemContext(), opp.ID, "won")
		require.NoError(t, err)

		dto, err := env.clients.GetByID(context.Background(), client.ID)
		require.NoError(t, err)
		assert.NotContains(t, dto.ServicesUsed, retired.ID)
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		opp := testutil.CreateTestOpportunity(t, env.db, client.ID, active.ID, seller.ID, domain.OpportunityStatusQualified)
		before := len(notificationsOf(t, env.db, seller.ID))

		_, err := env.opportunities.UpdateStatus(systemContext(), opp.ID, "qualified")
		require.NoError(t, err)
		assert.Len(t, notificationsOf(t, env.db, seller.ID), before)
	})

	t.Run("assignee who owns the client is notified once", func(t *testing.T) {
		own := testutil.CreateTestClient(t, env.db, "Initech", &seller.ID)
		opp := testutil.CreateTestOpportunity(t, env.db, own.ID, active.ID, seller.ID, domain.OpportunityStatusNew)
		before := len(notificationsOf(t, env.db, seller.ID))

		_, err := env.opportunities.UpdateStatus(systemContext(), opp.ID, "in_progress")
		require.NoError(t, err)
		assert.Len(t, notificationsOf(t, env.db, seller.ID), before+1)
	})

	t.Run("invalid status and unknown id", func(t *testing.T) {
		opp := testutil.CreateTestOpportunity(t, env.db, client.ID, active.ID, seller.ID, domain.OpportunityStatusNew)

		_, err := env.opportunities.UpdateStatus(systemContext(), opp.ID, "closed")
		assert.ErrorIs(t, err, service.ErrInvalidInput)

		_, err = env.opportunities.UpdateStatus(systemContext(), 9999, "won")
		assert.ErrorIs(t, err, service.ErrOpportunityNotFound)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestOpportunityService_UpdateWithStatusChange(t *testing.T) {
	env := newTestEnv(t)
	seller := testutil.CreateTestUser(t, env.db, "seller", domain.RoleSales)
	client := testutil.CreateTestClient(t, env.db, "Acme", nil)
	svc := testutil.CreateTestService(t, env.db, "Backup", "Cloud", domain.ServiceStatusActive)
	opp := testutil.CreateTestOpportunity(t, env.db, client.ID, svc.ID, seller.ID, domain.OpportunityStatusProposal)

	dto, err := env.opportunities.Update(systemContext(), opp.ID, &domain.UpdateOpportunityRequest{
		Name:      "Renamed",
		ClientID:  client.ID,
		ServiceID: svc.ID,
		Status:    domain.OpportunityStatusWon,
		Priority:  domain.PriorityHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", dto.Name)
	assert.Equal(t, seller.ID, dto.AssignedUserID)
	assert.Equal(t, domain.PriorityHigh, dto.Priority)
	assert.Equal(t, opp.DueDate.Format("2006-01-02"), dto.DueDate)

	clientDTO, err := env.clients.GetByID(context.Background(), client.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{svc.ID}, clientDTO.ServicesUsed)

	notifications := notificationsOf(t, env.db, seller.ID)
	require.NotEmpty(t, notifications)
	assert.Equal(t, domain.NotificationTypeOpportunityWon, notifications[len(notifications)-1].Type)
}

func TestOpportunityService_DeleteCascadesTasks(t *testing.T) {
	env := newTestEnv(t)
	seller := testutil.CreateTestUser(t, env.db, "seller", domain.RoleSales)
	client := testutil.CreateTestClient(t, env.db, "Acme", nil)
	svc := testutil.CreateTestService(t, env.db, "Backup", "Cloud", domain.ServiceStatusActive)
	opp := testutil.CreateTestOpportunity(t, env.db, client.ID, svc.ID, seller.ID, domain.OpportunityStatusNew)
	other := testutil.CreateTestOpportunity(t, env.db, client.ID, svc.ID, seller.ID, domain.OpportunityStatusNew)
	testutil.CreateTestTask(t, env.db, opp.ID, seller.ID, opp.DueDate, domain.TaskStatusPending)
	testutil.CreateTestTask(t, env.db, opp.ID, seller.ID, opp.DueDate, domain.TaskStatusPending)
	kept := testutil.CreateTestTask(t, env.db, other.ID, seller.ID, opp.DueDate, domain.TaskStatusPending)

	require.NoError(t, env.opportunities.Delete(systemContext(), opp.ID))

	var tasks []domain.Task
	require.NoError(t, env.db.Find(&tasks).Error)
	require.Len(t, tasks, 1)
	assert.Equal(t, kept.ID, tasks[0].ID)

	_, err := env.opportunities.GetByID(context.Background(), opp.ID)
	assert.ErrorIs(t, err, service.ErrOpportunityNotFound)
}

func TestOpportunityService_ListFilters(t *testing.T) {
	env := newTestEnv(t)
	seller := testutil.CreateTestUser(t, env.db, "seller", domain.RoleSales)
	acme := testutil.CreateTestClient(t, env.db, "Acme", nil)
	globex := testutil.CreateTestClient(t, env.db, "Globex", nil)
	svc := testutil.CreateTestService(t, env.db, "Backup", "Cloud", domain.ServiceStatusActive)
	testutil.CreateTestOpportunity(t, env.db, acme.ID, svc.ID, seller.ID, domain.OpportunityStatusNew)
	testutil.CreateTestOpportunity(t, env.db, acme.ID, svc.ID, seller.ID, domain.OpportunityStatusWon)
	testutil.CreateTestOpportunity(t, env.db, globex.ID, svc.ID, seller.ID, domain.OpportunityStatusNew)

	page, err := env.opportunities.List(context.Background(), 1, 20, domain.OpportunityFilters{ClientID: &acme.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	page, err = env.opportunities.List(context.Background(), 1, 20, domain.OpportunityFilters{Status: domain.OpportunityStatusNew})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	page, err = env.opportunities.List(context.Background(), 0, 1000, domain.OpportunityFilters{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 200, page.PageSize)
	assert.Len(t, page.Data, 3)

	_, err = env.opportunities.List(context.Background(), 1, 20, domain.OpportunityFilters{Priority: "urgent"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}
