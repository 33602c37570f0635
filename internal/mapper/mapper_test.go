package mapper_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/mapper"
)

func TestToClientDTO(t *testing.T) {
	owner := &domain.User{Username: "olivia"}
	owner.ID = 3
	client := &domain.Client{
		Name:           "Acme",
		AccountOwnerID: &owner.ID,
		AccountOwner:   owner,
		Status:         domain.ClientStatusActive,
	}
	client.ID = 10
	client.CreatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	dto := mapper.ToClientDTO(client)

	assert.Equal(t, uint(10), dto.ID)
	assert.Equal(t, "olivia", dto.AccountOwnerName)
	assert.Equal(t, []uint{}, dto.ServicesUsed)
	assert.Equal(t, "2026-01-02T03:04:05Z", dto.CreatedAt)
}

func TestToServiceDTO_EmptyIndustries(t *testing.T) {
	dto := mapper.ToServiceDTO(&domain.Service{Name: "Audit", BusinessUnit: "Finance"})

	assert.Equal(t, []string{}, dto.ApplicableIndustries)
	assert.Equal(t, "Finance", dto.BusinessUnit)
}

func TestToOpportunityDTO(t *testing.T) {
	opp := &domain.Opportunity{
		Name:           "Upsell",
		ClientID:       1,
		Client:         &domain.Client{Name: "Acme"},
		ServiceID:      2,
		Service:        &domain.Service{Name: "Audit"},
		AssignedUserID: 3,
		AssignedUser:   &domain.User{Username: "sam"},
		Status:         domain.OpportunityStatusProposal,
		EstimatedValue: decimal.RequireFromString("1250.50"),
		DueDate:        time.Date(2026, 11, 13, 0, 0, 0, 0, time.UTC),
	}

	dto := mapper.ToOpportunityDTO(opp)

	assert.Equal(t, "Acme", dto.ClientName)
	assert.Equal(t, "Audit", dto.ServiceName)
	assert.Equal(t, "sam", dto.AssignedUserName)
	assert.Equal(t, "2026-11-13", dto.DueDate)
	assert.True(t, decimal.RequireFromString("1250.5").Equal(dto.EstimatedValue))
}

func TestToOpportunityDTO_NoRelations(t *testing.T) {
	dto := mapper.ToOpportunityDTO(&domain.Opportunity{Name: "Bare"})

	assert.Empty(t, dto.ClientName)
	assert.Empty(t, dto.DueDate)
}

func TestToTaskDTO_Overdue(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	task := &domain.Task{
		Name:    "Call",
		DueDate: time.Date(2026, 10, 13, 0, 0, 0, 0, time.UTC),
		Status:  domain.TaskStatusPending,
	}

	assert.True(t, mapper.ToTaskDTO(task, now).IsOverdue)

	task.Status = domain.TaskStatusCompleted
	assert.False(t, mapper.ToTaskDTO(task, now).IsOverdue)

	task.Status = domain.TaskStatusPending
	task.DueDate = time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	assert.False(t, mapper.ToTaskDTO(task, now).IsOverdue, "due today is not overdue")
}

func TestToNotificationDTO(t *testing.T) {
	related := uint(5)
	n := &domain.Notification{
		ID:        1,
		UserID:    2,
		Type:      domain.NotificationTypeOpportunityWon,
		Title:     "Won",
		RelatedTo: "opportunity",
		RelatedID: &related,
	}

	dto := mapper.ToNotificationDTO(n)

	assert.Equal(t, domain.NotificationTypeOpportunityWon, dto.Type)
	assert.Equal(t, &related, dto.RelatedID)
}
