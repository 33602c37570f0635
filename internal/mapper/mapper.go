package mapper

import (
	"time"

	"github.com/wondrlab/crosssell-api/internal/domain"
)

const (
	timestampLayout = "2006-01-02T15:04:05Z"
	dateLayout      = "2006-01-02"
)

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// ToUserDTO converts User to UserDTO
func ToUserDTO(user *domain.User) domain.UserDTO {
	return domain.UserDTO{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt: user.UpdatedAt.UTC().Format(timestampLayout),
	}
}

// ToBusinessUnitDTO converts BusinessUnit to BusinessUnitDTO
func ToBusinessUnitDTO(unit *domain.BusinessUnit, serviceCount int64) domain.BusinessUnitDTO {
	return domain.BusinessUnitDTO{
		ID:           unit.ID,
		Name:         unit.Name,
		Description:  unit.Description,
		Status:       unit.Status,
		ServiceCount: serviceCount,
		CreatedAt:    unit.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt:    unit.UpdatedAt.UTC().Format(timestampLayout),
	}
}

// ToIndustryDTO converts Industry to IndustryDTO
func ToIndustryDTO(industry *domain.Industry) domain.IndustryDTO {
	return domain.IndustryDTO{
		ID:          industry.ID,
		Name:        industry.Name,
		Description: industry.Description,
		Status:      industry.Status,
		CreatedAt:   industry.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt:   industry.UpdatedAt.UTC().Format(timestampLayout),
	}
}

// ToClientDTO converts Client to ClientDTO. AccountOwner is used when preloaded.
func ToClientDTO(client *domain.Client) domain.ClientDTO {
	dto := domain.ClientDTO{
		ID:             client.ID,
		Name:           client.Name,
		Industry:       client.Industry,
		ContactName:    client.ContactName,
		ContactEmail:   client.ContactEmail,
		ContactPhone:   client.ContactPhone,
		Address:        client.Address,
		AccountOwnerID: client.AccountOwnerID,
		ServicesUsed:   client.ServicesUsed,
		CRMLink:        client.CRMLink,
		Notes:          client.Notes,
		Status:         client.Status,
		CreatedAt:      client.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt:      client.UpdatedAt.UTC().Format(timestampLayout),
	}
	if dto.ServicesUsed == nil {
		dto.ServicesUsed = []uint{}
	}
	if client.AccountOwner != nil {
		dto.AccountOwnerName = client.AccountOwner.Username
	}
	return dto
}

// ToServiceDTO converts Service to ServiceDTO
func ToServiceDTO(svc *domain.Service) domain.ServiceDTO {
	dto := domain.ServiceDTO{
		ID:                   svc.ID,
		Name:                 svc.Name,
		Description:          svc.Description,
		BusinessUnit:         svc.BusinessUnit,
		PricingModel:         svc.PricingModel,
		PricingDetails:       svc.PricingDetails,
		ApplicableIndustries: svc.ApplicableIndustries,
		ClientRole:           svc.ClientRole,
		Status:               svc.Status,
		CreatedAt:            svc.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt:            svc.UpdatedAt.UTC().Format(timestampLayout),
	}
	if dto.ApplicableIndustries == nil {
		dto.ApplicableIndustries = []string{}
	}
	return dto
}

// ToOpportunityDTO converts Opportunity to OpportunityDTO, filling display
// names from preloaded relations
func ToOpportunityDTO(opp *domain.Opportunity) domain.OpportunityDTO {
	dto := domain.OpportunityDTO{
		ID:             opp.ID,
		Name:           opp.Name,
		ClientID:       opp.ClientID,
		ServiceID:      opp.ServiceID,
		AssignedUserID: opp.AssignedUserID,
		Status:         opp.Status,
		Priority:       opp.Priority,
		EstimatedValue: opp.EstimatedValue,
		DueDate:        formatDate(opp.DueDate),
		Notes:          opp.Notes,
		CreatedAt:      opp.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt:      opp.UpdatedAt.UTC().Format(timestampLayout),
	}
	if opp.Client != nil {
		dto.ClientName = opp.Client.Name
	}
	if opp.Service != nil {
		dto.ServiceName = opp.Service.Name
	}
	if opp.AssignedUser != nil {
		dto.AssignedUserName = opp.AssignedUser.Username
	}
	return dto
}

// ToTaskDTO converts Task to TaskDTO. is_overdue is evaluated against now.
func ToTaskDTO(task *domain.Task, now time.Time) domain.TaskDTO {
	dto := domain.TaskDTO{
		ID:             task.ID,
		Name:           task.Name,
		OpportunityID:  task.OpportunityID,
		AssignedUserID: task.AssignedUserID,
		DueDate:        formatDate(task.DueDate),
		Status:         task.Status,
		Description:    task.Description,
		IsOverdue:      task.IsOverdue(now),
		CreatedAt:      task.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt:      task.UpdatedAt.UTC().Format(timestampLayout),
	}
	if task.Opportunity != nil {
		dto.OpportunityName = task.Opportunity.Name
	}
	if task.AssignedUser != nil {
		dto.AssignedUserName = task.AssignedUser.Username
	}
	return dto
}

// ToNotificationDTO converts Notification to NotificationDTO
func ToNotificationDTO(n *domain.Notification) domain.NotificationDTO {
	return domain.NotificationDTO{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		RelatedTo: n.RelatedTo,
		RelatedID: n.RelatedID,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.UTC().Format(timestampLayout),
	}
}
