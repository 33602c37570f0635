package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wondrlab/crosssell-api/internal/auth"
	"github.com/wondrlab/crosssell-api/internal/csvtransform"
	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/mapper"
	"github.com/wondrlab/crosssell-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OpportunityService manages opportunities and their status side effects
type OpportunityService struct {
	db            *gorm.DB
	oppRepo       *repository.OpportunityRepository
	clientRepo    *repository.ClientRepository
	serviceRepo   *repository.ServiceRepository
	userRepo      *repository.UserRepository
	notifications *NotificationService
	logger        *zap.Logger
	now           func() time.Time
}

func NewOpportunityService(
	db *gorm.DB,
	oppRepo *repository.OpportunityRepository,
	clientRepo *repository.ClientRepository,
	serviceRepo *repository.ServiceRepository,
	userRepo *repository.UserRepository,
	notifications *NotificationService,
	logger *zap.Logger,
) *OpportunityService {
	return &OpportunityService{
		db:            db,
		oppRepo:       oppRepo,
		clientRepo:    clientRepo,
		serviceRepo:   serviceRepo,
		userRepo:      userRepo,
		notifications: notifications,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *OpportunityService) Create(ctx context.Context, req *domain.CreateOpportunityRequest) (*domain.OpportunityDTO, error) {
	opp := &domain.Opportunity{Status: domain.OpportunityStatusNew}
	if err := s.apply(ctx, opp, req); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewOpportunityRepository(tx).Create(ctx, opp); err != nil {
			return err
		}
		if opp.Status == domain.OpportunityStatusWon {
			return s.markServiceUsed(ctx, tx, opp)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create opportunity: %w", err)
	}

	s.logger.Info("opportunity created",
		zap.Uint("opportunityID", opp.ID),
		zap.Uint("clientID", opp.ClientID),
		zap.Uint("serviceID", opp.ServiceID),
		zap.Uint("assignedUserID", opp.AssignedUserID),
	)

	created, err := s.get(ctx, opp.ID)
	if err != nil {
		return nil, err
	}
	s.notifyCreated(ctx, created)

	dto := mapper.ToOpportunityDTO(created)
	return &dto, nil
}

func (s *OpportunityService) GetByID(ctx context.Context, id uint) (*domain.OpportunityDTO, error) {
	opp, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToOpportunityDTO(opp)
	return &dto, nil
}

// Update replaces the opportunity. A changed status has the same side
// effects as UpdateStatus.
func (s *OpportunityService) Update(ctx context.Context, id uint, req *domain.UpdateOpportunityRequest) (*domain.OpportunityDTO, error) {
	opp, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := opp.Status
	if err := s.apply(ctx, opp, req); err != nil {
		return nil, err
	}
	opp.Client, opp.Service, opp.AssignedUser = nil, nil, nil

	changed := opp.Status != previous
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewOpportunityRepository(tx).Update(ctx, opp); err != nil {
			return err
		}
		if changed && opp.Status == domain.OpportunityStatusWon {
			return s.markServiceUsed(ctx, tx, opp)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update opportunity: %w", err)
	}

	updated, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if changed {
		s.notifyStatusChange(ctx, updated, previous)
	}

	dto := mapper.ToOpportunityDTO(updated)
	return &dto, nil
}

// UpdateStatus moves an opportunity to any status. Entering won adds the
// service to the client when the service is active.
func (s *OpportunityService) UpdateStatus(ctx context.Context, id uint, status string) (*domain.OpportunityDTO, error) {
	next := domain.OpportunityStatus(strings.ToLower(strings.TrimSpace(status)))
	if !next.IsValid() {
		return nil, invalidInput("status must be one of: new, in_progress, qualified, proposal, negotiation, won, lost, on_hold")
	}

	opp, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := opp.Status
	if previous == next {
		dto := mapper.ToOpportunityDTO(opp)
		return &dto, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewOpportunityRepository(tx).UpdateStatus(ctx, id, next); err != nil {
			return err
		}
		if next == domain.OpportunityStatusWon {
			return s.markServiceUsed(ctx, tx, opp)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update opportunity status: %w", err)
	}

	s.logger.Info("opportunity status changed",
		zap.Uint("opportunityID", id),
		zap.String("from", string(previous)),
		zap.String("to", string(next)),
	)

	updated, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notifyStatusChange(ctx, updated, previous)

	dto := mapper.ToOpportunityDTO(updated)
	return &dto, nil
}

// Delete removes an opportunity together with its tasks
func (s *OpportunityService) Delete(ctx context.Context, id uint) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}

	var tasksDeleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if tasksDeleted, err = repository.NewTaskRepository(tx).DeleteByOpportunityIDs(ctx, []uint{id}); err != nil {
			return err
		}
		return repository.NewOpportunityRepository(tx).Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete opportunity: %w", err)
	}

	s.logger.Info("opportunity deleted",
		zap.Uint("opportunityID", id),
		zap.Int64("tasksDeleted", tasksDeleted),
	)
	return nil
}

func (s *OpportunityService) List(ctx context.Context, page, pageSize int, filters domain.OpportunityFilters) (*domain.PaginatedResponse, error) {
	if filters.Status != "" && !filters.Status.IsValid() {
		return nil, invalidInput("unknown opportunity status '%s'", filters.Status)
	}
	if filters.Priority != "" && !filters.Priority.IsValid() {
		return nil, invalidInput("unknown priority '%s'", filters.Priority)
	}
	page, pageSize = clampPagination(page, pageSize)

	opps, total, err := s.oppRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}

	dtos := make([]domain.OpportunityDTO, len(opps))
	for i := range opps {
		dtos[i] = mapper.ToOpportunityDTO(&opps[i])
	}
	return newPage(dtos, total, page, pageSize), nil
}

// ListAll returns every opportunity with display names
func (s *OpportunityService) ListAll(ctx context.Context) ([]domain.OpportunityDTO, error) {
	opps, err := s.oppRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}
	dtos := make([]domain.OpportunityDTO, len(opps))
	for i := range opps {
		dtos[i] = mapper.ToOpportunityDTO(&opps[i])
	}
	return dtos, nil
}

func (s *OpportunityService) get(ctx context.Context, id uint) (*domain.Opportunity, error) {
	opp, err := s.oppRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOpportunityNotFound
		}
		return nil, fmt.Errorf("failed to get opportunity: %w", err)
	}
	return opp, nil
}

// apply validates references and copies the request onto opp. An empty
// status keeps the current one.
func (s *OpportunityService) apply(ctx context.Context, opp *domain.Opportunity, req *domain.CreateOpportunityRequest) error {
	if req.Status != "" {
		status := domain.OpportunityStatus(strings.ToLower(string(req.Status)))
		if !status.IsValid() {
			return invalidInput("unknown opportunity status '%s'", req.Status)
		}
		opp.Status = status
	}

	priority := domain.OpportunityPriority(strings.ToLower(string(req.Priority)))
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.IsValid() {
		return invalidInput("priority must be one of: low, medium, high, critical")
	}

	if req.EstimatedValue.IsNegative() {
		return invalidInput("estimated_value must not be negative")
	}

	if _, err := s.clientRepo.GetByID(ctx, req.ClientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalidInput("client %d does not exist", req.ClientID)
		}
		return fmt.Errorf("failed to get client: %w", err)
	}
	if _, err := s.serviceRepo.GetByID(ctx, req.ServiceID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalidInput("service %d does not exist", req.ServiceID)
		}
		return fmt.Errorf("failed to get service: %w", err)
	}

	assignee, err := resolveAssignee(ctx, s.userRepo, req.AssignedUserID, opp.AssignedUserID)
	if err != nil {
		return err
	}

	dueDate := opp.DueDate
	if req.DueDate != "" || dueDate.IsZero() {
		if dueDate, err = parseDueDate(req.DueDate, s.now(), csvtransform.OpportunityDueDays); err != nil {
			return err
		}
	}

	opp.Name = strings.TrimSpace(req.Name)
	opp.ClientID = req.ClientID
	opp.ServiceID = req.ServiceID
	opp.AssignedUserID = assignee
	opp.Priority = priority
	opp.EstimatedValue = req.EstimatedValue
	opp.DueDate = dueDate
	opp.Notes = req.Notes
	return nil
}

// markServiceUsed adds the opportunity's service to the client's services_used
// when the service is active. Adding an already used service is a no-op.
func (s *OpportunityService) markServiceUsed(ctx context.Context, tx *gorm.DB, opp *domain.Opportunity) error {
	svc, err := repository.NewServiceRepository(tx).GetByID(ctx, opp.ServiceID)
	if err != nil {
		return fmt.Errorf("failed to get service: %w", err)
	}
	if svc.Status != domain.ServiceStatusActive {
		s.logger.Info("won opportunity for inactive service, services_used unchanged",
			zap.Uint("opportunityID", opp.ID),
			zap.Uint("serviceID", svc.ID),
		)
		return nil
	}

	clientRepo := repository.NewClientRepository(tx)
	client, err := clientRepo.GetByID(ctx, opp.ClientID)
	if err != nil {
		return fmt.Errorf("failed to get client: %w", err)
	}
	if !client.AddService(svc.ID) {
		return nil
	}
	return clientRepo.UpdateServicesUsed(ctx, client)
}

func (s *OpportunityService) notifyCreated(ctx context.Context, opp *domain.Opportunity) {
	clientName := ""
	if opp.Client != nil {
		clientName = opp.Client.Name
	}
	_, err := s.notifications.Notify(ctx, opp.AssignedUserID,
		domain.NotificationTypeNewOpportunity,
		"New opportunity",
		fmt.Sprintf("Opportunity '%s' for %s was assigned to you", opp.Name, clientName),
		domain.RelatedOpportunity, opp.ID,
	)
	if err != nil {
		s.logger.Warn("failed to send new opportunity notification",
			zap.Uint("opportunityID", opp.ID),
			zap.Error(err),
		)
	}
}

// notifyStatusChange tells the assignee and, when different, the client's
// account owner about the new status
func (s *OpportunityService) notifyStatusChange(ctx context.Context, opp *domain.Opportunity, previous domain.OpportunityStatus) {
	notificationType := domain.NotificationTypeOpportunityStatusChange
	title := "Opportunity status changed"
	message := fmt.Sprintf("Opportunity '%s' moved from %s to %s", opp.Name, previous, opp.Status)
	if opp.Status == domain.OpportunityStatusWon {
		notificationType = domain.NotificationTypeOpportunityWon
		title = "Opportunity won"
		message = fmt.Sprintf("Opportunity '%s' was won", opp.Name)
	}

	recipients := []uint{opp.AssignedUserID}
	if opp.Client != nil && opp.Client.AccountOwnerID != nil {
		recipients = append(recipients, *opp.Client.AccountOwnerID)
	}

	s.notifications.NotifyAll(ctx, recipients, notificationType, title, message, domain.RelatedOpportunity, opp.ID)
}

// resolveAssignee picks the requested user, then the current assignee, then
// the authenticated caller, and checks the user exists
func resolveAssignee(ctx context.Context, users *repository.UserRepository, requested, current uint) (uint, error) {
	id := requested
	if id == 0 {
		id = current
	}
	if id == 0 {
		if userCtx, ok := auth.FromContext(ctx); ok && !userCtx.System {
			id = userCtx.UserID
		}
	}
	if id == 0 {
		return 0, invalidInput("assigned_user_id is required")
	}

	if _, err := users.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, invalidInput("user %d does not exist", id)
		}
		return 0, fmt.Errorf("failed to get user: %w", err)
	}
	return id, nil
}
