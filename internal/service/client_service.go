package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/mapper"
	"github.com/wondrlab/crosssell-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ClientService manages client accounts and the services they already use
type ClientService struct {
	db            *gorm.DB
	clientRepo    *repository.ClientRepository
	serviceRepo   *repository.ServiceRepository
	oppRepo       *repository.OpportunityRepository
	userRepo      *repository.UserRepository
	notifications *NotificationService
	logger        *zap.Logger
}

func NewClientService(
	db *gorm.DB,
	clientRepo *repository.ClientRepository,
	serviceRepo *repository.ServiceRepository,
	oppRepo *repository.OpportunityRepository,
	userRepo *repository.UserRepository,
	notifications *NotificationService,
	logger *zap.Logger,
) *ClientService {
	return &ClientService{
		db:            db,
		clientRepo:    clientRepo,
		serviceRepo:   serviceRepo,
		oppRepo:       oppRepo,
		userRepo:      userRepo,
		notifications: notifications,
		logger:        logger,
	}
}

func (s *ClientService) Create(ctx context.Context, req *domain.CreateClientRequest) (*domain.ClientDTO, error) {
	client := &domain.Client{}
	if err := s.apply(ctx, client, req); err != nil {
		return nil, err
	}

	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	s.logger.Info("client created",
		zap.Uint("clientID", client.ID),
		zap.String("name", client.Name),
	)

	if client.AccountOwnerID != nil {
		_, err := s.notifications.Notify(ctx, *client.AccountOwnerID,
			domain.NotificationTypeNewClient,
			"New client",
			fmt.Sprintf("You are now the account owner of '%s'", client.Name),
			domain.RelatedClient, client.ID,
		)
		if err != nil {
			s.logger.Warn("failed to send new client notification",
				zap.Uint("clientID", client.ID),
				zap.Error(err),
			)
		}
	}

	return s.GetByID(ctx, client.ID)
}

func (s *ClientService) GetByID(ctx context.Context, id uint) (*domain.ClientDTO, error) {
	client, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToClientDTO(client)
	return &dto, nil
}

func (s *ClientService) Update(ctx context.Context, id uint, req *domain.UpdateClientRequest) (*domain.ClientDTO, error) {
	client, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, client, req); err != nil {
		return nil, err
	}

	client.AccountOwner = nil
	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}

	return s.GetByID(ctx, client.ID)
}

func (s *ClientService) UpdateStatus(ctx context.Context, id uint, status string) (*domain.ClientDTO, error) {
	next := domain.ClientStatus(strings.ToLower(strings.TrimSpace(status)))
	if !next.IsValid() {
		return nil, invalidInput("status must be one of: active, inactive, prospect")
	}

	client, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	client.Status = next
	client.AccountOwner = nil
	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to update client status: %w", err)
	}

	return s.GetByID(ctx, client.ID)
}

// Delete removes a client. Without force a client with opportunities is kept
// and the count is reported; with force its opportunities and their tasks go too.
func (s *ClientService) Delete(ctx context.Context, id uint, force bool) (*domain.DeleteResult, error) {
	client, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := s.oppRepo.CountByClient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count opportunities: %w", err)
	}
	if count > 0 && !force {
		return &domain.DeleteResult{
			Success:          false,
			Message:          fmt.Sprintf("Client '%s' has %d opportunity(ies)", client.Name, count),
			HasOpportunities: true,
			OpportunityCount: count,
		}, nil
	}

	var tasksDeleted, oppsDeleted int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		oppRepo := repository.NewOpportunityRepository(tx)
		ids, err := oppRepo.IDsByClient(ctx, id)
		if err != nil {
			return err
		}
		if tasksDeleted, err = repository.NewTaskRepository(tx).DeleteByOpportunityIDs(ctx, ids); err != nil {
			return err
		}
		if oppsDeleted, err = oppRepo.DeleteByIDs(ctx, ids); err != nil {
			return err
		}
		return repository.NewClientRepository(tx).Delete(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete client: %w", err)
	}

	s.logger.Info("client deleted",
		zap.Uint("clientID", id),
		zap.Int64("opportunitiesDeleted", oppsDeleted),
		zap.Int64("tasksDeleted", tasksDeleted),
	)
	return &domain.DeleteResult{Success: true, Message: "Client deleted"}, nil
}

func (s *ClientService) List(ctx context.Context, page, pageSize int, filters domain.ClientFilters) (*domain.PaginatedResponse, error) {
	if filters.Status != "" && !filters.Status.IsValid() {
		return nil, invalidInput("status must be one of: active, inactive, prospect")
	}
	page, pageSize = clampPagination(page, pageSize)

	clients, total, err := s.clientRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	dtos := make([]domain.ClientDTO, len(clients))
	for i := range clients {
		dtos[i] = mapper.ToClientDTO(&clients[i])
	}
	return newPage(dtos, total, page, pageSize), nil
}

// ListAll returns every client ordered by name
func (s *ClientService) ListAll(ctx context.Context) ([]domain.ClientDTO, error) {
	clients, err := s.clientRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	dtos := make([]domain.ClientDTO, len(clients))
	for i := range clients {
		dtos[i] = mapper.ToClientDTO(&clients[i])
	}
	return dtos, nil
}

func (s *ClientService) get(ctx context.Context, id uint) (*domain.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return client, nil
}

// apply validates the request and copies it onto client
func (s *ClientService) apply(ctx context.Context, client *domain.Client, req *domain.CreateClientRequest) error {
	status := domain.ClientStatus(strings.ToLower(string(req.Status)))
	if status == "" {
		status = domain.ClientStatusProspect
	}
	if !status.IsValid() {
		return invalidInput("status must be one of: active, inactive, prospect")
	}

	name := strings.TrimSpace(req.Name)
	existing, err := s.clientRepo.GetByName(ctx, name)
	if err == nil && existing.ID != client.ID {
		return fmt.Errorf("%w: client '%s' already exists", ErrConflict, name)
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check client name: %w", err)
	}

	if req.AccountOwnerID != nil {
		if _, err := s.userRepo.GetByID(ctx, *req.AccountOwnerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invalidInput("account owner %d does not exist", *req.AccountOwnerID)
			}
			return fmt.Errorf("failed to get account owner: %w", err)
		}
	}

	servicesUsed, err := s.activeServiceIDs(ctx, req.ServicesUsed)
	if err != nil {
		return err
	}

	client.Name = name
	client.Industry = strings.TrimSpace(req.Industry)
	client.ContactName = req.ContactName
	client.ContactEmail = req.ContactEmail
	client.ContactPhone = req.ContactPhone
	client.Address = req.Address
	client.AccountOwnerID = req.AccountOwnerID
	client.ServicesUsed = servicesUsed
	client.CRMLink = req.CRMLink
	client.Notes = req.Notes
	client.Status = status
	return nil
}

// activeServiceIDs dedupes ids and checks each one is an active service
func (s *ClientService) activeServiceIDs(ctx context.Context, ids []uint) ([]uint, error) {
	result := make([]uint, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		svc, err := s.serviceRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, invalidInput("service %d in services_used does not exist", id)
			}
			return nil, fmt.Errorf("failed to get service: %w", err)
		}
		if svc.Status != domain.ServiceStatusActive {
			return nil, invalidInput("service '%s' in services_used is not active", svc.Name)
		}
		result = append(result, id)
	}
	return result, nil
}
