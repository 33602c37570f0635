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

// CatalogService manages the service catalog
type CatalogService struct {
	db          *gorm.DB
	serviceRepo *repository.ServiceRepository
	unitRepo    *repository.BusinessUnitRepository
	clientRepo  *repository.ClientRepository
	oppRepo     *repository.OpportunityRepository
	logger      *zap.Logger
}

func NewCatalogService(
	db *gorm.DB,
	serviceRepo *repository.ServiceRepository,
	unitRepo *repository.BusinessUnitRepository,
	clientRepo *repository.ClientRepository,
	oppRepo *repository.OpportunityRepository,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{
		db:          db,
		serviceRepo: serviceRepo,
		unitRepo:    unitRepo,
		clientRepo:  clientRepo,
		oppRepo:     oppRepo,
		logger:      logger,
	}
}

func (s *CatalogService) Create(ctx context.Context, req *domain.CreateServiceRequest) (*domain.ServiceDTO, error) {
	svc := &domain.Service{}
	if err := s.apply(ctx, svc, req); err != nil {
		return nil, err
	}

	if err := s.serviceRepo.Create(ctx, svc); err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	s.logger.Info("service created",
		zap.Uint("serviceID", svc.ID),
		zap.String("name", svc.Name),
		zap.String("businessUnit", svc.BusinessUnit),
	)

	dto := mapper.ToServiceDTO(svc)
	return &dto, nil
}

func (s *CatalogService) GetByID(ctx context.Context, id uint) (*domain.ServiceDTO, error) {
	svc, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToServiceDTO(svc)
	return &dto, nil
}

func (s *CatalogService) Update(ctx context.Context, id uint, req *domain.UpdateServiceRequest) (*domain.ServiceDTO, error) {
	svc, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, svc, req); err != nil {
		return nil, err
	}

	if err := s.serviceRepo.Update(ctx, svc); err != nil {
		return nil, fmt.Errorf("failed to update service: %w", err)
	}

	dto := mapper.ToServiceDTO(svc)
	return &dto, nil
}

func (s *CatalogService) UpdateStatus(ctx context.Context, id uint, status string) (*domain.ServiceDTO, error) {
	next := domain.ServiceStatus(strings.ToLower(strings.TrimSpace(status)))
	if !next.IsValid() {
		return nil, invalidInput("status must be one of: active, inactive, deprecated")
	}

	svc, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	svc.Status = next
	if err := s.serviceRepo.Update(ctx, svc); err != nil {
		return nil, fmt.Errorf("failed to update service status: %w", err)
	}

	dto := mapper.ToServiceDTO(svc)
	return &dto, nil
}

// Delete removes a service. Dependents are opportunities for the service and
// clients listing it in services_used. Without force they block the delete;
// with force the opportunities and their tasks are deleted and the id is
// removed from every client.
func (s *CatalogService) Delete(ctx context.Context, id uint, force bool) (*domain.DeleteResult, error) {
	svc, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	oppCount, err := s.oppRepo.CountByService(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count opportunities: %w", err)
	}
	clients, err := s.clientRepo.ListUsingService(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients using service: %w", err)
	}
	clientCount := int64(len(clients))

	if (oppCount > 0 || clientCount > 0) && !force {
		return &domain.DeleteResult{
			Success:          false,
			Message:          fmt.Sprintf("Service '%s' has %d opportunity(ies) and is used by %d client(s)", svc.Name, oppCount, clientCount),
			HasOpportunities: oppCount > 0,
			OpportunityCount: oppCount,
			HasClients:       clientCount > 0,
			ClientCount:      clientCount,
		}, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		oppRepo := repository.NewOpportunityRepository(tx)
		ids, err := oppRepo.IDsByService(ctx, id)
		if err != nil {
			return err
		}
		if _, err := repository.NewTaskRepository(tx).DeleteByOpportunityIDs(ctx, ids); err != nil {
			return err
		}
		if _, err := oppRepo.DeleteByIDs(ctx, ids); err != nil {
			return err
		}

		clientRepo := repository.NewClientRepository(tx)
		for i := range clients {
			clients[i].RemoveService(id)
			if err := clientRepo.UpdateServicesUsed(ctx, &clients[i]); err != nil {
				return err
			}
		}
		return repository.NewServiceRepository(tx).Delete(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete service: %w", err)
	}

	s.logger.Info("service deleted",
		zap.Uint("serviceID", id),
		zap.Int64("opportunitiesDeleted", oppCount),
		zap.Int64("clientsUpdated", clientCount),
	)
	return &domain.DeleteResult{Success: true, Message: "Service deleted"}, nil
}

func (s *CatalogService) List(ctx context.Context, page, pageSize int, filters domain.ServiceFilters) (*domain.PaginatedResponse, error) {
	if filters.Status != "" && !filters.Status.IsValid() {
		return nil, invalidInput("status must be one of: active, inactive, deprecated")
	}
	page, pageSize = clampPagination(page, pageSize)

	services, total, err := s.serviceRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}

	dtos := make([]domain.ServiceDTO, len(services))
	for i := range services {
		dtos[i] = mapper.ToServiceDTO(&services[i])
	}
	return newPage(dtos, total, page, pageSize), nil
}

// ListAll returns every service ordered by business unit and name
func (s *CatalogService) ListAll(ctx context.Context) ([]domain.ServiceDTO, error) {
	services, err := s.serviceRepo.ListAll(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	dtos := make([]domain.ServiceDTO, len(services))
	for i := range services {
		dtos[i] = mapper.ToServiceDTO(&services[i])
	}
	return dtos, nil
}

func (s *CatalogService) get(ctx context.Context, id uint) (*domain.Service, error) {
	svc, err := s.serviceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return svc, nil
}

func (s *CatalogService) apply(ctx context.Context, svc *domain.Service, req *domain.CreateServiceRequest) error {
	status := domain.ServiceStatus(strings.ToLower(string(req.Status)))
	if status == "" {
		status = domain.ServiceStatusActive
	}
	if !status.IsValid() {
		return invalidInput("status must be one of: active, inactive, deprecated")
	}

	name := strings.TrimSpace(req.Name)
	businessUnit := strings.TrimSpace(req.BusinessUnit)
	if businessUnit == "" {
		return invalidInput("business_unit is required")
	}

	// prefer the registered spelling of the unit name
	if unit, err := s.unitRepo.GetByName(ctx, businessUnit); err == nil {
		businessUnit = unit.Name
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to get business unit: %w", err)
	}

	existing, err := s.serviceRepo.GetByNameAndUnit(ctx, name, businessUnit)
	if err == nil && existing.ID != svc.ID {
		return fmt.Errorf("%w: service '%s' already exists in business unit '%s'", ErrConflict, name, businessUnit)
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check service name: %w", err)
	}

	industries := make([]string, 0, len(req.ApplicableIndustries))
	for _, industry := range req.ApplicableIndustries {
		if industry = strings.TrimSpace(industry); industry != "" {
			industries = append(industries, industry)
		}
	}

	svc.Name = name
	svc.Description = req.Description
	svc.BusinessUnit = businessUnit
	svc.PricingModel = req.PricingModel
	svc.PricingDetails = req.PricingDetails
	svc.ApplicableIndustries = industries
	svc.ClientRole = req.ClientRole
	svc.Status = status
	return nil
}
