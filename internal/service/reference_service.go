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

// BusinessUnitService manages business units. Services reference a unit by name.
type BusinessUnitService struct {
	db          *gorm.DB
	unitRepo    *repository.BusinessUnitRepository
	serviceRepo *repository.ServiceRepository
	logger      *zap.Logger
}

func NewBusinessUnitService(
	db *gorm.DB,
	unitRepo *repository.BusinessUnitRepository,
	serviceRepo *repository.ServiceRepository,
	logger *zap.Logger,
) *BusinessUnitService {
	return &BusinessUnitService{
		db:          db,
		unitRepo:    unitRepo,
		serviceRepo: serviceRepo,
		logger:      logger,
	}
}

func (s *BusinessUnitService) Create(ctx context.Context, req *domain.CreateBusinessUnitRequest) (*domain.BusinessUnitDTO, error) {
	status, err := recordStatus(req.Status)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if err := s.ensureUniqueName(ctx, 0, name); err != nil {
		return nil, err
	}

	unit := &domain.BusinessUnit{
		Name:        name,
		Description: req.Description,
		Status:      status,
	}
	if err := s.unitRepo.Create(ctx, unit); err != nil {
		return nil, fmt.Errorf("failed to create business unit: %w", err)
	}

	return s.toDTO(ctx, unit)
}

func (s *BusinessUnitService) GetByID(ctx context.Context, id uint) (*domain.BusinessUnitDTO, error) {
	unit, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, unit)
}

// Update changes a unit. A rename is carried over to every service of the unit.
func (s *BusinessUnitService) Update(ctx context.Context, id uint, req *domain.UpdateBusinessUnitRequest) (*domain.BusinessUnitDTO, error) {
	status, err := recordStatus(req.Status)
	if err != nil {
		return nil, err
	}
	unit, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if err := s.ensureUniqueName(ctx, unit.ID, name); err != nil {
		return nil, err
	}

	previous := unit.Name
	unit.Name = name
	unit.Description = req.Description
	unit.Status = status

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewBusinessUnitRepository(tx).Update(ctx, unit); err != nil {
			return err
		}
		if previous != name {
			return repository.NewServiceRepository(tx).RenameBusinessUnit(ctx, previous, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update business unit: %w", err)
	}

	return s.toDTO(ctx, unit)
}

func (s *BusinessUnitService) UpdateStatus(ctx context.Context, id uint, status string) (*domain.BusinessUnitDTO, error) {
	next := domain.RecordStatus(strings.ToLower(strings.TrimSpace(status)))
	if !next.IsValid() {
		return nil, invalidInput("status must be one of: active, inactive")
	}
	unit, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	unit.Status = next
	if err := s.unitRepo.Update(ctx, unit); err != nil {
		return nil, fmt.Errorf("failed to update business unit status: %w", err)
	}
	return s.toDTO(ctx, unit)
}

// Delete removes a unit. Without force a unit still named by services is kept
// and the counts are reported; with force those services lose their unit.
func (s *BusinessUnitService) Delete(ctx context.Context, id uint, force bool) (*domain.DeleteResult, error) {
	unit, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := s.serviceRepo.CountByBusinessUnit(ctx, unit.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to count services: %w", err)
	}
	if count > 0 && !force {
		return &domain.DeleteResult{
			Success:      false,
			Message:      fmt.Sprintf("Business unit '%s' is used by %d service(s)", unit.Name, count),
			HasServices:  true,
			ServiceCount: count,
		}, nil
	}

	var cleared int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if cleared, err = repository.NewServiceRepository(tx).ClearBusinessUnit(ctx, unit.Name); err != nil {
			return err
		}
		return repository.NewBusinessUnitRepository(tx).Delete(ctx, unit.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete business unit: %w", err)
	}

	s.logger.Info("business unit deleted",
		zap.Uint("businessUnitID", unit.ID),
		zap.String("name", unit.Name),
		zap.Int64("servicesCleared", cleared),
	)
	return &domain.DeleteResult{Success: true, Message: "Business unit deleted"}, nil
}

func (s *BusinessUnitService) List(ctx context.Context, status string) ([]domain.BusinessUnitDTO, error) {
	filter := domain.RecordStatus(status)
	if filter != "" && !filter.IsValid() {
		return nil, invalidInput("status must be one of: active, inactive")
	}
	units, err := s.unitRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list business units: %w", err)
	}

	dtos := make([]domain.BusinessUnitDTO, 0, len(units))
	for i := range units {
		dto, err := s.toDTO(ctx, &units[i])
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, *dto)
	}
	return dtos, nil
}

func (s *BusinessUnitService) get(ctx context.Context, id uint) (*domain.BusinessUnit, error) {
	unit, err := s.unitRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessUnitNotFound
		}
		return nil, fmt.Errorf("failed to get business unit: %w", err)
	}
	return unit, nil
}

func (s *BusinessUnitService) ensureUniqueName(ctx context.Context, selfID uint, name string) error {
	existing, err := s.unitRepo.GetByName(ctx, name)
	if err == nil && existing.ID != selfID {
		return fmt.Errorf("%w: business unit '%s' already exists", ErrConflict, name)
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check business unit name: %w", err)
	}
	return nil
}

func (s *BusinessUnitService) toDTO(ctx context.Context, unit *domain.BusinessUnit) (*domain.BusinessUnitDTO, error) {
	count, err := s.serviceRepo.CountByBusinessUnit(ctx, unit.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to count services: %w", err)
	}
	dto := mapper.ToBusinessUnitDTO(unit, count)
	return &dto, nil
}

// IndustryService manages the industry reference list
type IndustryService struct {
	industryRepo *repository.IndustryRepository
	logger       *zap.Logger
}

func NewIndustryService(industryRepo *repository.IndustryRepository, logger *zap.Logger) *IndustryService {
	return &IndustryService{
		industryRepo: industryRepo,
		logger:       logger,
	}
}

func (s *IndustryService) Create(ctx context.Context, req *domain.CreateIndustryRequest) (*domain.IndustryDTO, error) {
	status, err := recordStatus(req.Status)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if err := s.ensureUniqueName(ctx, 0, name); err != nil {
		return nil, err
	}

	industry := &domain.Industry{
		Name:        name,
		Description: req.Description,
		Status:      status,
	}
	if err := s.industryRepo.Create(ctx, industry); err != nil {
		return nil, fmt.Errorf("failed to create industry: %w", err)
	}

	dto := mapper.ToIndustryDTO(industry)
	return &dto, nil
}

func (s *IndustryService) GetByID(ctx context.Context, id uint) (*domain.IndustryDTO, error) {
	industry, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToIndustryDTO(industry)
	return &dto, nil
}

func (s *IndustryService) Update(ctx context.Context, id uint, req *domain.UpdateIndustryRequest) (*domain.IndustryDTO, error) {
	status, err := recordStatus(req.Status)
	if err != nil {
		return nil, err
	}
	industry, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if err := s.ensureUniqueName(ctx, industry.ID, name); err != nil {
		return nil, err
	}

	industry.Name = name
	industry.Description = req.Description
	industry.Status = status
	if err := s.industryRepo.Update(ctx, industry); err != nil {
		return nil, fmt.Errorf("failed to update industry: %w", err)
	}

	dto := mapper.ToIndustryDTO(industry)
	return &dto, nil
}

func (s *IndustryService) UpdateStatus(ctx context.Context, id uint, status string) (*domain.IndustryDTO, error) {
	next := domain.RecordStatus(strings.ToLower(strings.TrimSpace(status)))
	if !next.IsValid() {
		return nil, invalidInput("status must be one of: active, inactive")
	}
	industry, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	industry.Status = next
	if err := s.industryRepo.Update(ctx, industry); err != nil {
		return nil, fmt.Errorf("failed to update industry status: %w", err)
	}
	dto := mapper.ToIndustryDTO(industry)
	return &dto, nil
}

// Delete removes an industry. Client industry is free text so nothing depends on it.
func (s *IndustryService) Delete(ctx context.Context, id uint) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if err := s.industryRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete industry: %w", err)
	}
	return nil
}

func (s *IndustryService) List(ctx context.Context, status string) ([]domain.IndustryDTO, error) {
	filter := domain.RecordStatus(status)
	if filter != "" && !filter.IsValid() {
		return nil, invalidInput("status must be one of: active, inactive")
	}
	industries, err := s.industryRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list industries: %w", err)
	}
	dtos := make([]domain.IndustryDTO, len(industries))
	for i := range industries {
		dtos[i] = mapper.ToIndustryDTO(&industries[i])
	}
	return dtos, nil
}

func (s *IndustryService) get(ctx context.Context, id uint) (*domain.Industry, error) {
	industry, err := s.industryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIndustryNotFound
		}
		return nil, fmt.Errorf("failed to get industry: %w", err)
	}
	return industry, nil
}

func (s *IndustryService) ensureUniqueName(ctx context.Context, selfID uint, name string) error {
	existing, err := s.industryRepo.GetByName(ctx, name)
	if err == nil && existing.ID != selfID {
		return fmt.Errorf("%w: industry '%s' already exists", ErrConflict, name)
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check industry name: %w", err)
	}
	return nil
}

func recordStatus(status domain.RecordStatus) (domain.RecordStatus, error) {
	if status == "" {
		return domain.RecordStatusActive, nil
	}
	status = domain.RecordStatus(strings.ToLower(string(status)))
	if !status.IsValid() {
		return "", invalidInput("status must be one of: active, inactive")
	}
	return status, nil
}
