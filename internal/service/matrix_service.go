package service

import (
	"context"
	"fmt"
	"io"

	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/matrix"
	"github.com/wondrlab/crosssell-api/internal/repository"
	"go.uber.org/zap"
)

// MatrixService serves the client by service grid. It is rebuilt on every call.
type MatrixService struct {
	clientRepo    *repository.ClientRepository
	serviceRepo   *repository.ServiceRepository
	oppRepo       *repository.OpportunityRepository
	opportunities *OpportunityService
	logger        *zap.Logger
}

func NewMatrixService(
	clientRepo *repository.ClientRepository,
	serviceRepo *repository.ServiceRepository,
	oppRepo *repository.OpportunityRepository,
	opportunities *OpportunityService,
	logger *zap.Logger,
) *MatrixService {
	return &MatrixService{
		clientRepo:    clientRepo,
		serviceRepo:   serviceRepo,
		oppRepo:       oppRepo,
		opportunities: opportunities,
		logger:        logger,
	}
}

// CellResult is returned after creating an opportunity from a matrix cell
type CellResult struct {
	ClientID    uint                  `json:"client_id"`
	ServiceID   uint                  `json:"service_id"`
	Cell        matrix.Cell           `json:"cell"`
	Opportunity domain.OpportunityDTO `json:"opportunity"`
}

func (s *MatrixService) Get(ctx context.Context) (*matrix.Matrix, error) {
	clients, err := s.clientRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	services, err := s.serviceRepo.ListAll(ctx, domain.ServiceStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	opps, err := s.oppRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}

	m := matrix.Build(clients, services, opps)
	return &m, nil
}

// CreateFromCell opens an opportunity for a (client, service) pair the client
// does not use yet. Name defaults to "<service> for <client>".
func (s *MatrixService) CreateFromCell(ctx context.Context, req *domain.CreateFromCellRequest) (*CellResult, error) {
	client, err := s.clientRepo.GetByID(ctx, req.ClientID)
	if err != nil {
		return nil, notFoundOr(err, ErrClientNotFound, "client")
	}
	svc, err := s.serviceRepo.GetByID(ctx, req.ServiceID)
	if err != nil {
		return nil, notFoundOr(err, ErrServiceNotFound, "service")
	}
	if client.UsesService(svc.ID) {
		return nil, ErrCellOccupied
	}

	name := req.Name
	if name == "" {
		name = fmt.Sprintf("%s for %s", svc.Name, client.Name)
	}

	dto, err := s.opportunities.Create(ctx, &domain.CreateOpportunityRequest{
		Name:           name,
		ClientID:       client.ID,
		ServiceID:      svc.ID,
		AssignedUserID: req.AssignedUserID,
		Priority:       req.Priority,
		EstimatedValue: req.EstimatedValue,
		DueDate:        req.DueDate,
		Notes:          req.Notes,
	})
	if err != nil {
		return nil, err
	}

	id := dto.ID
	return &CellResult{
		ClientID:    client.ID,
		ServiceID:   svc.ID,
		Cell:        matrix.Cell{Status: string(dto.Status), OpportunityID: &id},
		Opportunity: *dto,
	}, nil
}

// ExportXLSX writes the current grid as a workbook
func (s *MatrixService) ExportXLSX(ctx context.Context, w io.Writer) error {
	m, err := s.Get(ctx)
	if err != nil {
		return err
	}
	if err := matrix.WriteXLSX(*m, w); err != nil {
		return fmt.Errorf("failed to render matrix: %w", err)
	}
	return nil
}
