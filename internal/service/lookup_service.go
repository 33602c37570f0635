package service

import (
	"context"
	"fmt"

	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/repository"
)

// LookupService returns the id/name tables used to resolve display names
type LookupService struct {
	clientRepo  *repository.ClientRepository
	serviceRepo *repository.ServiceRepository
	oppRepo     *repository.OpportunityRepository
	userRepo    *repository.UserRepository
}

func NewLookupService(
	clientRepo *repository.ClientRepository,
	serviceRepo *repository.ServiceRepository,
	oppRepo *repository.OpportunityRepository,
	userRepo *repository.UserRepository,
) *LookupService {
	return &LookupService{
		clientRepo:  clientRepo,
		serviceRepo: serviceRepo,
		oppRepo:     oppRepo,
		userRepo:    userRepo,
	}
}

// Get loads all four lookup tables. Empty tables are returned as empty slices.
func (s *LookupService) Get(ctx context.Context) (*domain.Lookups, error) {
	clients, err := s.clientRepo.Lookup(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load client lookup: %w", err)
	}
	services, err := s.serviceRepo.Lookup(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load service lookup: %w", err)
	}
	opportunities, err := s.oppRepo.Lookup(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load opportunity lookup: %w", err)
	}
	users, err := s.userRepo.Lookup(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load user lookup: %w", err)
	}

	return &domain.Lookups{
		Clients:       nonNil(clients),
		Services:      nonNil(services),
		Opportunities: nonNil(opportunities),
		Users:         nonNil(users),
	}, nil
}

func nonNil(entries []domain.LookupEntry) []domain.LookupEntry {
	if entries == nil {
		return []domain.LookupEntry{}
	}
	return entries
}
