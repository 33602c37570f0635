// Package matrix builds the client by service cross-sell grid.
package matrix

import (
	"sort"

	"github.com/wondrlab/crosssell-api/internal/domain"
)

// CellStatusActive marks a service the client already uses
const CellStatusActive = "active"

// ClientColumn is a matrix row header
type ClientColumn struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// ServiceColumn is a matrix column header
type ServiceColumn struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	BusinessUnit string `json:"business_unit"`
}

// Cell is the state of one client/service pair. OpportunityID is nil for active services.
type Cell struct {
	Status        string `json:"status"`
	OpportunityID *uint  `json:"opportunity_id"`
}

// Matrix is the cross-sell grid. Absent cells are blank, i.e. a cross-sell candidate.
type Matrix struct {
	Clients  []ClientColumn         `json:"clients"`
	Services []ServiceColumn        `json:"services"`
	Matrix   map[uint]map[uint]Cell `json:"matrix"`
}

// Build computes the grid. Only active services become columns. For each pair
// a service in services_used wins, then the newest non-lost opportunity; ties
// on created_at go to the higher id.
func Build(clients []domain.Client, services []domain.Service, opportunities []domain.Opportunity) Matrix {
	m := Matrix{
		Clients:  make([]ClientColumn, 0, len(clients)),
		Services: make([]ServiceColumn, 0, len(services)),
		Matrix:   make(map[uint]map[uint]Cell, len(clients)),
	}

	columns := make(map[uint]bool, len(services))
	for _, s := range services {
		if s.Status != domain.ServiceStatusActive {
			continue
		}
		columns[s.ID] = true
		m.Services = append(m.Services, ServiceColumn{ID: s.ID, Name: s.Name, BusinessUnit: s.BusinessUnit})
	}

	type pair struct{ client, service uint }
	chosen := make(map[pair]domain.Opportunity)
	for _, o := range opportunities {
		if o.Status == domain.OpportunityStatusLost || !columns[o.ServiceID] {
			continue
		}
		key := pair{o.ClientID, o.ServiceID}
		current, exists := chosen[key]
		if !exists || newer(o, current) {
			chosen[key] = o
		}
	}

	for _, c := range clients {
		m.Clients = append(m.Clients, ClientColumn{ID: c.ID, Name: c.Name})
		row := make(map[uint]Cell)
		for _, s := range m.Services {
			if c.UsesService(s.ID) {
				row[s.ID] = Cell{Status: CellStatusActive}
				continue
			}
			if o, ok := chosen[pair{c.ID, s.ID}]; ok {
				id := o.ID
				row[s.ID] = Cell{Status: string(o.Status), OpportunityID: &id}
			}
		}
		m.Matrix[c.ID] = row
	}

	sort.SliceStable(m.Clients, func(i, j int) bool { return m.Clients[i].Name < m.Clients[j].Name })
	return m
}

func newer(a, b domain.Opportunity) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// Cell returns the cell for a pair and whether it is filled
func (m Matrix) Cell(clientID, serviceID uint) (Cell, bool) {
	row, ok := m.Matrix[clientID]
	if !ok {
		return Cell{}, false
	}
	cell, ok := row[serviceID]
	return cell, ok
}

// Apply updates the grid locally after an opportunity was created from a cell.
// Active cells are never overwritten and lost opportunities are ignored. The
// server view is authoritative on the next Build.
func (m *Matrix) Apply(o domain.Opportunity) {
	if o.Status == domain.OpportunityStatusLost {
		return
	}
	row, ok := m.Matrix[o.ClientID]
	if !ok {
		return
	}
	if current, filled := row[o.ServiceID]; filled && current.Status == CellStatusActive {
		return
	}
	id := o.ID
	row[o.ServiceID] = Cell{Status: string(o.Status), OpportunityID: &id}
}
