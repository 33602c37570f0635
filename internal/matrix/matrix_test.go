package matrix_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/matrix"
	"github.com/xuri/excelize/v2"
)

var base = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func client(id uint, name string, servicesUsed ...uint) domain.Client {
	return domain.Client{BaseModel: domain.BaseModel{ID: id}, Name: name, ServicesUsed: servicesUsed}
}

func service(id uint, name string, status domain.ServiceStatus) domain.Service {
	return domain.Service{BaseModel: domain.BaseModel{ID: id}, Name: name, BusinessUnit: "Cloud", Status: status}
}

func opportunity(id, clientID, serviceID uint, status domain.OpportunityStatus, created time.Time) domain.Opportunity {
	return domain.Opportunity{
		BaseModel: domain.BaseModel{ID: id, CreatedAt: created},
		ClientID:  clientID,
		ServiceID: serviceID,
		Status:    status,
	}
}

func TestBuild_ActiveServiceAndOpportunity(t *testing.T) {
	clients := []domain.Client{client(1, "Acme", 2)}
	services := []domain.Service{
		service(2, "Hosting", domain.ServiceStatusActive),
		service(5, "Audit", domain.ServiceStatusActive),
		service(7, "Backup", domain.ServiceStatusActive),
	}
	opps := []domain.Opportunity{opportunity(40, 1, 5, domain.OpportunityStatusProposal, base)}

	m := matrix.Build(clients, services, opps)

	cell, ok := m.Cell(1, 2)
	require.True(t, ok)
	assert.Equal(t, "active", cell.Status)
	assert.Nil(t, cell.OpportunityID)

	cell, ok = m.Cell(1, 5)
	require.True(t, ok)
	assert.Equal(t, "proposal", cell.Status)
	require.NotNil(t, cell.OpportunityID)
	assert.Equal(t, uint(40), *cell.OpportunityID)

	_, ok = m.Cell(1, 7)
	assert.False(t, ok)
	assert.Len(t, m.Matrix[1], 2)
}

func TestBuild_ServicesUsedBeatsOpportunity(t *testing.T) {
	clients := []domain.Client{client(1, "Acme", 2)}
	services := []domain.Service{service(2, "Hosting", domain.ServiceStatusActive)}
	opps := []domain.Opportunity{opportunity(1, 1, 2, domain.OpportunityStatusNegotiation, base)}

	m := matrix.Build(clients, services, opps)

	cell, _ := m.Cell(1, 2)
	assert.Equal(t, "active", cell.Status)
	assert.Nil(t, cell.OpportunityID)
}

func TestBuild_OnlyActiveServicesAreColumns(t *testing.T) {
	clients := []domain.Client{client(1, "Acme")}
	services := []domain.Service{
		service(1, "Hosting", domain.ServiceStatusActive),
		service(2, "Legacy", domain.ServiceStatusDeprecated),
		service(3, "Paused", domain.ServiceStatusInactive),
	}
	opps := []domain.Opportunity{opportunity(9, 1, 2, domain.OpportunityStatusNew, base)}

	m := matrix.Build(clients, services, opps)

	require.Len(t, m.Services, 1)
	assert.Equal(t, uint(1), m.Services[0].ID)
	assert.Equal(t, "Cloud", m.Services[0].BusinessUnit)
	assert.Empty(t, m.Matrix[1])
}

func TestBuild_LostOpportunitiesLeaveCellBlank(t *testing.T) {
	clients := []domain.Client{client(1, "Acme")}
	services := []domain.Service{service(3, "Backup", domain.ServiceStatusActive)}

	m := matrix.Build(clients, services, []domain.Opportunity{
		opportunity(1, 1, 3, domain.OpportunityStatusLost, base.Add(time.Hour)),
	})
	_, ok := m.Cell(1, 3)
	assert.False(t, ok)

	// an older open opportunity still shows through a newer lost one
	m = matrix.Build(clients, services, []domain.Opportunity{
		opportunity(1, 1, 3, domain.OpportunityStatusLost, base.Add(time.Hour)),
		opportunity(2, 1, 3, domain.OpportunityStatusOnHold, base),
	})
	cell, ok := m.Cell(1, 3)
	require.True(t, ok)
	assert.Equal(t, "on_hold", cell.Status)
}

func TestBuild_NewestOpportunityWins(t *testing.T) {
	clients := []domain.Client{client(1, "Acme")}
	services := []domain.Service{service(3, "Backup", domain.ServiceStatusActive)}

	m := matrix.Build(clients, services, []domain.Opportunity{
		opportunity(10, 1, 3, domain.OpportunityStatusWon, base),
		opportunity(11, 1, 3, domain.OpportunityStatusQualified, base.Add(48*time.Hour)),
		opportunity(12, 1, 3, domain.OpportunityStatusNew, base.Add(24*time.Hour)),
	})
	cell, _ := m.Cell(1, 3)
	assert.Equal(t, uint(11), *cell.OpportunityID)

	// same timestamp falls back to the higher id
	m = matrix.Build(clients, services, []domain.Opportunity{
		opportunity(21, 1, 3, domain.OpportunityStatusNew, base),
		opportunity(20, 1, 3, domain.OpportunityStatusProposal, base),
	})
	cell, _ = m.Cell(1, 3)
	assert.Equal(t, uint(21), *cell.OpportunityID)
}

func TestBuild_ClientsSortedByName(t *testing.T) {
	m := matrix.Build([]domain.Client{client(1, "Zeta"), client(2, "Alpha")}, nil, nil)

	require.Len(t, m.Clients, 2)
	assert.Equal(t, "Alpha", m.Clients[0].Name)
	assert.Contains(t, m.Matrix, uint(1))
}

func TestApply(t *testing.T) {
	clients := []domain.Client{client(1, "Acme", 2)}
	services := []domain.Service{
		service(2, "Hosting", domain.ServiceStatusActive),
		service(3, "Backup", domain.ServiceStatusActive),
	}
	m := matrix.Build(clients, services, nil)

	m.Apply(opportunity(50, 1, 3, domain.OpportunityStatusNew, base))
	cell, ok := m.Cell(1, 3)
	require.True(t, ok)
	assert.Equal(t, "new", cell.Status)
	assert.Equal(t, uint(50), *cell.OpportunityID)

	m.Apply(opportunity(51, 1, 2, domain.OpportunityStatusNew, base))
	cell, _ = m.Cell(1, 2)
	assert.Equal(t, "active", cell.Status)

	// unknown client is ignored
	m.Apply(opportunity(52, 99, 3, domain.OpportunityStatusNew, base))
	assert.NotContains(t, m.Matrix, uint(99))
}

func TestWriteXLSX(t *testing.T) {
	clients := []domain.Client{client(1, "Acme", 2)}
	services := []domain.Service{
		service(2, "Hosting", domain.ServiceStatusActive),
		service(3, "Backup", domain.ServiceStatusActive),
	}
	opps := []domain.Opportunity{opportunity(7, 1, 3, domain.OpportunityStatusProposal, base)}

	var buf bytes.Buffer
	require.NoError(t, matrix.WriteXLSX(matrix.Build(clients, services, opps), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Cross-Sell Matrix")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Client", "Hosting (Cloud)", "Backup (Cloud)"}, rows[0])
	assert.Equal(t, []string{"Acme", "active", "proposal"}, rows[1])
}
