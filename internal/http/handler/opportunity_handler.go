package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/service"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type OpportunityHandler struct {
	opportunityService *service.OpportunityService
	matrixService      *service.MatrixService
	logger             *zap.Logger
}

func NewOpportunityHandler(
	opportunityService *service.OpportunityService,
	matrixService *service.MatrixService,
	logger *zap.Logger,
) *OpportunityHandler {
	return &OpportunityHandler{
		opportunityService: opportunityService,
		matrixService:      matrixService,
		logger:             logger,
	}
}

// List godoc
// @Summary List opportunities
// @Tags Opportunities
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param clientId query int false "Client ID"
// @Param serviceId query int false "Service ID"
// @Param assignedUserId query int false "Assigned user ID"
// @Param status query string false "Status" Enums(new, in_progress, qualified, proposal, negotiation, won, lost, on_hold)
// @Param priority query string false "Priority" Enums(low, medium, high, critical)
// @Success 200 {object} domain.APIResponse{data=[]domain.OpportunityDTO,meta=domain.PageMeta}
// @Failure 400 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /opportunities [get]
func (h *OpportunityHandler) List(w http.ResponseWriter, r *http.Request) {
	clientID, ok := optionalUint(w, r, "clientId")
	if !ok {
		return
	}
	serviceID, ok := optionalUint(w, r, "serviceId")
	if !ok {
		return
	}
	assignedUserID, ok := optionalUint(w, r, "assignedUserId")
	if !ok {
		return
	}
	q := r.URL.Query()
	filters := domain.OpportunityFilters{
		ClientID:       clientID,
		ServiceID:      serviceID,
		AssignedUserID: assignedUserID,
		Status:         domain.OpportunityStatus(q.Get("status")),
		Priority:       domain.OpportunityPriority(q.Get("priority")),
	}

	page, pageSize := pagination(r)
	result, err := h.opportunityService.List(r.Context(), page, pageSize, filters)
	if err != nil {
		respondError(w, h.logger, err, "list opportunities")
		return
	}
	respondPage(w, result)
}

// Create godoc
// @Summary Create opportunity
// @Description The assigned user is notified. Creating with status won adds the service to the client's services_used.
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param request body domain.CreateOpportunityRequest true "Opportunity"
// @Success 201 {object} domain.APIResponse{data=domain.OpportunityDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /opportunities [post]
func (h *OpportunityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOpportunityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	opp, err := h.opportunityService.Create(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err, "create opportunity")
		return
	}
	w.Header().Set("Location", "/api/v1/opportunities/"+strconv.FormatUint(uint64(opp.ID), 10))
	respondData(w, http.StatusCreated, opp)
}

// GetByID godoc
// @Summary Get opportunity
// @Tags Opportunities
// @Produce json
// @Param id path int true "Opportunity ID"
// @Success 200 {object} domain.APIResponse{data=domain.OpportunityDTO}
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /opportunities/{id} [get]
func (h *OpportunityHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "opportunity")
	if !ok {
		return
	}
	opp, err := h.opportunityService.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err, "get opportunity")
		return
	}
	respondData(w, http.StatusOK, opp)
}

// Update godoc
// @Summary Update opportunity
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param id path int true "Opportunity ID"
// @Param request body domain.UpdateOpportunityRequest true "Opportunity"
// @Success 200 {object} domain.APIResponse{data=domain.OpportunityDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /opportunities/{id} [put]
func (h *OpportunityHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "opportunity")
	if !ok {
		return
	}
	var req domain.UpdateOpportunityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	opp, err := h.opportunityService.Update(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, err, "update opportunity")
		return
	}
	respondData(w, http.StatusOK, opp)
}

// UpdateStatus godoc
// @Summary Change opportunity status
// @Description Notifies the assigned user. Moving to won marks the service as used by the client.
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param id path int true "Opportunity ID"
// @Param request body domain.UpdateStatusRequest true "Status"
// @Success 200 {object} domain.APIResponse{data=domain.OpportunityDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /opportunities/{id}/status [patch]
func (h *OpportunityHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "opportunity")
	if !ok {
		return
	}
	status, ok := decodeStatus(w, r)
	if !ok {
		return
	}
	opp, err := h.opportunityService.UpdateStatus(r.Context(), id, status)
	if err != nil {
		respondError(w, h.logger, err, "update opportunity status")
		return
	}
	respondData(w, http.StatusOK, opp)
}

// Delete godoc
// @Summary Delete opportunity
// @Description Tasks of the opportunity are deleted with it
// @Tags Opportunities
// @Param id path int true "Opportunity ID"
// @Success 204
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /opportunities/{id} [delete]
func (h *OpportunityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "opportunity")
	if !ok {
		return
	}
	if err := h.opportunityService.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, err, "delete opportunity")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Matrix godoc
// @Summary Cross-sell matrix
// @Description Clients by active services. A cell is "active" when the client uses the service, otherwise the status of its newest open opportunity. Missing cells are cross-sell candidates.
// @Tags Opportunities
// @Produce json
// @Success 200 {object} domain.APIResponse{data=matrix.Matrix}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /opportunities/matrix [get]
func (h *OpportunityHandler) Matrix(w http.ResponseWriter, r *http.Request) {
	m, err := h.matrixService.Get(r.Context())
	if err != nil {
		respondError(w, h.logger, err, "build matrix")
		return
	}
	respondData(w, http.StatusOK, m)
}

// CreateFromCell godoc
// @Summary Create opportunity from matrix cell
// @Description Fails with 409 when the client already uses the service
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param request body domain.CreateFromCellRequest true "Cell"
// @Success 201 {object} domain.APIResponse{data=service.CellResult}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Failure 409 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /opportunities/matrix [post]
func (h *OpportunityHandler) CreateFromCell(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateFromCellRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.matrixService.CreateFromCell(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err, "create opportunity from matrix")
		return
	}
	respondData(w, http.StatusCreated, result)
}

// ExportMatrix godoc
// @Summary Export matrix as XLSX
// @Tags Opportunities
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /opportunities/matrix/export [get]
func (h *OpportunityHandler) ExportMatrix(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.matrixService.ExportXLSX(r.Context(), &buf); err != nil {
		respondError(w, h.logger, err, "export matrix")
		return
	}
	filename := fmt.Sprintf("crosssell_matrix_%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
