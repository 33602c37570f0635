package handler

import (
	"net/http"
	"strconv"

	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/service"
	"go.uber.org/zap"
)

// CatalogHandler serves the service catalog under /services
type CatalogHandler struct {
	catalogService *service.CatalogService
	logger         *zap.Logger
}

func NewCatalogHandler(catalogService *service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// List godoc
// @Summary List services
// @Tags Services
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param search query string false "Matches name or description"
// @Param status query string false "Service status" Enums(active, inactive, deprecated)
// @Param businessUnit query string false "Business unit name"
// @Success 200 {object} domain.APIResponse{data=[]domain.ServiceDTO,meta=domain.PageMeta}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /services [get]
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := domain.ServiceFilters{
		Search:       q.Get("search"),
		Status:       domain.ServiceStatus(q.Get("status")),
		BusinessUnit: q.Get("businessUnit"),
	}
	page, pageSize := pagination(r)
	result, err := h.catalogService.List(r.Context(), page, pageSize, filters)
	if err != nil {
		respondError(w, h.logger, err, "list services")
		return
	}
	respondPage(w, result)
}

// Create godoc
// @Summary Create service
// @Tags Services
// @Accept json
// @Produce json
// @Param request body domain.CreateServiceRequest true "Service"
// @Success 201 {object} domain.APIResponse{data=domain.ServiceDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 409 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /services [post]
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateServiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	svc, err := h.catalogService.Create(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err, "create service")
		return
	}
	w.Header().Set("Location", "/api/v1/services/"+strconv.FormatUint(uint64(svc.ID), 10))
	respondData(w, http.StatusCreated, svc)
}

// GetByID godoc
// @Summary Get service
// @Tags Services
// @Produce json
// @Param id path int true "Service ID"
// @Success 200 {object} domain.APIResponse{data=domain.ServiceDTO}
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /services/{id} [get]
func (h *CatalogHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "service")
	if !ok {
		return
	}
	svc, err := h.catalogService.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err, "get service")
		return
	}
	respondData(w, http.StatusOK, svc)
}

// Update godoc
// @Summary Update service
// @Tags Services
// @Accept json
// @Produce json
// @Param id path int true "Service ID"
// @Param request body domain.UpdateServiceRequest true "Service"
// @Success 200 {object} domain.APIResponse{data=domain.ServiceDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Failure 409 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /services/{id} [put]
func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "service")
	if !ok {
		return
	}
	var req domain.UpdateServiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	svc, err := h.catalogService.Update(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, err, "update service")
		return
	}
	respondData(w, http.StatusOK, svc)
}

// UpdateStatus godoc
// @Summary Change service status
// @Description Only active services appear as matrix columns
// @Tags Services
// @Accept json
// @Produce json
// @Param id path int true "Service ID"
// @Param request body domain.UpdateStatusRequest true "Status"
// @Success 200 {object} domain.APIResponse{data=domain.ServiceDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /services/{id}/status [patch]
func (h *CatalogHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "service")
	if !ok {
		return
	}
	status, ok := decodeStatus(w, r)
	if !ok {
		return
	}
	svc, err := h.catalogService.UpdateStatus(r.Context(), id, status)
	if err != nil {
		respondError(w, h.logger, err, "update service status")
		return
	}
	respondData(w, http.StatusOK, svc)
}

// Delete godoc
// @Summary Delete service
// @Description Without force a service with opportunities or clients using it is kept and 409 reports the counts. With force the opportunities are deleted and the id is dropped from clients.
// @Tags Services
// @Produce json
// @Param id path int true "Service ID"
// @Param force query bool false "Delete dependents"
// @Success 200 {object} domain.APIResponse{data=domain.DeleteResult}
// @Failure 404 {object} domain.APIResponse
// @Failure 409 {object} domain.APIResponse{data=domain.DeleteResult}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /services/{id} [delete]
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "service")
	if !ok {
		return
	}
	result, err := h.catalogService.Delete(r.Context(), id, queryBool(r, "force"))
	if err != nil {
		respondError(w, h.logger, err, "delete service")
		return
	}
	respondDeleteResult(w, result)
}
