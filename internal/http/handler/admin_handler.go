package handler

import (
	"net/http"

	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/service"
	"go.uber.org/zap"
)

// AdminHandler serves the reference tables under /admin. Reads are open to
// every user, writes are mounted behind RequireAdmin.
type AdminHandler struct {
	unitService     *service.BusinessUnitService
	industryService *service.IndustryService
	logger          *zap.Logger
}

func NewAdminHandler(
	unitService *service.BusinessUnitService,
	industryService *service.IndustryService,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		unitService:     unitService,
		industryService: industryService,
		logger:          logger,
	}
}

// ListBusinessUnits godoc
// @Summary List business units
// @Tags Admin
// @Produce json
// @Param status query string false "Status" Enums(active, inactive)
// @Success 200 {object} domain.APIResponse{data=[]domain.BusinessUnitDTO}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/business-units [get]
func (h *AdminHandler) ListBusinessUnits(w http.ResponseWriter, r *http.Request) {
	units, err := h.unitService.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		respondError(w, h.logger, err, "list business units")
		return
	}
	respondData(w, http.StatusOK, units)
}

// CreateBusinessUnit godoc
// @Summary Create business unit
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body domain.CreateBusinessUnitRequest true "Business unit"
// @Success 201 {object} domain.APIResponse{data=domain.BusinessUnitDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 409 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/business-units [post]
func (h *AdminHandler) CreateBusinessUnit(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBusinessUnitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	unit, err := h.unitService.Create(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err, "create business unit")
		return
	}
	respondData(w, http.StatusCreated, unit)
}

// GetBusinessUnit godoc
// @Summary Get business unit
// @Tags Admin
// @Produce json
// @Param id path int true "Business unit ID"
// @Success 200 {object} domain.APIResponse{data=domain.BusinessUnitDTO}
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/business-units/{id} [get]
func (h *AdminHandler) GetBusinessUnit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "business unit")
	if !ok {
		return
	}
	unit, err := h.unitService.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err, "get business unit")
		return
	}
	respondData(w, http.StatusOK, unit)
}

// UpdateBusinessUnit godoc
// @Summary Update business unit
// @Description A rename is carried over to every service of the unit
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Business unit ID"
// @Param request body domain.UpdateBusinessUnitRequest true "Business unit"
// @Success 200 {object} domain.APIResponse{data=domain.BusinessUnitDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Failure 409 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/business-units/{id} [put]
func (h *AdminHandler) UpdateBusinessUnit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "business unit")
	if !ok {
		return
	}
	var req domain.UpdateBusinessUnitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	unit, err := h.unitService.Update(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, err, "update business unit")
		return
	}
	respondData(w, http.StatusOK, unit)
}

// UpdateBusinessUnitStatus godoc
// @Summary Change business unit status
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Business unit ID"
// @Param request body domain.UpdateStatusRequest true "Status"
// @Success 200 {object} domain.APIResponse{data=domain.BusinessUnitDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/business-units/{id}/status [patch]
func (h *AdminHandler) UpdateBusinessUnitStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "business unit")
	if !ok {
		return
	}
	status, ok := decodeStatus(w, r)
	if !ok {
		return
	}
	unit, err := h.unitService.UpdateStatus(r.Context(), id, status)
	if err != nil {
		respondError(w, h.logger, err, "update business unit status")
		return
	}
	respondData(w, http.StatusOK, unit)
}

// DeleteBusinessUnit godoc
// @Summary Delete business unit
// @Description Without force a unit with services is kept and 409 reports the count. With force the services keep existing with an empty business unit.
// @Tags Admin
// @Produce json
// @Param id path int true "Business unit ID"
// @Param force query bool false "Detach services"
// @Success 200 {object} domain.APIResponse{data=domain.DeleteResult}
// @Failure 404 {object} domain.APIResponse
// @Failure 409 {object} domain.APIResponse{data=domain.DeleteResult}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/business-units/{id} [delete]
func (h *AdminHandler) DeleteBusinessUnit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "business unit")
	if !ok {
		return
	}
	result, err := h.unitService.Delete(r.Context(), id, queryBool(r, "force"))
	if err != nil {
		respondError(w, h.logger, err, "delete business unit")
		return
	}
	respondDeleteResult(w, result)
}

// ListIndustries godoc
// @Summary List industries
// @Tags Admin
// @Produce json
// @Param status query string false "Status" Enums(active, inactive)
// @Success 200 {object} domain.APIResponse{data=[]domain.IndustryDTO}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/industries [get]
func (h *AdminHandler) ListIndustries(w http.ResponseWriter, r *http.Request) {
	industries, err := h.industryService.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		respondError(w, h.logger, err, "list industries")
		return
	}
	respondData(w, http.StatusOK, industries)
}

// CreateIndustry godoc
// @Summary Create industry
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body domain.CreateIndustryRequest true "Industry"
// @Success 201 {object} domain.APIResponse{data=domain.IndustryDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 409 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/industries [post]
func (h *AdminHandler) CreateIndustry(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateIndustryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	industry, err := h.industryService.Create(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err, "create industry")
		return
	}
	respondData(w, http.StatusCreated, industry)
}

// GetIndustry godoc
// @Summary Get industry
// @Tags Admin
// @Produce json
// @Param id path int true "Industry ID"
// @Success 200 {object} domain.APIResponse{data=domain.IndustryDTO}
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/industries/{id} [get]
func (h *AdminHandler) GetIndustry(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "industry")
	if !ok {
		return
	}
	industry, err := h.industryService.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err, "get industry")
		return
	}
	respondData(w, http.StatusOK, industry)
}

// UpdateIndustry godoc
// @Summary Update industry
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Industry ID"
// @Param request body domain.UpdateIndustryRequest true "Industry"
// @Success 200 {object} domain.APIResponse{data=domain.IndustryDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Failure 409 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/industries/{id} [put]
func (h *AdminHandler) UpdateIndustry(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "industry")
	if !ok {
		return
	}
	var req domain.UpdateIndustryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	industry, err := h.industryService.Update(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, err, "update industry")
		return
	}
	respondData(w, http.StatusOK, industry)
}

// UpdateIndustryStatus godoc
// @Summary Change industry status
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Industry ID"
// @Param request body domain.UpdateStatusRequest true "Status"
// @Success 200 {object} domain.APIResponse{data=domain.IndustryDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/industries/{id}/status [patch]
func (h *AdminHandler) UpdateIndustryStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "industry")
	if !ok {
		return
	}
	status, ok := decodeStatus(w, r)
	if !ok {
		return
	}
	industry, err := h.industryService.UpdateStatus(r.Context(), id, status)
	if err != nil {
		respondError(w, h.logger, err, "update industry status")
		return
	}
	respondData(w, http.StatusOK, industry)
}

// DeleteIndustry godoc
// @Summary Delete industry
// @Tags Admin
// @Param id path int true "Industry ID"
// @Success 204
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/industries/{id} [delete]
func (h *AdminHandler) DeleteIndustry(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "industry")
	if !ok {
		return
	}
	if err := h.industryService.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, err, "delete industry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
