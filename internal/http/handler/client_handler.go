package handler

import (
	"net/http"
	"strconv"

	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/service"
	"go.uber.org/zap"
)

type ClientHandler struct {
	clientService *service.ClientService
	logger        *zap.Logger
}

func NewClientHandler(clientService *service.ClientService, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{
		clientService: clientService,
		logger:        logger,
	}
}

// List godoc
// @Summary List clients
// @Tags Clients
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param search query string false "Matches name, contact name or contact email"
// @Param status query string false "Client status" Enums(active, inactive, prospect)
// @Param accountOwnerId query int false "Account owner user ID"
// @Param industry query string false "Industry"
// @Success 200 {object} domain.APIResponse{data=[]domain.ClientDTO,meta=domain.PageMeta}
// @Failure 400 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients [get]
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := optionalUint(w, r, "accountOwnerId")
	if !ok {
		return
	}
	q := r.URL.Query()
	filters := domain.ClientFilters{
		Search:         q.Get("search"),
		Status:         domain.ClientStatus(q.Get("status")),
		AccountOwnerID: ownerID,
		Industry:       q.Get("industry"),
	}

	page, pageSize := pagination(r)
	result, err := h.clientService.List(r.Context(), page, pageSize, filters)
	if err != nil {
		respondError(w, h.logger, err, "list clients")
		return
	}
	respondPage(w, result)
}

// Create godoc
// @Summary Create client
// @Description services_used may only name active services. The account owner is notified.
// @Tags Clients
// @Accept json
// @Produce json
// @Param request body domain.CreateClientRequest true "Client"
// @Success 201 {object} domain.APIResponse{data=domain.ClientDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 409 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients [post]
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateClientRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	client, err := h.clientService.Create(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err, "create client")
		return
	}
	w.Header().Set("Location", "/api/v1/clients/"+strconv.FormatUint(uint64(client.ID), 10))
	respondData(w, http.StatusCreated, client)
}

// GetByID godoc
// @Summary Get client
// @Tags Clients
// @Produce json
// @Param id path int true "Client ID"
// @Success 200 {object} domain.APIResponse{data=domain.ClientDTO}
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients/{id} [get]
func (h *ClientHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "client")
	if !ok {
		return
	}
	client, err := h.clientService.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err, "get client")
		return
	}
	respondData(w, http.StatusOK, client)
}

// Update godoc
// @Summary Update client
// @Tags Clients
// @Accept json
// @Produce json
// @Param id path int true "Client ID"
// @Param request body domain.UpdateClientRequest true "Client"
// @Success 200 {object} domain.APIResponse{data=domain.ClientDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Failure 409 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients/{id} [put]
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "client")
	if !ok {
		return
	}
	var req domain.UpdateClientRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	client, err := h.clientService.Update(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, err, "update client")
		return
	}
	respondData(w, http.StatusOK, client)
}

// UpdateStatus godoc
// @Summary Change client status
// @Tags Clients
// @Accept json
// @Produce json
// @Param id path int true "Client ID"
// @Param request body domain.UpdateStatusRequest true "Status"
// @Success 200 {object} domain.APIResponse{data=domain.ClientDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients/{id}/status [patch]
func (h *ClientHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "client")
	if !ok {
		return
	}
	status, ok := decodeStatus(w, r)
	if !ok {
		return
	}
	client, err := h.clientService.UpdateStatus(r.Context(), id, status)
	if err != nil {
		respondError(w, h.logger, err, "update client status")
		return
	}
	respondData(w, http.StatusOK, client)
}

// Delete godoc
// @Summary Delete client
// @Description Without force a client with opportunities is kept and 409 reports the count. With force its opportunities and their tasks are deleted too.
// @Tags Clients
// @Produce json
// @Param id path int true "Client ID"
// @Param force query bool false "Delete dependents"
// @Success 200 {object} domain.APIResponse{data=domain.DeleteResult}
// @Failure 404 {object} domain.APIResponse
// @Failure 409 {object} domain.APIResponse{data=domain.DeleteResult}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients/{id} [delete]
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "client")
	if !ok {
		return
	}
	result, err := h.clientService.Delete(r.Context(), id, queryBool(r, "force"))
	if err != nil {
		respondError(w, h.logger, err, "delete client")
		return
	}
	respondDeleteResult(w, result)
}
