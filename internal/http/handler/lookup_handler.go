package handler

import (
	"net/http"

	"github.com/wondrlab/crosssell-api/internal/service"
	"go.uber.org/zap"
)

type LookupHandler struct {
	lookupService *service.LookupService
	logger        *zap.Logger
}

func NewLookupHandler(lookupService *service.LookupService, logger *zap.Logger) *LookupHandler {
	return &LookupHandler{lookupService: lookupService, logger: logger}
}

// Get godoc
// @Summary Name lookup tables
// @Description Id and display name of every client, service, opportunity and user. Used to resolve names in CSV files.
// @Tags Lookups
// @Produce json
// @Success 200 {object} domain.APIResponse{data=domain.Lookups}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /lookups [get]
func (h *LookupHandler) Get(w http.ResponseWriter, r *http.Request) {
	lookups, err := h.lookupService.Get(r.Context())
	if err != nil {
		respondError(w, h.logger, err, "load lookups")
		return
	}
	respondData(w, http.StatusOK, lookups)
}
