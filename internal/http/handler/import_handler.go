package handler

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/wondrlab/crosssell-api/internal/csvtransform"
	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/service"
	"go.uber.org/zap"
)

const csvContentType = "text/csv; charset=utf-8"

// ImportHandler serves CSV import, export and templates. Each method is bound
// to one entity when the routes are mounted.
type ImportHandler struct {
	importService *service.ImportService
	maxUpload     int64
	logger        *zap.Logger
}

func NewImportHandler(importService *service.ImportService, maxUploadBytes int64, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		maxUpload:     maxUploadBytes,
		logger:        logger,
	}
}

// Import godoc
// @Summary Import file
// @Description Accepts a multipart upload (.csv or .xlsx) in the "file" field or a raw text/csv body. The whole file is validated first and nothing is written when any row fails (422). Rows are then created in order and a failing row does not stop the rest.
// @Tags Import
// @Accept multipart/form-data
// @Accept text/csv
// @Produce json
// @Param entity path string true "Entity" Enums(clients, services, opportunities, tasks)
// @Param file formData file false "CSV file"
// @Success 200 {object} domain.APIResponse{data=service.ImportResult}
// @Failure 400 {object} domain.APIResponse
// @Failure 413 {object} domain.APIResponse
// @Failure 422 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /{entity}/import [post]
func (h *ImportHandler) Import(entity csvtransform.Entity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

		filename, body, ok := h.readUpload(w, r, entity)
		if !ok {
			return
		}
		defer body.Close()

		result, err := h.importService.Import(r.Context(), entity, filename, body)
		if err != nil {
			respondError(w, h.logger, err, "import "+string(entity))
			return
		}
		respondJSON(w, http.StatusOK, domain.APIResponse{
			Success: true,
			Data:    result,
			Message: fmt.Sprintf("Imported %d of %d %s", result.Succeeded, result.Attempted, entity),
		})
	}
}

// readUpload returns the uploaded file and its name. Without a multipart body
// the request body itself is the file.
func (h *ImportHandler) readUpload(w http.ResponseWriter, r *http.Request, entity csvtransform.Entity) (string, io.ReadCloser, bool) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return string(entity) + ".csv", r.Body, true
	}

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		respondMessage(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("File too large: maximum size is %dMB", h.maxUpload>>20))
		return "", nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid file upload: file field is required")
		return "", nil, false
	}
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".csv", ".xlsx":
	default:
		file.Close()
		respondMessage(w, http.StatusBadRequest, "Only .csv and .xlsx files can be imported")
		return "", nil, false
	}
	return header.Filename, file, true
}

// Export godoc
// @Summary Export CSV
// @Description mode=import (default) writes the re-importable layout, mode=display adds ids, timestamps and display names
// @Tags Import
// @Produce text/csv
// @Param entity path string true "Entity" Enums(clients, services, opportunities, tasks)
// @Param mode query string false "Layout" Enums(import, display)
// @Success 200 {file} file
// @Failure 400 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /{entity}/export [get]
func (h *ImportHandler) Export(entity csvtransform.Entity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mode, err := service.ParseExportMode(r.URL.Query().Get("mode"))
		if err != nil {
			respondError(w, h.logger, err, "export "+string(entity))
			return
		}
		content, err := h.importService.Export(r.Context(), entity, mode)
		if err != nil {
			respondError(w, h.logger, err, "export "+string(entity))
			return
		}
		writeCSV(w, service.ExportFilename(entity, time.Now()), content)
	}
}

// Template godoc
// @Summary Import template
// @Description Header row of the import layout
// @Tags Import
// @Produce text/csv
// @Param entity path string true "Entity" Enums(clients, services, opportunities, tasks)
// @Success 200 {file} file
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /{entity}/import/template [get]
func (h *ImportHandler) Template(entity csvtransform.Entity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeCSV(w, fmt.Sprintf("%s_template.csv", entity), h.importService.Template(entity))
	}
}

func writeCSV(w http.ResponseWriter, filename, content string) {
	w.Header().Set("Content-Type", csvContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, content)
}
