package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/service"
	"go.uber.org/zap"
)

var validate = newValidator()

// newValidator reports field errors by their json names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondData wraps data in the success envelope
func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, domain.APIResponse{Success: true, Data: data})
}

// respondPage moves pagination fields into meta
func respondPage(w http.ResponseWriter, page *domain.PaginatedResponse) {
	respondJSON(w, http.StatusOK, domain.APIResponse{
		Success: true,
		Data:    page.Data,
		Meta: domain.PageMeta{
			Total:      page.Total,
			Page:       page.Page,
			PageSize:   page.PageSize,
			TotalPages: page.TotalPages,
		},
	})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, domain.APIResponse{Success: status < 400, Message: message})
}

// respondValidationError sends a 400 with one message per failing field
func respondValidationError(w http.ResponseWriter, err error) {
	var fieldErrors []domain.ValidationFieldError
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fieldErrors = append(fieldErrors, domain.ValidationFieldError{
				Field:   fe.Field(),
				Message: formatValidationError(fe),
			})
		}
	}
	respondJSON(w, http.StatusBadRequest, domain.APIResponse{
		Success: false,
		Message: "One or more fields failed validation",
		Errors:  fieldErrors,
	})
}

func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	default:
		return domain.GetValidationMessage(fe.Tag())
	}
}

// respondError maps service errors to status codes. Unexpected errors are
// logged and reported as 500 with a generic message.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error, action string) {
	var validation *service.ValidationError
	switch {
	case errors.As(err, &validation):
		respondJSON(w, http.StatusUnprocessableEntity, domain.APIResponse{
			Success: false,
			Message: validation.Error(),
			Errors:  validation.Errors,
			Meta:    map[string]interface{}{"warnings": validation.Warnings},
		})
	case errors.Is(err, service.ErrInvalidInput):
		respondMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		respondMessage(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden):
		respondMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound):
		respondMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		respondMessage(w, http.StatusConflict, err.Error())
	default:
		logger.Error("failed to "+action, zap.Error(err))
		respondMessage(w, http.StatusInternalServerError, "Failed to "+action)
	}
}

// respondDeleteResult sends 200 on success and 409 with the dependent counts otherwise
func respondDeleteResult(w http.ResponseWriter, result *domain.DeleteResult) {
	if result.Success {
		respondJSON(w, http.StatusOK, domain.APIResponse{Success: true, Data: result, Message: result.Message})
		return
	}
	respondJSON(w, http.StatusConflict, domain.APIResponse{Success: false, Data: result, Message: result.Message})
}

// decodeJSON reads and validates a request body
func decodeJSON(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validate.Struct(target); err != nil {
		respondValidationError(w, err)
		return false
	}
	return true
}

// parseID reads the {id} path parameter
func parseID(w http.ResponseWriter, r *http.Request, what string) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		respondMessage(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s ID", what))
		return 0, false
	}
	return uint(id), true
}

// pagination reads page and pageSize. Bounds are enforced by the services.
func pagination(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	return page, pageSize
}

// optionalUint parses an optional numeric query parameter
func optionalUint(w http.ResponseWriter, r *http.Request, name string) (*uint, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s", name))
		return nil, false
	}
	id := uint(n)
	return &id, true
}

func queryBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

func decodeStatus(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req domain.UpdateStatusRequest
	if !decodeJSON(w, r, &req) {
		return "", false
	}
	return req.Status, true
}
