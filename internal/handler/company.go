package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/orgbase/orgbase/internal/auth"
	"github.com/orgbase/orgbase/internal/handler/dto"
	"github.com/orgbase/orgbase/internal/model"
	"github.com/orgbase/orgbase/internal/service"
)

// CompanyHandler handles HTTP requests for company operations.
type CompanyHandler struct {
	svc    *service.CompanyService
	logger *slog.Logger
}

// NewCompanyHandler creates a new CompanyHandler.
func NewCompanyHandler(svc *service.CompanyService, logger *slog.Logger) *CompanyHandler {
	return &CompanyHandler{
		svc:    svc,
		logger: logger,
	}
}

// Get handles GET /api/v1/companies/{id}.
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_ID", "Company ID is required")
		return
	}

	company, err := h.svc.GetCompany(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondCompany(w, r, http.StatusOK, company)
}

// MyCompany handles GET /api/v1/company.
func (h *CompanyHandler) MyCompany(w http.ResponseWriter, r *http.Request) {
	company, err := h.svc.MyCompany(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondCompany(w, r, http.StatusOK, company)
}

// Update handles PATCH /api/v1/company.
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	input := service.UpdateCompanyInput{
		Name:          req.Name,
		Website:       req.Website,
		Phone:         req.Phone,
		Industry:      req.Industry,
		Country:       req.Country,
		EmployeeCount: req.EmployeeCount,
	}

	company, err := h.svc.UpdateCompany(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("company_updated",
		"company_id", company.ID,
		"request_id", requestIDFrom(r),
	)

	h.respondCompany(w, r, http.StatusOK, company)
}

// UpdateSubscription handles PUT /api/v1/company/subscription.
func (h *CompanyHandler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	plan := model.Plan(strings.ToUpper(strings.TrimSpace(req.Plan)))

	company, err := h.svc.UpdateSubscription(r.Context(), plan)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("subscription_updated",
		"company_id", company.ID,
		"plan", string(company.Plan),
		"request_id", requestIDFrom(r),
	)

	h.respondCompany(w, r, http.StatusOK, company)
}

// respondCompany writes a company response with its member projections.
// The company has already been scope-checked, so the projections inherit
// its id without a second tenant check.
func (h *CompanyHandler) respondCompany(w http.ResponseWriter, r *http.Request, status int, company *model.Company) {
	users, err := h.svc.CompanyUsers(r.Context(), company.ID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	count, err := h.svc.CompanyUserCount(r.Context(), company.ID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, status, dto.ToCompanyResponse(company, users, count))
}

// handleServiceError maps service errors to HTTP responses.
func (h *CompanyHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		h.writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Authentication required")
	case errors.Is(err, service.ErrCrossTenant):
		h.writeError(w, http.StatusForbidden, "FORBIDDEN", "You can only access your own company")
	case errors.Is(err, auth.ErrForbidden):
		h.writeError(w, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions")
	case errors.Is(err, service.ErrCompanyNotFound):
		h.writeError(w, http.StatusNotFound, "COMPANY_NOT_FOUND", "Company not found")
	case errors.Is(err, service.ErrInvalidName):
		h.writeError(w, http.StatusBadRequest, "INVALID_NAME", "Invalid company name")
	case errors.Is(err, service.ErrInvalidWebsite):
		h.writeError(w, http.StatusBadRequest, "INVALID_WEBSITE", "Invalid website URL")
	case errors.Is(err, service.ErrInvalidPhone):
		h.writeError(w, http.StatusBadRequest, "INVALID_PHONE", "Invalid phone number format")
	case errors.Is(err, service.ErrInvalidPlan):
		h.writeError(w, http.StatusBadRequest, "INVALID_PLAN", "Invalid subscription plan")
	case errors.Is(err, service.ErrSubscriptionBusy):
		h.writeError(w, http.StatusConflict, "SUBSCRIPTION_CONFLICT", "Subscription was updated concurrently, try again")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *CompanyHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func requestIDFrom(r *http.Request) string {
	return r.Header.Get("X-Request-ID")
}
