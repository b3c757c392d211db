package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/orgbase/orgbase/internal/auth"
	"github.com/orgbase/orgbase/internal/handler/dto"
	"github.com/orgbase/orgbase/internal/model"
	"github.com/orgbase/orgbase/internal/repository"
	"github.com/orgbase/orgbase/internal/service"
)

type stubStore struct {
	companies map[string]*model.Company
	users     map[string][]*model.User
}

func (s *stubStore) GetCompanyByID(ctx context.Context, id string) (*model.Company, error) {
	company, ok := s.companies[id]
	if !ok {
		return nil, repository.ErrCompanyNotFound
	}
	copied := *company
	return &copied, nil
}

func (s *stubStore) UpdateCompanyFields(ctx context.Context, id string, fields map[string]any) (*model.Company, error) {
	company, ok := s.companies[id]
	if !ok {
		return nil, repository.ErrCompanyNotFound
	}
	if name, ok := fields["name"].(string); ok {
		company.Name = name
	}
	if count, ok := fields["employee_count"].(int); ok {
		company.EmployeeCount = count
	}
	copied := *company
	return &copied, nil
}

func (s *stubStore) UpdateSubscriptionCAS(ctx context.Context, id string, observedExpiry *time.Time, plan model.Plan, status model.CompanyStatus, newExpiry *time.Time) (*model.Company, error) {
	company, ok := s.companies[id]
	if !ok {
		return nil, repository.ErrCompanyNotFound
	}
	company.Plan = plan
	company.Status = status
	company.PlanExpiresAt = newExpiry
	copied := *company
	return &copied, nil
}

func (s *stubStore) ListUsersByCompany(ctx context.Context, companyID string) ([]*model.User, error) {
	return s.users[companyID], nil
}

func (s *stubStore) CountUsersByCompany(ctx context.Context, companyID string) (int64, error) {
	return int64(len(s.users[companyID])), nil
}

func newStubStore() *stubStore {
	return &stubStore{
		companies: map[string]*model.Company{
			"company-1": {
				ID:     "company-1",
				Name:   "Acme & Sons",
				Plan:   model.PlanFree,
				Status: model.StatusActive,
			},
			"company-2": {
				ID:     "company-2",
				Name:   "Rival Corp",
				Plan:   model.PlanPro,
				Status: model.StatusActive,
			},
		},
		users: map[string][]*model.User{
			"company-1": {
				{ID: "user-1", Email: "owner@acme.test", CompanyID: "company-1", Role: model.RoleOwner},
				{ID: "user-2", Email: "member@acme.test", CompanyID: "company-1", Role: model.RoleMember},
			},
		},
	}
}

// identityMiddleware installs a fixed identity, standing in for the real
// token-verifying middleware.
func identityMiddleware(ident *model.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ident != nil {
				r = r.WithContext(auth.ContextWithIdentity(r.Context(), ident))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newCompanyRouter(store *stubStore, ident *model.Identity) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewCompanyService(store, nil)
	h := NewCompanyHandler(svc, logger)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(identityMiddleware(ident))
		r.Get("/companies/{id}", h.Get)
		r.Route("/company", func(r chi.Router) {
			r.Get("/", h.MyCompany)
			r.Patch("/", h.Update)
			r.Put("/subscription", h.UpdateSubscription)
		})
	})
	return r
}

func ownerIdentity() *model.Identity {
	return &model.Identity{UserID: "user-1", CompanyID: "company-1", Role: model.RoleOwner}
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeCompany(t *testing.T, rec *httptest.ResponseRecorder) dto.CompanyResponse {
	t.Helper()

	var resp dto.CompanyResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode company response: %v", err)
	}
	return resp
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()

	var resp dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

func TestCompanyGet(t *testing.T) {
	router := newCompanyRouter(newStubStore(), ownerIdentity())

	rec := doJSON(t, router, http.MethodGet, "/api/v1/companies/company-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeCompany(t, rec)
	if resp.ID != "company-1" {
		t.Errorf("id = %s, want company-1", resp.ID)
	}
	if resp.Slug != "acme-sons" {
		t.Errorf("slug = %q, want derived acme-sons", resp.Slug)
	}
	if resp.SubscriptionPlan != "FREE" {
		t.Errorf("subscription_plan = %s, want FREE", resp.SubscriptionPlan)
	}
	if len(resp.Users) != 2 || resp.UserCount != 2 {
		t.Errorf("expected 2 members, got %d users, count %d", len(resp.Users), resp.UserCount)
	}
}

func TestCompanyGet_CrossTenant(t *testing.T) {
	router := newCompanyRouter(newStubStore(), ownerIdentity())

	rec := doJSON(t, router, http.MethodGet, "/api/v1/companies/company-2", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	resp := decodeError(t, rec)
	if resp.Code != "FORBIDDEN" || resp.Error != "You can only access your own company" {
		t.Errorf("unexpected error response: %+v", resp)
	}
}

func TestCompanyGet_NotFound(t *testing.T) {
	router := newCompanyRouter(newStubStore(), ownerIdentity())

	rec := doJSON(t, router, http.MethodGet, "/api/v1/companies/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "COMPANY_NOT_FOUND" {
		t.Errorf("unexpected code: %s", resp.Code)
	}
}

func TestCompanyGet_Unauthenticated(t *testing.T) {
	router := newCompanyRouter(newStubStore(), nil)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/companies/company-1", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "UNAUTHENTICATED" {
		t.Errorf("unexpected code: %s", resp.Code)
	}
}

func TestMyCompanyEndpoint(t *testing.T) {
	router := newCompanyRouter(newStubStore(), &model.Identity{
		UserID: "user-2", CompanyID: "company-1", Role: model.RoleMember,
	})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/company", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp := decodeCompany(t, rec); resp.ID != "company-1" {
		t.Errorf("id = %s, want company-1", resp.ID)
	}
}

func TestCompanyUpdate(t *testing.T) {
	store := newStubStore()
	router := newCompanyRouter(store, ownerIdentity())

	rec := doJSON(t, router, http.MethodPatch, "/api/v1/company", dto.UpdateCompanyRequest{
		Name: strPtr("Acme Global"),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeCompany(t, rec)
	if resp.Name != "Acme Global" {
		t.Errorf("name = %q, want Acme Global", resp.Name)
	}
	if resp.Slug != "acme-global" {
		t.Errorf("slug should follow the new name, got %q", resp.Slug)
	}
}

func TestCompanyUpdate_InvalidJSON(t *testing.T) {
	router := newCompanyRouter(newStubStore(), ownerIdentity())

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/company", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "INVALID_JSON" {
		t.Errorf("unexpected code: %s", resp.Code)
	}
}

func TestCompanyUpdate_MemberForbidden(t *testing.T) {
	router := newCompanyRouter(newStubStore(), &model.Identity{
		UserID: "user-2", CompanyID: "company-1", Role: model.RoleMember,
	})

	rec := doJSON(t, router, http.MethodPatch, "/api/v1/company", dto.UpdateCompanyRequest{
		Name: strPtr("Acme Global"),
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Error != "Insufficient permissions" {
		t.Errorf("unexpected message: %s", resp.Error)
	}
}

func TestCompanyUpdate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     dto.UpdateCompanyRequest
		wantCode string
	}{
		{"bad_name", dto.UpdateCompanyRequest{Name: strPtr("  ")}, "INVALID_NAME"},
		{"bad_website", dto.UpdateCompanyRequest{Website: strPtr("nope")}, "INVALID_WEBSITE"},
		{"bad_phone", dto.UpdateCompanyRequest{Phone: strPtr("abc")}, "INVALID_PHONE"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			router := newCompanyRouter(newStubStore(), ownerIdentity())

			rec := doJSON(t, router, http.MethodPatch, "/api/v1/company", test.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if resp := decodeError(t, rec); resp.Code != test.wantCode {
				t.Errorf("code = %s, want %s", resp.Code, test.wantCode)
			}
		})
	}
}

func TestSubscriptionUpdate(t *testing.T) {
	router := newCompanyRouter(newStubStore(), ownerIdentity())

	// Plan is case-insensitive on the wire.
	rec := doJSON(t, router, http.MethodPut, "/api/v1/company/subscription", dto.UpdateSubscriptionRequest{
		Plan: " pro ",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeCompany(t, rec)
	if resp.SubscriptionPlan != "PRO" {
		t.Errorf("subscription_plan = %s, want PRO", resp.SubscriptionPlan)
	}
	if resp.PlanExpiresAt == nil {
		t.Fatal("paid plan should carry an expiry")
	}
	remaining := time.Until(*resp.PlanExpiresAt)
	if remaining < 29*24*time.Hour || remaining > 31*24*time.Hour {
		t.Errorf("expiry should be about 30 days out, got %v", remaining)
	}
}

func TestSubscriptionUpdate_InvalidPlan(t *testing.T) {
	router := newCompanyRouter(newStubStore(), ownerIdentity())

	rec := doJSON(t, router, http.MethodPut, "/api/v1/company/subscription", dto.UpdateSubscriptionRequest{
		Plan: "GOLD",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "INVALID_PLAN" {
		t.Errorf("unexpected code: %s", resp.Code)
	}
}

func TestSubscriptionUpdate_AdminForbidden(t *testing.T) {
	router := newCompanyRouter(newStubStore(), &model.Identity{
		UserID: "user-3", CompanyID: "company-1", Role: model.RoleAdmin,
	})

	rec := doJSON(t, router, http.MethodPut, "/api/v1/company/subscription", dto.UpdateSubscriptionRequest{
		Plan: "PRO",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Error != "Insufficient permissions" {
		t.Errorf("unexpected message: %s", resp.Error)
	}
}

func strPtr(v string) *string { return &v }
