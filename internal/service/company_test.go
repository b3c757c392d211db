package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/orgbase/orgbase/internal/auth"
	"github.com/orgbase/orgbase/internal/model"
	"github.com/orgbase/orgbase/internal/repository"
)

// fakeStore is an in-memory CompanyStore that returns the repository
// sentinel errors the service maps on.
type fakeStore struct {
	companies map[string]*model.Company
	users     map[string][]*model.User

	lastFields   map[string]any
	updateCalls  int
	casCalls     int
	casConflicts int
}

func newFakeStore(companies ...*model.Company) *fakeStore {
	s := &fakeStore{
		companies: make(map[string]*model.Company),
		users:     make(map[string][]*model.User),
	}
	for _, c := range companies {
		s.companies[c.ID] = c
	}
	return s
}

func (s *fakeStore) GetCompanyByID(ctx context.Context, id string) (*model.Company, error) {
	company, ok := s.companies[id]
	if !ok {
		return nil, repository.ErrCompanyNotFound
	}
	copied := *company
	return &copied, nil
}

func (s *fakeStore) UpdateCompanyFields(ctx context.Context, id string, fields map[string]any) (*model.Company, error) {
	company, ok := s.companies[id]
	if !ok {
		return nil, repository.ErrCompanyNotFound
	}
	s.updateCalls++
	s.lastFields = fields

	if name, ok := fields["name"].(string); ok {
		company.Name = name
	}
	if website, ok := fields["website"].(string); ok {
		company.Website = website
	}
	if phone, ok := fields["phone"].(string); ok {
		company.Phone = phone
	}
	if industry, ok := fields["industry"].(string); ok {
		company.Industry = industry
	}
	if country, ok := fields["country"].(string); ok {
		company.Country = country
	}
	if count, ok := fields["employee_count"].(int); ok {
		company.EmployeeCount = count
	}
	copied := *company
	return &copied, nil
}

func (s *fakeStore) UpdateSubscriptionCAS(ctx context.Context, id string, observedExpiry *time.Time, plan model.Plan, status model.CompanyStatus, newExpiry *time.Time) (*model.Company, error) {
	s.casCalls++

	company, ok := s.companies[id]
	if !ok {
		return nil, repository.ErrCompanyNotFound
	}
	if s.casConflicts > 0 {
		s.casConflicts--
		return nil, repository.ErrConcurrentUpdate
	}
	if !timePtrEqual(company.PlanExpiresAt, observedExpiry) {
		return nil, repository.ErrConcurrentUpdate
	}

	company.Plan = plan
	company.Status = status
	company.PlanExpiresAt = newExpiry
	copied := *company
	return &copied, nil
}

func (s *fakeStore) ListUsersByCompany(ctx context.Context, companyID string) ([]*model.User, error) {
	return s.users[companyID], nil
}

func (s *fakeStore) CountUsersByCompany(ctx context.Context, companyID string) (int64, error) {
	return int64(len(s.users[companyID])), nil
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func testCompany(id string) *model.Company {
	return &model.Company{
		ID:     id,
		Name:   "Acme & Sons",
		Plan:   model.PlanFree,
		Status: model.StatusActive,
	}
}

func ctxAs(companyID string, role model.Role) context.Context {
	return auth.ContextWithIdentity(context.Background(), &model.Identity{
		UserID:    "user-1",
		CompanyID: companyID,
		Role:      role,
	})
}

func strPtr(v string) *string { return &v }
func intPtr(v int) *int       { return &v }

func TestGetCompany(t *testing.T) {
	store := newFakeStore(testCompany("company-1"), testCompany("company-2"))
	svc := NewCompanyService(store, nil)

	t.Run("own_company", func(t *testing.T) {
		company, err := svc.GetCompany(ctxAs("company-1", model.RoleMember), "company-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if company.ID != "company-1" {
			t.Errorf("expected company-1, got %s", company.ID)
		}
	})

	t.Run("cross_tenant", func(t *testing.T) {
		_, err := svc.GetCompany(ctxAs("company-1", model.RoleOwner), "company-2")
		if !errors.Is(err, ErrCrossTenant) {
			t.Fatalf("expected ErrCrossTenant, got %v", err)
		}
		if !errors.Is(err, auth.ErrForbidden) {
			t.Error("cross-tenant access should be Forbidden")
		}
	})

	t.Run("not_found", func(t *testing.T) {
		_, err := svc.GetCompany(ctxAs("company-1", model.RoleMember), "missing")
		if !errors.Is(err, ErrCompanyNotFound) {
			t.Fatalf("expected ErrCompanyNotFound, got %v", err)
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		_, err := svc.GetCompany(context.Background(), "company-1")
		if !errors.Is(err, auth.ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})
}

func TestMyCompany(t *testing.T) {
	store := newFakeStore(testCompany("company-1"))
	svc := NewCompanyService(store, nil)

	company, err := svc.MyCompany(ctxAs("company-1", model.RoleMember))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if company.ID != "company-1" {
		t.Errorf("expected company-1, got %s", company.ID)
	}

	if _, err := svc.MyCompany(context.Background()); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestUpdateCompany_RoleGating(t *testing.T) {
	tests := []struct {
		name    string
		ctx     context.Context
		wantErr error
	}{
		{"owner_allowed", ctxAs("company-1", model.RoleOwner), nil},
		{"admin_allowed", ctxAs("company-1", model.RoleAdmin), nil},
		{"member_forbidden", ctxAs("company-1", model.RoleMember), auth.ErrForbidden},
		{"unauthenticated", context.Background(), auth.ErrUnauthenticated},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			store := newFakeStore(testCompany("company-1"))
			svc := NewCompanyService(store, nil)

			_, err := svc.UpdateCompany(test.ctx, UpdateCompanyInput{Name: strPtr("New Name")})
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("expected %v, got %v", test.wantErr, err)
			}
			if test.wantErr != nil && store.updateCalls != 0 {
				t.Error("store should not be written on a denied update")
			}
		})
	}
}

func TestUpdateCompany_DropsNilAndEmpty(t *testing.T) {
	store := newFakeStore(testCompany("company-1"))
	svc := NewCompanyService(store, nil)

	_, err := svc.UpdateCompany(ctxAs("company-1", model.RoleAdmin), UpdateCompanyInput{
		Name:          strPtr("New Name"),
		Website:       nil,
		Phone:         strPtr(""),
		Industry:      strPtr("Logistics"),
		EmployeeCount: intPtr(0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{
		"name":           "New Name",
		"industry":       "Logistics",
		"employee_count": 0,
	}
	if len(store.lastFields) != len(want) {
		t.Fatalf("expected fields %v, got %v", want, store.lastFields)
	}
	for column, value := range want {
		if store.lastFields[column] != value {
			t.Errorf("field %s = %v, want %v", column, store.lastFields[column], value)
		}
	}
	if _, ok := store.lastFields["phone"]; ok {
		t.Error("empty-string phone should be dropped, not written")
	}
}

func TestUpdateCompany_EmptyInputIsNoop(t *testing.T) {
	store := newFakeStore(testCompany("company-1"))
	svc := NewCompanyService(store, nil)

	company, err := svc.UpdateCompany(ctxAs("company-1", model.RoleOwner), UpdateCompanyInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if company.Name != "Acme & Sons" {
		t.Errorf("company should be unchanged, got name %q", company.Name)
	}
	if len(store.lastFields) != 0 {
		t.Errorf("expected no fields, got %v", store.lastFields)
	}
}

func TestUpdateCompany_Validation(t *testing.T) {
	tests := []struct {
		name    string
		input   UpdateCompanyInput
		wantErr error
	}{
		{"bad_name", UpdateCompanyInput{Name: strPtr("  ")}, ErrInvalidName},
		{"bad_website", UpdateCompanyInput{Website: strPtr("not a url")}, ErrInvalidWebsite},
		{"bad_phone", UpdateCompanyInput{Phone: strPtr("abc")}, ErrInvalidPhone},
		{
			"first_failure_wins",
			UpdateCompanyInput{Name: strPtr("\x00"), Website: strPtr("nope")},
			ErrInvalidName,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			store := newFakeStore(testCompany("company-1"))
			svc := NewCompanyService(store, nil)

			_, err := svc.UpdateCompany(ctxAs("company-1", model.RoleOwner), test.input)
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("expected %v, got %v", test.wantErr, err)
			}
			if store.updateCalls != 0 {
				t.Error("validation failure must abort before any write")
			}
		})
	}
}

func TestUpdateCompany_NotFound(t *testing.T) {
	store := newFakeStore()
	svc := NewCompanyService(store, nil)

	_, err := svc.UpdateCompany(ctxAs("company-1", model.RoleOwner), UpdateCompanyInput{Name: strPtr("New Name")})
	if !errors.Is(err, ErrCompanyNotFound) {
		t.Fatalf("expected ErrCompanyNotFound, got %v", err)
	}
}

func TestCompanyUsers(t *testing.T) {
	store := newFakeStore(testCompany("company-1"))
	store.users["company-1"] = []*model.User{
		{ID: "user-2", CompanyID: "company-1", Role: model.RoleMember},
		{ID: "user-1", CompanyID: "company-1", Role: model.RoleOwner},
	}
	svc := NewCompanyService(store, nil)

	users, err := svc.CompanyUsers(context.Background(), "company-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}

	count, err := svc.CompanyUserCount(context.Background(), "company-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}
}
