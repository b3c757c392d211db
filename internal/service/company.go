// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orgbase/orgbase/internal/auth"
	"github.com/orgbase/orgbase/internal/metrics"
	"github.com/orgbase/orgbase/internal/model"
	"github.com/orgbase/orgbase/internal/repository"
)

// Service errors.
var (
	ErrCompanyNotFound  = errors.New("company not found")
	ErrCrossTenant      = fmt.Errorf("%w: cross-tenant access", auth.ErrForbidden)
	ErrInvalidName      = errors.New("invalid company name")
	ErrInvalidWebsite   = errors.New("invalid website URL")
	ErrInvalidPhone     = errors.New("invalid phone number format")
	ErrInvalidPlan      = errors.New("invalid subscription plan")
	ErrSubscriptionBusy = errors.New("subscription update conflicted with a concurrent change")
)

const (
	// planExtension is the rolling subscription period. Fixed 30x24h,
	// no calendar-month semantics.
	planExtension = 30 * 24 * time.Hour

	// maxSubscriptionAttempts bounds the read-compute-CAS retry loop.
	maxSubscriptionAttempts = 3
)

// CompanyStore is the persistence surface the service needs.
// *repository.Repository satisfies it; tests use in-memory fakes that
// return the repository sentinel errors.
type CompanyStore interface {
	GetCompanyByID(ctx context.Context, id string) (*model.Company, error)
	UpdateCompanyFields(ctx context.Context, id string, fields map[string]any) (*model.Company, error)
	UpdateSubscriptionCAS(ctx context.Context, id string, observedExpiry *time.Time, plan model.Plan, status model.CompanyStatus, newExpiry *time.Time) (*model.Company, error)
	ListUsersByCompany(ctx context.Context, companyID string) ([]*model.User, error)
	CountUsersByCompany(ctx context.Context, companyID string) (int64, error)
}

// CompanyService handles company and subscription business logic.
type CompanyService struct {
	store   CompanyStore
	metrics metrics.Recorder
	now     func() time.Time
}

// NewCompanyService creates a new CompanyService.
func NewCompanyService(store CompanyStore, recorder metrics.Recorder) *CompanyService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CompanyService{
		store:   store,
		metrics: recorder,
		now:     time.Now,
	}
}

// GetCompany retrieves a company by explicit id. The caller must be
// authenticated and belong to the requested company; a row that exists
// in another tenant fails with Forbidden, not NotFound.
func (s *CompanyService) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	ident, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	company, err := s.store.GetCompanyByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCompanyNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}

	if company.ID != ident.CompanyID {
		return nil, ErrCrossTenant
	}

	return company, nil
}

// MyCompany retrieves the caller's own company. The id comes from the
// resolved identity, so no explicit scope check is needed.
func (s *CompanyService) MyCompany(ctx context.Context) (*model.Company, error) {
	ident, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	company, err := s.store.GetCompanyByID(ctx, ident.CompanyID)
	if err != nil {
		if errors.Is(err, repository.ErrCompanyNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}

	return company, nil
}

// UpdateCompany applies a sanitized partial update to the caller's
// company. OWNER or ADMIN only. The target id is always the caller's
// tenant; no id is accepted from the input.
func (s *CompanyService) UpdateCompany(ctx context.Context, input UpdateCompanyInput) (*model.Company, error) {
	ident, err := auth.RequireRole(ctx, model.RoleOwner, model.RoleAdmin)
	if err != nil {
		return nil, err
	}

	fields, err := sanitizeCompanyUpdate(input)
	if err != nil {
		return nil, err
	}

	company, err := s.store.UpdateCompanyFields(ctx, ident.CompanyID, fields)
	if err != nil {
		if errors.Is(err, repository.ErrCompanyNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}

	s.metrics.IncCompanyUpdated()

	return company, nil
}

// UpdateSubscription runs the plan state machine for the caller's
// company. OWNER only. The write is a compare-and-swap keyed on the
// expiry observed at read time, retried a bounded number of times so
// concurrent renewals compound instead of overwriting each other.
func (s *CompanyService) UpdateSubscription(ctx context.Context, plan model.Plan) (*model.Company, error) {
	ident, err := auth.RequireRole(ctx, model.RoleOwner)
	if err != nil {
		return nil, err
	}

	if !plan.IsValid() {
		return nil, ErrInvalidPlan
	}

	start := s.now()
	defer func() {
		s.metrics.ObserveSubscriptionDuration(time.Since(start))
	}()

	for attempt := 0; attempt < maxSubscriptionAttempts; attempt++ {
		company, err := s.store.GetCompanyByID(ctx, ident.CompanyID)
		if err != nil {
			if errors.Is(err, repository.ErrCompanyNotFound) {
				return nil, ErrCompanyNotFound
			}
			return nil, err
		}

		newExpiry, status := s.nextSubscriptionState(company, plan)

		updated, err := s.store.UpdateSubscriptionCAS(ctx, company.ID, company.PlanExpiresAt, plan, status, newExpiry)
		if err != nil {
			if errors.Is(err, repository.ErrConcurrentUpdate) {
				s.metrics.IncSubscriptionConflict()
				continue
			}
			if errors.Is(err, repository.ErrCompanyNotFound) {
				return nil, ErrCompanyNotFound
			}
			return nil, err
		}

		s.metrics.IncSubscriptionUpdated(string(plan))
		return updated, nil
	}

	return nil, ErrSubscriptionBusy
}

// nextSubscriptionState computes the target (expiry, status) for a plan
// transition against the current row.
//
// Paid plans extend 30 days from the later of now and the current
// expiry, so unexpired time is never lost and lapsed time is never
// carried over. Requesting the current plan again is a renewal, not a
// no-op. FREE clears the expiry and forfeits any remaining paid time.
//
// A SUSPENDED company stays SUSPENDED: suspension is an administrative
// state owned elsewhere and a plan change must not lift it. Every other
// status becomes ACTIVE.
func (s *CompanyService) nextSubscriptionState(company *model.Company, plan model.Plan) (*time.Time, model.CompanyStatus) {
	status := model.StatusActive
	if company.Status == model.StatusSuspended {
		status = model.StatusSuspended
	}

	if !plan.IsPaid() {
		return nil, status
	}

	now := s.now()
	extensionStart := now
	if company.PlanExpiresAt != nil && company.PlanExpiresAt.After(now) {
		extensionStart = *company.PlanExpiresAt
	}

	expiry := extensionStart.Add(planExtension)
	return &expiry, status
}

// CompanyUsers lists the members of a company, newest first. The company
// id must come from an already scope-checked company read.
func (s *CompanyService) CompanyUsers(ctx context.Context, companyID string) ([]*model.User, error) {
	return s.store.ListUsersByCompany(ctx, companyID)
}

// CompanyUserCount counts the members of a company. Same scoping rule as
// CompanyUsers.
func (s *CompanyService) CompanyUserCount(ctx context.Context, companyID string) (int64, error) {
	return s.store.CountUsersByCompany(ctx, companyID)
}
