package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/orgbase/orgbase/internal/model"
)

// Common errors for company repository operations.
var (
	ErrCompanyNotFound  = errors.New("company not found")
	ErrConcurrentUpdate = errors.New("concurrent subscription update")
)

// companyColumns is the canonical select list for company rows.
const companyColumns = `id, name, slug, website, phone, industry, country, employee_count, plan, status, plan_expires_at, created_at, updated_at`

// companyUpdateColumns fixes the order in which sanitized fields are
// applied, so generated SQL is deterministic. Columns outside this list
// are never written by a partial update.
var companyUpdateColumns = []string{"name", "website", "phone", "industry", "country", "employee_count"}

// CreateCompany inserts a new company.
func (r *Repository) CreateCompany(ctx context.Context, company *model.Company) error {
	query := `
		INSERT INTO companies (id, name, slug, website, phone, industry, country, employee_count, plan, status, plan_expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.pool.Exec(ctx, query,
		company.ID,
		company.Name,
		company.Slug,
		company.Website,
		company.Phone,
		company.Industry,
		company.Country,
		company.EmployeeCount,
		company.Plan,
		company.Status,
		company.PlanExpiresAt,
		company.CreatedAt,
		company.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create company: %w", err)
	}

	return nil
}

// GetCompanyByID retrieves a company by its ID.
func (r *Repository) GetCompanyByID(ctx context.Context, id string) (*model.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`

	company, err := scanCompany(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to get company by ID: %w", err)
	}

	return company, nil
}

// UpdateCompanyFields applies a sanitized partial update and returns the
// updated row. The fields map is keyed by column name; keys outside the
// update whitelist are ignored. An empty map is a no-op read.
func (r *Repository) UpdateCompanyFields(ctx context.Context, id string, fields map[string]any) (*model.Company, error) {
	set := make([]string, 0, len(fields)+1)
	args := []any{id}
	arg := 2

	for _, col := range companyUpdateColumns {
		value, ok := fields[col]
		if !ok {
			continue
		}
		set = append(set, fmt.Sprintf("%s = $%d", col, arg))
		args = append(args, value)
		arg++
	}

	if len(set) == 0 {
		return r.GetCompanyByID(ctx, id)
	}

	set = append(set, "updated_at = NOW()")
	query := fmt.Sprintf(
		`UPDATE companies SET %s WHERE id = $1 RETURNING %s`,
		strings.Join(set, ", "), companyColumns,
	)

	company, err := scanCompany(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to update company: %w", err)
	}

	return company, nil
}

// UpdateSubscriptionCAS persists a subscription transition guarded by the
// expiry value observed when the row was read. If another writer changed
// the expiry in between, no row matches and ErrConcurrentUpdate is
// returned so the caller can re-read and retry.
func (r *Repository) UpdateSubscriptionCAS(
	ctx context.Context,
	id string,
	observedExpiry *time.Time,
	plan model.Plan,
	status model.CompanyStatus,
	newExpiry *time.Time,
) (*model.Company, error) {
	query := `
		UPDATE companies
		SET plan = $2, status = $3, plan_expires_at = $4, updated_at = NOW()
		WHERE id = $1 AND plan_expires_at IS NOT DISTINCT FROM $5
		RETURNING ` + companyColumns

	company, err := scanCompany(r.pool.QueryRow(ctx, query, id, plan, status, newExpiry, observedExpiry))
	if err == nil {
		return company, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}

	// No row matched: either the company is gone or the guard failed.
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM companies WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check company existence: %w", err)
	}
	if !exists {
		return nil, ErrCompanyNotFound
	}
	return nil, ErrConcurrentUpdate
}

// scanCompany scans a single row into a Company model.
func scanCompany(row pgx.Row) (*model.Company, error) {
	var company model.Company
	err := row.Scan(
		&company.ID,
		&company.Name,
		&company.Slug,
		&company.Website,
		&company.Phone,
		&company.Industry,
		&company.Country,
		&company.EmployeeCount,
		&company.Plan,
		&company.Status,
		&company.PlanExpiresAt,
		&company.CreatedAt,
		&company.UpdatedAt,
	)
	return &company, err
}
