// Package model defines domain entities for the application.
package model

import (
	"regexp"
	"strings"
	"time"
)

// Plan represents a subscription tier.
type Plan string

const (
	PlanFree       Plan = "FREE"
	PlanStarter    Plan = "STARTER"
	PlanPro        Plan = "PRO"
	PlanEnterprise Plan = "ENTERPRISE"
)

// IsValid checks if the plan is a known tier.
func (p Plan) IsValid() bool {
	switch p {
	case PlanFree, PlanStarter, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

// IsPaid reports whether the plan carries a rolling expiry.
func (p Plan) IsPaid() bool {
	return p.IsValid() && p != PlanFree
}

// CompanyStatus represents the lifecycle state of a company.
type CompanyStatus string

const (
	StatusActive    CompanyStatus = "ACTIVE"
	StatusSuspended CompanyStatus = "SUSPENDED"
	StatusCancelled CompanyStatus = "CANCELLED"
)

// Company represents a tenant organization.
// One company owns many users; it is the unit of data isolation.
type Company struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Slug          string        `json:"slug,omitempty"`
	Website       string        `json:"website,omitempty"`
	Phone         string        `json:"phone,omitempty"`
	Industry      string        `json:"industry,omitempty"`
	Country       string        `json:"country,omitempty"`
	EmployeeCount int           `json:"employee_count"`
	Plan          Plan          `json:"plan"`
	Status        CompanyStatus `json:"status"`
	PlanExpiresAt *time.Time    `json:"plan_expires_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// slugPattern matches every maximal run of characters outside [a-z0-9].
var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a display name into a URL-safe slug: lowercase,
// non-alphanumeric runs collapsed to single hyphens, edge hyphens trimmed.
// Idempotent; a name with no alphanumerics yields the empty string.
func Slugify(name string) string {
	s := slugPattern.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}

// DerivedSlug returns the stored slug when one is set, otherwise a slug
// derived from the name. Derivation happens at read time only and is
// never written back.
func (c *Company) DerivedSlug() string {
	if c.Slug != "" {
		return c.Slug
	}
	return Slugify(c.Name)
}

// PlanExpired reports whether a paid plan has lapsed.
func (c *Company) PlanExpired() bool {
	return c.PlanExpiresAt != nil && time.Now().After(*c.PlanExpiresAt)
}
