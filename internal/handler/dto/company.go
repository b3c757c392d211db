// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/orgbase/orgbase/internal/model"
)

// UpdateCompanyRequest represents the request body for a partial company
// update. Absent and null fields are indistinguishable after decoding;
// both are treated as "leave unchanged".
type UpdateCompanyRequest struct {
	Name          *string `json:"name,omitempty"`
	Website       *string `json:"website,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	Industry      *string `json:"industry,omitempty"`
	Country       *string `json:"country,omitempty"`
	EmployeeCount *int    `json:"employee_count,omitempty"`
}

// UpdateSubscriptionRequest represents the request body for a plan change.
type UpdateSubscriptionRequest struct {
	Plan string `json:"plan"`
}

// UserResponse represents a company member in API responses.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// CompanyResponse represents a company in API responses.
// Slug and SubscriptionPlan are read-time projections: the slug is
// derived from the name when none is stored, and SubscriptionPlan
// aliases the stored plan column.
type CompanyResponse struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Slug             string         `json:"slug"`
	Website          string         `json:"website,omitempty"`
	Phone            string         `json:"phone,omitempty"`
	Industry         string         `json:"industry,omitempty"`
	Country          string         `json:"country,omitempty"`
	EmployeeCount    int            `json:"employee_count"`
	SubscriptionPlan string         `json:"subscription_plan"`
	Status           string         `json:"status"`
	PlanExpiresAt    *time.Time     `json:"plan_expires_at,omitempty"`
	Users            []UserResponse `json:"users"`
	UserCount        int64          `json:"user_count"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToUserResponse converts a User model to UserResponse DTO.
func ToUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}

// ToCompanyResponse converts a Company model plus its member projection
// to a CompanyResponse DTO.
func ToCompanyResponse(company *model.Company, users []*model.User, userCount int64) *CompanyResponse {
	members := make([]UserResponse, len(users))
	for i, user := range users {
		members[i] = ToUserResponse(user)
	}

	return &CompanyResponse{
		ID:               company.ID,
		Name:             company.Name,
		Slug:             company.DerivedSlug(),
		Website:          company.Website,
		Phone:            company.Phone,
		Industry:         company.Industry,
		Country:          company.Country,
		EmployeeCount:    company.EmployeeCount,
		SubscriptionPlan: string(company.Plan),
		Status:           string(company.Status),
		PlanExpiresAt:    company.PlanExpiresAt,
		Users:            members,
		UserCount:        userCount,
		CreatedAt:        company.CreatedAt,
		UpdatedAt:        company.UpdatedAt,
	}
}
