package service

import "github.com/orgbase/orgbase/internal/validate"

// UpdateCompanyInput defines the recognized fields of a partial company
// update. Nil means "not supplied"; company id is deliberately absent.
type UpdateCompanyInput struct {
	Name          *string
	Website       *string
	Phone         *string
	Industry      *string
	Country       *string
	EmployeeCount *int
}

// sanitizeCompanyUpdate validates the format-checked fields and builds
// the write payload, keyed by column name.
//
// Nil and empty-string values are dropped rather than written as clears;
// every other supplied value passes through unchanged, including zeroes.
// Validation runs only on present non-empty values and aborts on the
// first offending field, before anything is written.
func sanitizeCompanyUpdate(input UpdateCompanyInput) (map[string]any, error) {
	if supplied(input.Name) && !validate.CompanyName(*input.Name) {
		return nil, ErrInvalidName
	}
	if supplied(input.Website) && !validate.WebsiteURL(*input.Website) {
		return nil, ErrInvalidWebsite
	}
	if supplied(input.Phone) && !validate.Phone(*input.Phone) {
		return nil, ErrInvalidPhone
	}

	fields := make(map[string]any)
	putString(fields, "name", input.Name)
	putString(fields, "website", input.Website)
	putString(fields, "phone", input.Phone)
	putString(fields, "industry", input.Industry)
	putString(fields, "country", input.Country)
	if input.EmployeeCount != nil {
		// Zero is meaningful and survives the filter.
		fields["employee_count"] = *input.EmployeeCount
	}

	return fields, nil
}

func supplied(v *string) bool {
	return v != nil && *v != ""
}

func putString(fields map[string]any, column string, v *string) {
	if supplied(v) {
		fields[column] = *v
	}
}
