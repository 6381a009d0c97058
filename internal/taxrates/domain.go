// Package taxrates manages the tax percentages a tenant applies when billing
// service contracts.
package taxrates

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxRate represents one configurable tax percentage.
type TaxRate struct {
	ID          uuid.UUID       `json:"id"`
	TenantID    uuid.UUID       `json:"tenant_id"`
	Name        string          `json:"name"`
	Rate        decimal.Decimal `json:"rate"`
	Description string          `json:"description"`
	IsDefault   bool            `json:"is_default"`
	SequenceNo  int             `json:"sequence_no"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CreateInput carries raw create-form values.
type CreateInput struct {
	Name        string
	Rate        string
	Description string
	IsDefault   bool
}

// Patch carries raw values for the fields a caller changed. Nil fields are
// left untouched.
type Patch struct {
	Name        *string
	Rate        *string
	Description *string
	SequenceNo  *int
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Rate == nil && p.Description == nil && p.SequenceNo == nil
}

// Changes is a validated, normalised Patch handed to the repository.
type Changes struct {
	Name        *string
	Rate        *decimal.Decimal
	Description *string
	SequenceNo  *int
}
