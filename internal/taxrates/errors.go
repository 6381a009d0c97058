package taxrates

import (
	"github.com/contractnest/contractnest/internal/platform/httpx"
)

// Error codes returned to API clients.
const (
	CodeDuplicateRate       = "DUPLICATE_TAX_RATE"
	CodeCannotDeleteDefault = "CANNOT_DELETE_DEFAULT"
	CodeNoChanges           = "NO_CHANGES"
	CodeInvalidID           = "INVALID_TAX_RATE_ID"
	// CodeDuplicateRequest answers a create whose Idempotency-Key was
	// already used by a successful create.
	CodeDuplicateRequest = "DUPLICATE_REQUEST"
)

// Domain errors for tax rates.
var (
	ErrNotFound            = httpx.NewError(httpx.CodeNotFound, "tax rate not found", httpx.ErrNotFound)
	ErrDuplicateRate       = httpx.NewError(CodeDuplicateRate, "a tax rate with this name and rate already exists", httpx.ErrDuplicate)
	ErrCannotDeleteDefault = httpx.NewError(CodeCannotDeleteDefault, "the default tax rate cannot be deleted; set another rate as default first", httpx.ErrConflict)
	ErrNoChanges           = httpx.NewError(CodeNoChanges, "no fields to update", httpx.ErrValidation)
	ErrInvalidID           = httpx.NewError(CodeInvalidID, "invalid tax rate ID", httpx.ErrValidation)
)
