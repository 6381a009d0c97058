package tenantprofile

import "github.com/contractnest/contractnest/internal/platform/httpx"

// Error codes returned to API clients.
const (
	CodeProfileNotFound = "PROFILE_NOT_FOUND"
	CodeLogoTooLarge    = "LOGO_TOO_LARGE"
	CodeLogoType        = "LOGO_UNSUPPORTED_TYPE"
	CodeLogoMissing     = "LOGO_MISSING"
)

var (
	ErrNotFound  = httpx.NewError(CodeProfileNotFound, "tenant profile has not been created yet", httpx.ErrNotFound)
	ErrLogoEmpty = httpx.NewError(CodeLogoMissing, "logo file is empty", httpx.ErrValidation)
)
