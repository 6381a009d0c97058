package tenantprofile

import (
	"time"

	"github.com/google/uuid"
)

// Profile is one tenant's onboarding data. Everything except BusinessName is
// optional.
type Profile struct {
	TenantID                 uuid.UUID `json:"tenant_id"`
	BusinessTypeID           string    `json:"business_type_id" validate:"omitempty,max=64"`
	IndustryID               string    `json:"industry_id" validate:"omitempty,max=64"`
	BusinessName             string    `json:"business_name" validate:"required,max=255"`
	BusinessEmail            string    `json:"business_email" validate:"omitempty,email,max=255"`
	BusinessPhoneCountryCode string    `json:"business_phone_country_code" validate:"omitempty,startswith=+,max=5"`
	BusinessPhone            string    `json:"business_phone" validate:"omitempty,numeric,min=4,max=20"`
	WebsiteURL               string    `json:"website_url" validate:"omitempty,url,max=500"`
	Address                  Address   `json:"address"`
	Branding                 Branding  `json:"branding"`
	OnboardedAt              time.Time `json:"onboarded_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

// Address of the organisation.
type Address struct {
	Line1       string `json:"line1" validate:"omitempty,max=255"`
	Line2       string `json:"line2" validate:"omitempty,max=255"`
	CountryCode string `json:"country_code" validate:"omitempty,iso3166_1_alpha2"`
	StateCode   string `json:"state_code" validate:"omitempty,max=10"`
	City        string `json:"city" validate:"omitempty,max=100"`
	PostalCode  string `json:"postal_code" validate:"omitempty,max=20"`
}

// Branding holds the tenant's logo and colours.
type Branding struct {
	LogoURL        string `json:"logo_url" validate:"omitempty,uri,max=1000"`
	PrimaryColor   string `json:"primary_color" validate:"omitempty,hexcolor"`
	SecondaryColor string `json:"secondary_color" validate:"omitempty,hexcolor"`
}
