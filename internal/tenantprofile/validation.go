package tenantprofile

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/contractnest/contractnest/internal/validation"
)

// Field keys reported in validation errors. Nested fields use dotted paths.
const (
	FieldBusinessTypeID = "business_type_id"
	FieldIndustryID     = "industry_id"
	FieldBusinessName   = "business_name"
	FieldBusinessEmail  = "business_email"
	FieldWebsiteURL     = "website_url"
	FieldCountryCode    = "address.country_code"
	FieldPrimaryColor   = "branding.primary_color"
	FieldSecondaryColor = "branding.secondary_color"
)

var labels = map[string]string{
	FieldBusinessTypeID:           "Business type",
	FieldIndustryID:               "Industry",
	FieldBusinessName:             "Business name",
	FieldBusinessEmail:            "Business email",
	"business_phone_country_code": "Country calling code",
	"business_phone":              "Business phone",
	FieldWebsiteURL:               "Website",
	"address.line1":               "Address line 1",
	"address.line2":               "Address line 2",
	FieldCountryCode:              "Country",
	"address.state_code":          "State",
	"address.city":                "City",
	"address.postal_code":         "Postal code",
	"branding.logo_url":           "Logo",
	FieldPrimaryColor:             "Primary colour",
	FieldSecondaryColor:           "Secondary colour",
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Normalise trims free text and canonicalises codes and colours.
func Normalise(p Profile) Profile {
	trim := strings.TrimSpace
	p.BusinessTypeID = trim(p.BusinessTypeID)
	p.IndustryID = trim(p.IndustryID)
	p.BusinessName = trim(p.BusinessName)
	p.BusinessEmail = trim(p.BusinessEmail)
	p.BusinessPhoneCountryCode = trim(p.BusinessPhoneCountryCode)
	p.BusinessPhone = strings.NewReplacer(" ", "", "-", "").Replace(trim(p.BusinessPhone))
	p.WebsiteURL = trim(p.WebsiteURL)
	p.Address.Line1 = trim(p.Address.Line1)
	p.Address.Line2 = trim(p.Address.Line2)
	p.Address.CountryCode = strings.ToUpper(trim(p.Address.CountryCode))
	p.Address.StateCode = strings.ToUpper(trim(p.Address.StateCode))
	p.Address.City = trim(p.Address.City)
	p.Address.PostalCode = trim(p.Address.PostalCode)
	p.Branding.LogoURL = trim(p.Branding.LogoURL)
	p.Branding.PrimaryColor = strings.ToLower(trim(p.Branding.PrimaryColor))
	p.Branding.SecondaryColor = strings.ToLower(trim(p.Branding.SecondaryColor))
	return p
}

// Validate checks a normalised profile. The result is nil or validation.Errors.
func Validate(p Profile) error {
	errs := validation.Errors{}
	if err := validatorInstance().Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			errs.Add(translate(fe))
		}
	}
	if p.BusinessTypeID != "" && !knownBusinessType(p.BusinessTypeID) {
		errs.Add(validation.Violation{Field: FieldBusinessTypeID, Kind: validation.KindInvalidFormat, Message: "Business type is not recognised"})
	}
	if p.IndustryID != "" && !knownIndustry(p.IndustryID) {
		errs.Add(validation.Violation{Field: FieldIndustryID, Kind: validation.KindInvalidFormat, Message: "Industry is not recognised"})
	}
	return errs.Err()
}

func translate(fe validator.FieldError) validation.Violation {
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	label, ok := labels[field]
	if !ok {
		label = field
	}
	v := validation.Violation{Field: field, Kind: validation.KindInvalidFormat}
	switch fe.Tag() {
	case "required":
		v.Kind = validation.KindRequired
		v.Message = label + " is required"
	case "max":
		v.Kind = validation.KindTooLong
		v.Message = fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "min":
		v.Message = fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "email":
		v.Message = label + " must be a valid email address"
	case "url", "uri":
		v.Message = label + " must be a valid URL"
	case "hexcolor":
		v.Message = label + " must be a hex colour such as #1a73e8"
	case "iso3166_1_alpha2":
		v.Message = label + " must be a two-letter ISO country code"
	case "numeric":
		v.Message = label + " can only contain digits"
	case "startswith":
		v.Message = fmt.Sprintf("%s must start with %q", label, fe.Param())
	default:
		v.Message = label + " is invalid"
	}
	return v
}
