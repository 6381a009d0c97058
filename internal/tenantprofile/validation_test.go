package tenantprofile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractnest/contractnest/internal/validation"
)

func validProfile() Profile {
	return Profile{
		BusinessTypeID:           "service_provider",
		IndustryID:               "healthcare",
		BusinessName:             "Acme Clinics",
		BusinessEmail:            "ops@acme.test",
		BusinessPhoneCountryCode: "+91",
		BusinessPhone:            "9876543210",
		WebsiteURL:               "https://acme.test",
		Address:                  Address{CountryCode: "IN", City: "Pune"},
		Branding:                 Branding{PrimaryColor: "#1a73e8", LogoURL: "/media/t/logo.png"},
	}
}

func TestValidateAcceptsCompleteProfile(t *testing.T) {
	assert.NoError(t, Validate(Normalise(validProfile())))
}

func TestValidateOnlyBusinessNameIsRequired(t *testing.T) {
	err := Validate(Normalise(Profile{BusinessName: "  "}))
	verrs, ok := validation.AsErrors(err)
	require.True(t, ok)
	assert.Equal(t, []string{FieldBusinessName}, verrs.Fields())
	assert.Equal(t, validation.KindRequired, verrs[FieldBusinessName].Kind)
	assert.Equal(t, "Business name is required", verrs[FieldBusinessName].Message)

	assert.NoError(t, Validate(Normalise(Profile{BusinessName: "Acme"})))
}

func TestValidateReportsNestedFields(t *testing.T) {
	p := validProfile()
	p.BusinessEmail = "not-an-email"
	p.Address.CountryCode = "XX"
	p.Branding.PrimaryColor = "blue"
	p.IndustryID = "astrology"

	verrs, ok := validation.AsErrors(Validate(Normalise(p)))
	require.True(t, ok)
	assert.ElementsMatch(t, []string{FieldBusinessEmail, FieldCountryCode, FieldPrimaryColor, FieldIndustryID}, verrs.Fields())
	assert.Equal(t, "Primary colour must be a hex colour such as #1a73e8", verrs[FieldPrimaryColor].Message)
}

func TestNormaliseCanonicalises(t *testing.T) {
	p := Normalise(Profile{
		BusinessName:  "  Acme  ",
		BusinessPhone: "98765 43210",
		Address:       Address{CountryCode: "in"},
		Branding:      Branding{PrimaryColor: "#1A73E8"},
	})
	assert.Equal(t, "Acme", p.BusinessName)
	assert.Equal(t, "9876543210", p.BusinessPhone)
	assert.Equal(t, "IN", p.Address.CountryCode)
	assert.Equal(t, "#1a73e8", p.Branding.PrimaryColor)
}

func TestBusinessNameTooLong(t *testing.T) {
	p := validProfile()
	p.BusinessName = strings.Repeat("a", 256)
	verrs, ok := validation.AsErrors(Validate(p))
	require.True(t, ok)
	assert.Equal(t, validation.KindTooLong, verrs[FieldBusinessName].Kind)
}
