package client

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/contractnest/contractnest/internal/tenantprofile"
	"github.com/contractnest/contractnest/internal/theme"
)

type profileWire struct {
	BusinessTypeID           string      `json:"business_type_id"`
	IndustryID               string      `json:"industry_id"`
	BusinessName             string      `json:"business_name"`
	BusinessEmail            string      `json:"business_email"`
	BusinessPhoneCountryCode string      `json:"business_phone_country_code"`
	BusinessPhone            string      `json:"business_phone"`
	WebsiteURL               string      `json:"website_url"`
	Address                  addressWire `json:"address"`
	Branding                 brandWire   `json:"branding"`
}

type addressWire struct {
	Line1       string `json:"line1"`
	Line2       string `json:"line2"`
	CountryCode string `json:"country_code"`
	StateCode   string `json:"state_code"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code"`
}

type brandWire struct {
	LogoURL        string `json:"logo_url"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
}

func toProfileWire(p tenantprofile.Profile) profileWire {
	return profileWire{
		BusinessTypeID:           p.BusinessTypeID,
		IndustryID:               p.IndustryID,
		BusinessName:             p.BusinessName,
		BusinessEmail:            p.BusinessEmail,
		BusinessPhoneCountryCode: p.BusinessPhoneCountryCode,
		BusinessPhone:            p.BusinessPhone,
		WebsiteURL:               p.WebsiteURL,
		Address:                  addressWire(p.Address),
		Branding:                 brandWire(p.Branding),
	}
}

type logoWire struct {
	URL string `json:"url"`
}

type listWire[T any] struct {
	Data []T `json:"data"`
}

// GetProfile fetches the tenant profile. Before onboarding the API answers
// 404; see IsNotFound.
func (c *Client) GetProfile(ctx context.Context) (tenantprofile.Profile, error) {
	var out tenantprofile.Profile
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/v1/tenant/profile"}, &out)
	return out, err
}

// SaveProfile replaces the tenant profile.
func (c *Client) SaveProfile(ctx context.Context, p tenantprofile.Profile) (tenantprofile.Profile, error) {
	req, err := jsonRequest(http.MethodPut, "/api/v1/tenant/profile", toProfileWire(p))
	if err != nil {
		return tenantprofile.Profile{}, err
	}
	var out tenantprofile.Profile
	if err := c.do(ctx, req, &out); err != nil {
		return tenantprofile.Profile{}, err
	}
	return out, nil
}

// UploadLogo sends the image as multipart field "logo" and returns its URL.
func (c *Client) UploadLogo(ctx context.Context, filename string, r io.Reader) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("logo", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}
	var out logoWire
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/api/v1/tenant/logo",
		body:        body,
		contentType: writer.FormDataContentType(),
	}, &out)
	return out.URL, err
}

// BusinessTypes fetches the business-type picker entries.
func (c *Client) BusinessTypes(ctx context.Context) ([]tenantprofile.BusinessType, error) {
	var out listWire[tenantprofile.BusinessType]
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/v1/catalog/business-types"}, &out)
	return out.Data, err
}

// Industries fetches the industry picker entries.
func (c *Client) Industries(ctx context.Context) ([]tenantprofile.Industry, error) {
	var out listWire[tenantprofile.Industry]
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/v1/catalog/industries"}, &out)
	return out.Data, err
}

// Palette fetches a resolved theme palette.
func (c *Client) Palette(ctx context.Context, id string, mode theme.Mode) (theme.Palette, error) {
	var out theme.Palette
	path := "/api/v1/themes/" + url.PathEscape(id) + "?mode=" + url.QueryEscape(string(mode))
	err := c.do(ctx, request{method: http.MethodGet, path: path}, &out)
	return out, err
}
