package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/contractnest/contractnest/internal/taxrates"
	"github.com/contractnest/contractnest/internal/validation"
)

// Wire shapes for tax rates. The API speaks snake_case; callers only ever
// see taxrates.TaxRate.

type taxRateWire struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Rate        json.Number `json:"rate"`
	Description string      `json:"description"`
	IsDefault   bool        `json:"is_default"`
	SequenceNo  int         `json:"sequence_no"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type taxRateList struct {
	Data []taxRateWire `json:"data"`
}

type createTaxRateWire struct {
	Name        string      `json:"name"`
	Rate        json.Number `json:"rate"`
	Description string      `json:"description"`
	IsDefault   bool        `json:"is_default"`
}

type patchTaxRateWire struct {
	Name        *string      `json:"name,omitempty"`
	Rate        *json.Number `json:"rate,omitempty"`
	Description *string      `json:"description,omitempty"`
	SequenceNo  *int         `json:"sequence_no,omitempty"`
}

func (w taxRateWire) model() (taxrates.TaxRate, error) {
	rate, err := decimal.NewFromString(w.Rate.String())
	if err != nil {
		return taxrates.TaxRate{}, fmt.Errorf("client: tax rate %s: bad rate %q", w.ID, w.Rate)
	}
	return taxrates.TaxRate{
		ID:          w.ID,
		Name:        w.Name,
		Rate:        rate,
		Description: w.Description,
		IsDefault:   w.IsDefault,
		SequenceNo:  w.SequenceNo,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}, nil
}

func (l taxRateList) models() ([]taxrates.TaxRate, error) {
	out := make([]taxrates.TaxRate, 0, len(l.Data))
	for _, w := range l.Data {
		m, err := w.model()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// wireNumber canonicalises typed input such as "12." into a JSON number.
func wireNumber(raw string) (json.Number, error) {
	d, ok := validation.ParseDecimal(raw)
	if !ok {
		return "", fmt.Errorf("client: %q is not a number", raw)
	}
	return json.Number(d.String()), nil
}

// ListTaxRates fetches the tenant's tax rates.
func (c *Client) ListTaxRates(ctx context.Context) ([]taxrates.TaxRate, error) {
	var out taxRateList
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/v1/tax-rates"}, &out); err != nil {
		return nil, err
	}
	return out.models()
}

// CreateTaxRate creates a tax rate. idempotencyKey may be empty.
func (c *Client) CreateTaxRate(ctx context.Context, in taxrates.CreateInput, idempotencyKey string) (taxrates.TaxRate, error) {
	rate, err := wireNumber(in.Rate)
	if err != nil {
		return taxrates.TaxRate{}, err
	}
	req, err := jsonRequest(http.MethodPost, "/api/v1/tax-rates", createTaxRateWire{
		Name:        in.Name,
		Rate:        rate,
		Description: in.Description,
		IsDefault:   in.IsDefault,
	})
	if err != nil {
		return taxrates.TaxRate{}, err
	}
	if idempotencyKey != "" {
		req.headers = map[string]string{"Idempotency-Key": idempotencyKey}
	}
	var out taxRateWire
	if err := c.do(ctx, req, &out); err != nil {
		return taxrates.TaxRate{}, err
	}
	return out.model()
}

// UpdateTaxRate sends only the fields set in patch.
func (c *Client) UpdateTaxRate(ctx context.Context, id uuid.UUID, patch taxrates.Patch) (taxrates.TaxRate, error) {
	payload := patchTaxRateWire{Name: patch.Name, Description: patch.Description, SequenceNo: patch.SequenceNo}
	if patch.Rate != nil {
		rate, err := wireNumber(*patch.Rate)
		if err != nil {
			return taxrates.TaxRate{}, err
		}
		payload.Rate = &rate
	}
	req, err := jsonRequest(http.MethodPatch, "/api/v1/tax-rates/"+id.String(), payload)
	if err != nil {
		return taxrates.TaxRate{}, err
	}
	var out taxRateWire
	if err := c.do(ctx, req, &out); err != nil {
		return taxrates.TaxRate{}, err
	}
	return out.model()
}

// DeleteTaxRate removes a tax rate.
func (c *Client) DeleteTaxRate(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/api/v1/tax-rates/" + id.String()}, nil)
}

// SetDefaultTaxRate makes id the default and returns the server's list.
func (c *Client) SetDefaultTaxRate(ctx context.Context, id uuid.UUID) ([]taxrates.TaxRate, error) {
	var out taxRateList
	if err := c.do(ctx, request{method: http.MethodPost, path: "/api/v1/tax-rates/" + id.String() + "/default"}, &out); err != nil {
		return nil, err
	}
	return out.models()
}
