package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractnest/contractnest/internal/taxrates"
	"github.com/contractnest/contractnest/internal/tenantprofile"
	"github.com/contractnest/contractnest/internal/validation"
)

var (
	tenant = uuid.MustParse("44444444-4444-4444-4444-444444444444")
	rateID = uuid.MustParse("55555555-5555-5555-5555-555555555555")
)

type captured struct {
	method string
	path   string
	header http.Header
	body   string
}

func newTestClient(t *testing.T, status int, response string, got *captured) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if got != nil {
			*got = captured{method: r.Method, path: r.URL.RequestURI(), header: r.Header.Clone(), body: string(raw)}
		}
		if status >= 400 {
			w.Header().Set("Content-Type", "application/problem+json")
		} else {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/", TenantID: tenant, Token: "pfx.secret"})
}

func TestListTaxRatesMapsWireNames(t *testing.T) {
	var got captured
	c := newTestClient(t, http.StatusOK, `{"data":[{"id":"`+rateID.String()+`","name":"GST","rate":18.5,"description":"","is_default":true,"sequence_no":3}]}`, &got)

	rates, err := c.ListTaxRates(context.Background())
	require.NoError(t, err)

	want := []taxrates.TaxRate{{ID: rateID, Name: "GST", Rate: decimal.RequireFromString("18.5"), IsDefault: true, SequenceNo: 3}}
	if diff := cmp.Diff(want, rates, cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })); diff != "" {
		t.Fatalf("rates mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "/api/v1/tax-rates", got.path)
	assert.Equal(t, tenant.String(), got.header.Get("X-Tenant-ID"))
	assert.Equal(t, "Bearer pfx.secret", got.header.Get("Authorization"))
}

func TestCreateTaxRateSendsNumber(t *testing.T) {
	var got captured
	c := newTestClient(t, http.StatusCreated, `{"id":"`+rateID.String()+`","name":"GST","rate":18,"sequence_no":1}`, &got)

	created, err := c.CreateTaxRate(context.Background(), taxrates.CreateInput{Name: "GST", Rate: "18."}, "key-1")
	require.NoError(t, err)
	assert.Equal(t, rateID, created.ID)
	assert.JSONEq(t, `{"name":"GST","rate":18,"description":"","is_default":false}`, got.body)
	assert.Equal(t, "key-1", got.header.Get("Idempotency-Key"))
}

func TestUpdateTaxRateSendsOnlyPatchedFields(t *testing.T) {
	var got captured
	c := newTestClient(t, http.StatusOK, `{"id":"`+rateID.String()+`","name":"GST","rate":18.5}`, &got)

	rate := "18.5"
	_, err := c.UpdateTaxRate(context.Background(), rateID, taxrates.Patch{Rate: &rate})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, got.method)
	assert.Equal(t, "/api/v1/tax-rates/"+rateID.String(), got.path)
	assert.JSONEq(t, `{"rate":18.5}`, got.body)
}

func TestErrorsCarryCodesAndFields(t *testing.T) {
	c := newTestClient(t, http.StatusConflict, `{"title":"Conflict","status":409,"detail":"the default tax rate cannot be deleted; set another rate as default first","code":"CANNOT_DELETE_DEFAULT"}`, nil)
	err := c.DeleteTaxRate(context.Background(), rateID)
	require.Error(t, err)
	assert.Equal(t, taxrates.CodeCannotDeleteDefault, Code(err))
	assert.Equal(t, "Cannot delete the default tax rate. Set another rate as default first.", Message(err))

	c = newTestClient(t, http.StatusUnprocessableEntity, `{"title":"Validation Failed","status":422,"detail":"Please fix the highlighted fields","code":"VALIDATION_FAILED","errors":{"rate":{"field":"rate","kind":"OUT_OF_RANGE","message":"Rate must be between 0 and 100"}}}`, nil)
	_, err = c.CreateTaxRate(context.Background(), taxrates.CreateInput{Name: "GST", Rate: "180"}, "")
	fields, ok := FieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, validation.KindOutOfRange, fields["rate"].Kind)
	assert.True(t, errors.Is(err, validation.ErrValidation))
	assert.Equal(t, "Please fix the highlighted fields", Message(err))
}

func TestMessageFallbacks(t *testing.T) {
	assert.Equal(t, FallbackMessage, Message(errors.New("dial tcp: refused")))
	assert.Equal(t, FallbackMessage, Message(&Error{Status: 500, Message: "pq: relation missing"}))
	assert.Equal(t, FallbackMessage, Message(&Error{Status: 400}))
	assert.Equal(t, "nope", Message(&Error{Status: 400, Code: "SOMETHING_NEW", Message: "nope"}))
	assert.Equal(t, "", Message(nil))

	c := newTestClient(t, http.StatusBadGateway, `<html>bad gateway</html>`, nil)
	_, err := c.ListTaxRates(context.Background())
	assert.Equal(t, FallbackMessage, Message(err))
}

func TestProfileAndLogo(t *testing.T) {
	var got captured
	c := newTestClient(t, http.StatusNotFound, `{"title":"Not Found","status":404,"code":"PROFILE_NOT_FOUND"}`, &got)
	_, err := c.GetProfile(context.Background())
	assert.True(t, IsNotFound(err))

	c = newTestClient(t, http.StatusOK, `{"business_name":"Acme","address":{"city":"Pune"}}`, &got)
	saved, err := c.SaveProfile(context.Background(), tenantprofile.Profile{BusinessName: "Acme", Address: tenantprofile.Address{City: "Pune"}})
	require.NoError(t, err)
	assert.Equal(t, "Pune", saved.Address.City)
	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(got.body), &sent))
	assert.NotContains(t, sent, "tenant_id")
	assert.Equal(t, "Acme", sent["business_name"])

	c = newTestClient(t, http.StatusCreated, `{"url":"/media/t/logo.png"}`, &got)
	url, err := c.UploadLogo(context.Background(), "logo.png", strings.NewReader("\x89PNG"))
	require.NoError(t, err)
	assert.Equal(t, "/media/t/logo.png", url)
	assert.True(t, strings.HasPrefix(got.header.Get("Content-Type"), "multipart/form-data"))
	assert.Contains(t, got.body, `name="logo"; filename="logo.png"`)
}
