package tenantprofile

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractnest/contractnest/internal/platform/httpx"
	"github.com/contractnest/contractnest/internal/shared"
)

func newTestRouter(t *testing.T) (http.Handler, *memoryRepository) {
	t.Helper()
	repo := newMemoryRepository()
	svc := NewService(ServiceDeps{Repo: repo, Logos: NewLogoStore(t.TempDir(), "/media", 0)})
	h := NewHandler(nil, svc, 0)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithPrincipal(req.Context(), testPrincipal())))
		})
	})
	r.Route("/tenant", h.MountRoutes)
	r.Route("/catalog", h.MountCatalog)
	return r, repo
}

func TestProfileRoundTrip(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/tenant/profile", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)

	body := `{"business_name":"Acme","business_type_id":"buyer","address":{"country_code":"de","city":"Berlin"},"branding":{"primary_color":"#ABCDEF"}}`
	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/tenant/profile", strings.NewReader(body))
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/tenant/profile", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var got Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "Acme", got.BusinessName)
	assert.Equal(t, "DE", got.Address.CountryCode)
	assert.Equal(t, "#abcdef", got.Branding.PrimaryColor)
}

func TestProfileValidationProblem(t *testing.T) {
	h, repo := newTestRouter(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/tenant/profile", strings.NewReader(`{"business_name":""}`)))
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var p httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.Contains(t, p.Errors, FieldBusinessName)
	assert.Equal(t, 0, repo.upserts)
}

func TestUploadLogoMultipart(t *testing.T) {
	h, _ := newTestRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("logo", "logo.png")
	require.NoError(t, err)
	_, err = part.Write(pngHeader)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/tenant/logo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var res logoResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.True(t, strings.HasPrefix(res.URL, "/media/"))
}

func TestUploadLogoMissingField(t *testing.T) {
	h, _ := newTestRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/tenant/logo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var p httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.Equal(t, CodeLogoMissing, p.Code)
}

func TestCatalogRoutes(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/catalog/industries", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var industries listResponse[Industry]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &industries))
	assert.Equal(t, Industries(), industries.Data)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/catalog/business-types", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var types listResponse[BusinessType]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &types))
	assert.Len(t, types.Data, len(BusinessTypes()))
}
