package taxrates

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractnest/contractnest/internal/platform/httpx"
	"github.com/contractnest/contractnest/internal/shared"
)

type fakeIdempotency struct {
	seen    map[string]bool
	deleted []string
}

func (f *fakeIdempotency) CheckAndInsert(ctx context.Context, tenantID uuid.UUID, key, module string) error {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[key] {
		return shared.ErrIdempotencyConflict
	}
	f.seen[key] = true
	return nil
}

func (f *fakeIdempotency) Delete(ctx context.Context, tenantID uuid.UUID, key string) error {
	delete(f.seen, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func newTestRouter(svc Operations, idem shared.IdempotencyChecker, authenticated bool) http.Handler {
	r := chi.NewRouter()
	if authenticated {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(shared.ContextWithPrincipal(req.Context(), testPrincipal())))
			})
		})
	}
	r.Route("/tax-rates", NewHandler(nil, svc, idem).MountRoutes)
	return r
}

func doRequest(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeProblem(t *testing.T, rr *httptest.ResponseRecorder) httpx.ProblemDetail {
	t.Helper()
	var p httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	return p
}

func TestHandlerListReturnsSnakeCase(t *testing.T) {
	rate := seedRate("GST", "18", 1, true)
	svc, _, _ := newTestService(newMockRepository(rate))
	h := newTestRouter(svc, nil, true)

	rr := doRequest(h, http.MethodGet, "/tax-rates/", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, true, body.Data[0]["is_default"])
	assert.Equal(t, float64(1), body.Data[0]["sequence_no"])
	assert.Equal(t, float64(18), body.Data[0]["rate"])
}

func TestHandlerRequiresPrincipal(t *testing.T) {
	svc, _, _ := newTestService(newMockRepository())
	rr := doRequest(newTestRouter(svc, nil, false), http.MethodGet, "/tax-rates/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandlerCreateValidationProblem(t *testing.T) {
	svc, _, _ := newTestService(newMockRepository())
	h := newTestRouter(svc, nil, true)

	rr := doRequest(h, http.MethodPost, "/tax-rates/", `{"name":"","rate":12.345}`, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))

	p := decodeProblem(t, rr)
	assert.Equal(t, httpx.CodeValidation, p.Code)
	assert.Contains(t, p.Errors, FieldName)
	assert.Contains(t, p.Errors, FieldRate)
}

func TestHandlerCreateIdempotency(t *testing.T) {
	svc, _, _ := newTestService(newMockRepository())
	idem := &fakeIdempotency{}
	h := newTestRouter(svc, idem, true)
	headers := map[string]string{"Idempotency-Key": "abc"}

	rr := doRequest(h, http.MethodPost, "/tax-rates/", `{"name":"GST","rate":18}`, headers)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doRequest(h, http.MethodPost, "/tax-rates/", `{"name":"GST","rate":18}`, headers)
	require.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, CodeDuplicateRequest, decodeProblem(t, rr).Code)
}

func TestHandlerCreateFailureReleasesKey(t *testing.T) {
	svc, _, _ := newTestService(newMockRepository())
	idem := &fakeIdempotency{}
	h := newTestRouter(svc, idem, true)

	rr := doRequest(h, http.MethodPost, "/tax-rates/", `{"name":"GST","rate":180}`, map[string]string{"Idempotency-Key": "k1"})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, []string{"k1"}, idem.deleted)
}

func TestHandlerDuplicateRate(t *testing.T) {
	svc, _, _ := newTestService(newMockRepository(seedRate("GST", "18", 1, false)))
	h := newTestRouter(svc, nil, true)

	rr := doRequest(h, http.MethodPost, "/tax-rates/", `{"name":"GST","rate":"18"}`, nil)
	require.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, CodeDuplicateRate, decodeProblem(t, rr).Code)
}

func TestHandlerDeleteDefaultConflict(t *testing.T) {
	def := seedRate("VAT", "5", 1, true)
	svc, _, _ := newTestService(newMockRepository(def))
	h := newTestRouter(svc, nil, true)

	rr := doRequest(h, http.MethodDelete, "/tax-rates/"+def.ID.String(), "", nil)
	require.Equal(t, http.StatusConflict, rr.Code)
	p := decodeProblem(t, rr)
	assert.Equal(t, CodeCannotDeleteDefault, p.Code)
	assert.Contains(t, p.Detail, "default tax rate cannot be deleted")
}

func TestHandlerDeleteAndPatch(t *testing.T) {
	rate := seedRate("GST", "18", 1, false)
	svc, _, _ := newTestService(newMockRepository(rate, seedRate("VAT", "5", 2, true)))
	h := newTestRouter(svc, nil, true)

	rr := doRequest(h, http.MethodPatch, "/tax-rates/"+rate.ID.String(), `{"description":"Goods"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var updated taxRateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Equal(t, "Goods", updated.Description)
	assert.Equal(t, "GST", updated.Name)

	rr = doRequest(h, http.MethodPatch, "/tax-rates/"+rate.ID.String(), `{}`, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, CodeNoChanges, decodeProblem(t, rr).Code)

	rr = doRequest(h, http.MethodDelete, "/tax-rates/"+rate.ID.String(), "", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestHandlerSetDefaultReturnsList(t *testing.T) {
	old := seedRate("VAT", "5", 1, true)
	next := seedRate("GST", "18", 2, false)
	svc, _, _ := newTestService(newMockRepository(old, next))
	h := newTestRouter(svc, nil, true)

	rr := doRequest(h, http.MethodPost, "/tax-rates/"+next.ID.String()+"/default", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var body listResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.False(t, body.Data[0].IsDefault)
	assert.True(t, body.Data[1].IsDefault)
}

func TestHandlerBadIDs(t *testing.T) {
	svc, _, _ := newTestService(newMockRepository())
	h := newTestRouter(svc, nil, true)

	rr := doRequest(h, http.MethodDelete, "/tax-rates/not-a-uuid", "", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, CodeInvalidID, decodeProblem(t, rr).Code)

	rr = doRequest(h, http.MethodDelete, "/tax-rates/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
