package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/contractnest/contractnest/internal/auth"
	"github.com/contractnest/contractnest/internal/shared"
	_ "github.com/contractnest/contractnest/testing"
)

type stubRepo struct {
	mu      sync.Mutex
	tokens  map[string]auth.Token
	touched []uuid.UUID
}

func newStubRepo() *stubRepo {
	return &stubRepo{tokens: map[string]auth.Token{}}
}

func (s *stubRepo) FindByPrefix(ctx context.Context, tenantID uuid.UUID, prefix string) (*auth.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[prefix]
	if !ok || t.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return &t, nil
}

func (s *stubRepo) Insert(ctx context.Context, token auth.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.Prefix] = token
	return nil
}

func (s *stubRepo) Touch(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = append(s.touched, id)
	return nil
}

func (s *stubRepo) Revoke(ctx context.Context, tenantID uuid.UUID, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[prefix]
	if !ok {
		return shared.ErrNotFound
	}
	t.Revoked = true
	s.tokens[prefix] = t
	return nil
}

func TestIssueAndAuthenticate(t *testing.T) {
	repo := newStubRepo()
	svc := auth.NewService(repo).WithCost(bcrypt.MinCost)
	tenant, actor := uuid.New(), uuid.New()

	issued, err := svc.Issue(context.Background(), tenant, actor, "console")
	require.NoError(t, err)
	assert.NotContains(t, issued.Token.SecretHash, strings.SplitN(issued.Plaintext, ".", 2)[1])

	p, err := svc.Authenticate(context.Background(), tenant, issued.Plaintext)
	require.NoError(t, err)
	assert.Equal(t, shared.Principal{TenantID: tenant, ActorID: actor, TokenName: "console"}, p)
	assert.Equal(t, []uuid.UUID{issued.Token.ID}, repo.touched)
}

func TestAuthenticateRejects(t *testing.T) {
	repo := newStubRepo()
	svc := auth.NewService(repo).WithCost(bcrypt.MinCost)
	tenant := uuid.New()
	issued, err := svc.Issue(context.Background(), tenant, uuid.New(), "console")
	require.NoError(t, err)
	prefix := issued.Token.Prefix

	cases := map[string]struct {
		tenant uuid.UUID
		bearer string
	}{
		"malformed":    {tenant, "no-dot"},
		"wrong secret": {tenant, prefix + ".deadbeef"},
		"wrong tenant": {uuid.New(), issued.Plaintext},
		"unknown":      {tenant, "abc.def"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Authenticate(context.Background(), tc.tenant, tc.bearer)
			assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
		})
	}

	require.NoError(t, svc.Revoke(context.Background(), tenant, prefix))
	_, err = svc.Authenticate(context.Background(), tenant, issued.Plaintext)
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestMiddleware(t *testing.T) {
	repo := newStubRepo()
	svc := auth.NewService(repo).WithCost(bcrypt.MinCost)
	tenant := uuid.New()
	issued, err := svc.Issue(context.Background(), tenant, uuid.New(), "console")
	require.NoError(t, err)

	var seen shared.Principal
	h := auth.Middleware(svc, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = shared.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tax-rates", nil)
	req.Header.Set(auth.TenantHeader, tenant.String())
	req.Header.Set("Authorization", "Bearer "+issued.Plaintext)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, tenant, seen.TenantID)

	for name, mutate := range map[string]func(*http.Request){
		"no tenant":  func(r *http.Request) { r.Header.Del(auth.TenantHeader) },
		"no bearer":  func(r *http.Request) { r.Header.Del("Authorization") },
		"bad bearer": func(r *http.Request) { r.Header.Set("Authorization", "Bearer x.y") },
		"basic auth": func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") },
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/tax-rates", nil)
			req.Header.Set(auth.TenantHeader, tenant.String())
			req.Header.Set("Authorization", "Bearer "+issued.Plaintext)
			mutate(req)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
		})
	}
}
