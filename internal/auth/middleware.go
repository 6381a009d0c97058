package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/contractnest/contractnest/internal/platform/httpx"
	"github.com/contractnest/contractnest/internal/shared"
)

// TenantHeader carries the tenant the caller acts for.
const TenantHeader = "X-Tenant-ID"

// Authenticator resolves request credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, tenantID uuid.UUID, bearer string) (shared.Principal, error)
}

// Middleware rejects requests without a valid tenant token and stores the
// principal in the request context.
func Middleware(authn Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID, err := uuid.Parse(strings.TrimSpace(r.Header.Get(TenantHeader)))
			if err != nil {
				httpx.CodedProblem(w, http.StatusUnauthorized, "Unauthorized", "missing or invalid "+TenantHeader+" header", httpx.CodeUnauthorized)
				return
			}
			bearer, ok := bearerToken(r)
			if !ok {
				httpx.CodedProblem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token", httpx.CodeUnauthorized)
				return
			}
			principal, err := authn.Authenticate(r.Context(), tenantID, bearer)
			if err != nil {
				if !errors.Is(err, shared.ErrInvalidCredentials) {
					logger.Error("authenticate token", slog.Any("error", err), slog.String("tenant_id", tenantID.String()))
					httpx.RespondError(w, err)
					return
				}
				httpx.CodedProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials", httpx.CodeUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
