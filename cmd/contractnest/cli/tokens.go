package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/contractnest/contractnest/internal/auth"
)

// TokenIssuer is the auth surface used by the token commands.
type TokenIssuer interface {
	Issue(ctx context.Context, tenantID, actorID uuid.UUID, name string) (auth.IssuedToken, error)
	Revoke(ctx context.Context, tenantID uuid.UUID, prefix string) error
}

// IssueToken mints a token and prints the plaintext once.
func IssueToken(ctx context.Context, out io.Writer, issuer TokenIssuer, tenant, actor, name string) error {
	tenantID, err := uuid.Parse(tenant)
	if err != nil {
		return fmt.Errorf("tenant id: %w", err)
	}
	actorID, err := uuid.Parse(actor)
	if err != nil {
		return fmt.Errorf("actor id: %w", err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("token name is required")
	}
	issued, err := issuer.Issue(ctx, tenantID, actorID, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "token %q issued for tenant %s\n", issued.Token.Name, tenantID)
	fmt.Fprintf(out, "prefix: %s\n", issued.Token.Prefix)
	fmt.Fprintf(out, "secret: %s\n", issued.Plaintext)
	fmt.Fprintln(out, "store the secret now, it cannot be shown again")
	return nil
}

// RevokeToken disables a token by prefix.
func RevokeToken(ctx context.Context, out io.Writer, issuer TokenIssuer, tenant, prefix string) error {
	tenantID, err := uuid.Parse(tenant)
	if err != nil {
		return fmt.Errorf("tenant id: %w", err)
	}
	if err := issuer.Revoke(ctx, tenantID, strings.TrimSpace(prefix)); err != nil {
		return err
	}
	fmt.Fprintf(out, "token %s revoked\n", prefix)
	return nil
}
