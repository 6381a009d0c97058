package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contractnest/contractnest/internal/shared"
)

// Repository defines persistence operations for API tokens.
type Repository interface {
	FindByPrefix(ctx context.Context, tenantID uuid.UUID, prefix string) (*Token, error)
	Insert(ctx context.Context, token Token) error
	Touch(ctx context.Context, id uuid.UUID) error
	Revoke(ctx context.Context, tenantID uuid.UUID, prefix string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByPrefix fetches a token of the tenant by its public prefix.
func (r *PGRepository) FindByPrefix(ctx context.Context, tenantID uuid.UUID, prefix string) (*Token, error) {
	var t Token
	err := r.pool.QueryRow(ctx, `SELECT id, tenant_id, actor_id, name, prefix, secret_hash, revoked, created_at, last_used_at
FROM tenant_api_tokens WHERE tenant_id = $1 AND prefix = $2`, tenantID, prefix).
		Scan(&t.ID, &t.TenantID, &t.ActorID, &t.Name, &t.Prefix, &t.SecretHash, &t.Revoked, &t.CreatedAt, &t.LastUsedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("auth: find token: %w", err)
	}
	return &t, nil
}

// Insert stores a new token.
func (r *PGRepository) Insert(ctx context.Context, t Token) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO tenant_api_tokens (id, tenant_id, actor_id, name, prefix, secret_hash, revoked, created_at)
VALUES ($1, $2, $3, $4, $5, $6, FALSE, NOW())`, t.ID, t.TenantID, t.ActorID, t.Name, t.Prefix, t.SecretHash)
	if err != nil {
		return fmt.Errorf("auth: insert token: %w", err)
	}
	return nil
}

// Touch records the last successful use.
func (r *PGRepository) Touch(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE tenant_api_tokens SET last_used_at = NOW() WHERE id = $1`, id)
	return err
}

// Revoke disables a token.
func (r *PGRepository) Revoke(ctx context.Context, tenantID uuid.UUID, prefix string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tenant_api_tokens SET revoked = TRUE WHERE tenant_id = $1 AND prefix = $2`, tenantID, prefix)
	if err != nil {
		return fmt.Errorf("auth: revoke token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
