package taxrates

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/contractnest/contractnest/internal/platform/db"
)

const uniqueViolation = "23505"

// Repository defines persistence operations for tax rates.
type Repository interface {
	List(ctx context.Context, tenantID uuid.UUID) ([]TaxRate, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (TaxRate, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the mutating operations available inside a transaction.
type TxRepository interface {
	List(ctx context.Context, tenantID uuid.UUID) ([]TaxRate, error)
	GetForUpdate(ctx context.Context, tenantID, id uuid.UUID) (TaxRate, error)
	NextSequence(ctx context.Context, tenantID uuid.UUID) (int, error)
	Insert(ctx context.Context, rate TaxRate) (TaxRate, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, ch Changes) (TaxRate, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	ClearDefault(ctx context.Context, tenantID uuid.UUID) error
	MarkDefault(ctx context.Context, tenantID, id uuid.UUID) error
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// List returns every tax rate of the tenant in display order.
func (r *PGRepository) List(ctx context.Context, tenantID uuid.UUID) ([]TaxRate, error) {
	return listRates(ctx, r.pool, tenantID)
}

// Get fetches a single rate.
func (r *PGRepository) Get(ctx context.Context, tenantID, id uuid.UUID) (TaxRate, error) {
	return getRate(ctx, r.pool, tenantID, id, false)
}

// WithTx runs fn inside a repeatable-read transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{q: tx})
	})
}

type txRepository struct {
	q querier
}

func (t *txRepository) List(ctx context.Context, tenantID uuid.UUID) ([]TaxRate, error) {
	return listRates(ctx, t.q, tenantID)
}

func (t *txRepository) GetForUpdate(ctx context.Context, tenantID, id uuid.UUID) (TaxRate, error) {
	return getRate(ctx, t.q, tenantID, id, true)
}

func (t *txRepository) NextSequence(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var next int
	err := t.q.QueryRow(ctx, `SELECT COALESCE(MAX(sequence_no), 0) + 1 FROM tax_rates WHERE tenant_id = $1`, tenantID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("taxrates: next sequence: %w", err)
	}
	return next, nil
}

func (t *txRepository) Insert(ctx context.Context, rate TaxRate) (TaxRate, error) {
	row := t.q.QueryRow(ctx, `INSERT INTO tax_rates (id, tenant_id, name, rate, description, is_default, sequence_no, created_at, updated_at)
VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, NOW(), NOW())
RETURNING `+rateColumns,
		rate.ID, rate.TenantID, rate.Name, rate.Rate.String(), rate.Description, rate.IsDefault, rate.SequenceNo)
	created, err := scanRate(row)
	if err != nil {
		return TaxRate{}, translateError(err)
	}
	return created, nil
}

func (t *txRepository) Update(ctx context.Context, tenantID, id uuid.UUID, ch Changes) (TaxRate, error) {
	sets := []string{}
	args := []any{tenantID, id}
	add := func(column string, value any, cast string) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args))+cast)
	}
	if ch.Name != nil {
		add("name", *ch.Name, "")
	}
	if ch.Rate != nil {
		add("rate", ch.Rate.String(), "::numeric")
	}
	if ch.Description != nil {
		add("description", *ch.Description, "")
	}
	if ch.SequenceNo != nil {
		add("sequence_no", *ch.SequenceNo, "")
	}
	if len(sets) == 0 {
		return getRate(ctx, t.q, tenantID, id, false)
	}
	sets = append(sets, "updated_at = NOW()")

	query := `UPDATE tax_rates SET ` + strings.Join(sets, ", ") + ` WHERE tenant_id = $1 AND id = $2 RETURNING ` + rateColumns
	updated, err := scanRate(t.q.QueryRow(ctx, query, args...))
	if err != nil {
		return TaxRate{}, translateError(err)
	}
	return updated, nil
}

func (t *txRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM tax_rates WHERE tenant_id = $1 AND id = $2 AND NOT is_default`, tenantID, id)
	if err != nil {
		return fmt.Errorf("taxrates: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepository) ClearDefault(ctx context.Context, tenantID uuid.UUID) error {
	_, err := t.q.Exec(ctx, `UPDATE tax_rates SET is_default = FALSE, updated_at = NOW() WHERE tenant_id = $1 AND is_default`, tenantID)
	if err != nil {
		return fmt.Errorf("taxrates: clear default: %w", err)
	}
	return nil
}

func (t *txRepository) MarkDefault(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := t.q.Exec(ctx, `UPDATE tax_rates SET is_default = TRUE, updated_at = NOW() WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const rateColumns = `id, tenant_id, name, rate::text, description, is_default, sequence_no, created_at, updated_at`

func listRates(ctx context.Context, q querier, tenantID uuid.UUID) ([]TaxRate, error) {
	rows, err := q.Query(ctx, `SELECT `+rateColumns+` FROM tax_rates WHERE tenant_id = $1 ORDER BY sequence_no, lower(name)`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("taxrates: list: %w", err)
	}
	defer rows.Close()

	rates := []TaxRate{}
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, err
		}
		rates = append(rates, rate)
	}
	return rates, rows.Err()
}

func getRate(ctx context.Context, q querier, tenantID, id uuid.UUID, lock bool) (TaxRate, error) {
	query := `SELECT ` + rateColumns + ` FROM tax_rates WHERE tenant_id = $1 AND id = $2`
	if lock {
		query += ` FOR UPDATE`
	}
	rate, err := scanRate(q.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TaxRate{}, ErrNotFound
		}
		return TaxRate{}, fmt.Errorf("taxrates: get: %w", err)
	}
	return rate, nil
}

func scanRate(row pgx.Row) (TaxRate, error) {
	var (
		t    TaxRate
		rate string
	)
	if err := row.Scan(&t.ID, &t.TenantID, &t.Name, &rate, &t.Description, &t.IsDefault, &t.SequenceNo, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return TaxRate{}, err
	}
	d, err := decimal.NewFromString(rate)
	if err != nil {
		return TaxRate{}, fmt.Errorf("taxrates: scan rate %q: %w", rate, err)
	}
	t.Rate = d
	return t, nil
}

func translateError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if pgErr.ConstraintName == "tax_rates_one_default_idx" {
			return fmt.Errorf("taxrates: concurrent default change: %w", err)
		}
		return ErrDuplicateRate
	}
	return err
}
