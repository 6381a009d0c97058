package tenantprofile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence operations for tenant profiles.
type Repository interface {
	Get(ctx context.Context, tenantID uuid.UUID) (Profile, error)
	// Upsert stores p and reports whether the row was created.
	Upsert(ctx context.Context, p Profile) (Profile, bool, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const profileColumns = `tenant_id, business_type_id, industry_id, business_name, business_email,
business_phone_country_code, business_phone, website_url,
address_line1, address_line2, country_code, state_code, city, postal_code,
logo_url, primary_color, secondary_color, onboarded_at, updated_at`

// Get fetches the tenant's profile.
func (r *PGRepository) Get(ctx context.Context, tenantID uuid.UUID) (Profile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM tenant_profiles WHERE tenant_id = $1`, tenantID), nil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("tenantprofile: get: %w", err)
	}
	return p, nil
}

// Upsert inserts or replaces the profile. onboarded_at is kept from the first save.
func (r *PGRepository) Upsert(ctx context.Context, p Profile) (Profile, bool, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO tenant_profiles (`+profileColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW(), NOW())
ON CONFLICT (tenant_id) DO UPDATE SET
	business_type_id = EXCLUDED.business_type_id,
	industry_id = EXCLUDED.industry_id,
	business_name = EXCLUDED.business_name,
	business_email = EXCLUDED.business_email,
	business_phone_country_code = EXCLUDED.business_phone_country_code,
	business_phone = EXCLUDED.business_phone,
	website_url = EXCLUDED.website_url,
	address_line1 = EXCLUDED.address_line1,
	address_line2 = EXCLUDED.address_line2,
	country_code = EXCLUDED.country_code,
	state_code = EXCLUDED.state_code,
	city = EXCLUDED.city,
	postal_code = EXCLUDED.postal_code,
	logo_url = EXCLUDED.logo_url,
	primary_color = EXCLUDED.primary_color,
	secondary_color = EXCLUDED.secondary_color,
	updated_at = NOW()
RETURNING `+profileColumns+`, (xmax = 0) AS inserted`,
		p.TenantID, p.BusinessTypeID, p.IndustryID, p.BusinessName, p.BusinessEmail,
		p.BusinessPhoneCountryCode, p.BusinessPhone, p.WebsiteURL,
		p.Address.Line1, p.Address.Line2, p.Address.CountryCode, p.Address.StateCode, p.Address.City, p.Address.PostalCode,
		p.Branding.LogoURL, p.Branding.PrimaryColor, p.Branding.SecondaryColor)
	var inserted bool
	saved, err := scanProfile(row, &inserted)
	if err != nil {
		return Profile{}, false, fmt.Errorf("tenantprofile: upsert: %w", err)
	}
	return saved, inserted, nil
}

func scanProfile(row pgx.Row, inserted *bool) (Profile, error) {
	var p Profile
	dest := []any{
		&p.TenantID, &p.BusinessTypeID, &p.IndustryID, &p.BusinessName, &p.BusinessEmail,
		&p.BusinessPhoneCountryCode, &p.BusinessPhone, &p.WebsiteURL,
		&p.Address.Line1, &p.Address.Line2, &p.Address.CountryCode, &p.Address.StateCode, &p.Address.City, &p.Address.PostalCode,
		&p.Branding.LogoURL, &p.Branding.PrimaryColor, &p.Branding.SecondaryColor, &p.OnboardedAt, &p.UpdatedAt,
	}
	if inserted != nil {
		dest = append(dest, inserted)
	}
	if err := row.Scan(dest...); err != nil {
		return Profile{}, err
	}
	return p, nil
}

var _ Repository = (*PGRepository)(nil)
