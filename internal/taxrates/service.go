package taxrates

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/contractnest/contractnest/internal/shared"
	"github.com/contractnest/contractnest/jobs"
)

const auditEntity = "tax_rate"

// Notifier forwards settings events to the VaNi notification queue.
type Notifier interface {
	Notify(ctx context.Context, n jobs.Notification) error
}

// MutationObserver records the outcome of mutating operations.
type MutationObserver interface {
	ObserveMutation(entity, op string, err error)
}

// ServiceDeps groups the collaborators of Service. Only Repo is required.
type ServiceDeps struct {
	Repo     Repository
	Cache    *Cache
	Audit    shared.AuditRecorder
	Notifier Notifier
	Metrics  MutationObserver
	Logger   *slog.Logger
}

// Service wraps tax rate business rules.
type Service struct {
	repo     Repository
	cache    *Cache
	audit    shared.AuditRecorder
	notifier Notifier
	metrics  MutationObserver
	logger   *slog.Logger
}

// NewService constructs a new Service.
func NewService(deps ServiceDeps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     deps.Repo,
		cache:    deps.Cache,
		audit:    deps.Audit,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		logger:   logger,
	}
}

// List returns the tenant's rates in display order.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID) ([]TaxRate, error) {
	return s.cache.List(ctx, tenantID, func(ctx context.Context) ([]TaxRate, error) {
		rates, err := s.repo.List(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		SortForDisplay(rates)
		return rates, nil
	})
}

// Get returns one rate.
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (TaxRate, error) {
	if id == uuid.Nil {
		return TaxRate{}, ErrInvalidID
	}
	return s.repo.Get(ctx, tenantID, id)
}

// Create validates and stores a new rate at the end of the display order.
// Creating a default rate clears the previous default in the same transaction.
func (s *Service) Create(ctx context.Context, p shared.Principal, in CreateInput) (created TaxRate, err error) {
	defer func() { s.observe("create", err) }()

	rate, err := normaliseCreate(in)
	if err != nil {
		return TaxRate{}, err
	}
	rate.ID = uuid.New()
	rate.TenantID = p.TenantID

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		seq, err := tx.NextSequence(ctx, p.TenantID)
		if err != nil {
			return err
		}
		rate.SequenceNo = seq
		if rate.IsDefault {
			if err := tx.ClearDefault(ctx, p.TenantID); err != nil {
				return err
			}
		}
		created, err = tx.Insert(ctx, rate)
		return err
	})
	if err != nil {
		return TaxRate{}, err
	}

	s.afterMutation(ctx, p, "create", created, map[string]any{"name": created.Name, "rate": created.Rate.String()})
	return created, nil
}

// Update applies only the fields present in patch.
func (s *Service) Update(ctx context.Context, p shared.Principal, id uuid.UUID, patch Patch) (updated TaxRate, err error) {
	defer func() { s.observe("update", err) }()

	if id == uuid.Nil {
		return TaxRate{}, ErrInvalidID
	}
	if patch.IsEmpty() {
		return TaxRate{}, ErrNoChanges
	}
	changes, err := normalisePatch(patch)
	if err != nil {
		return TaxRate{}, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetForUpdate(ctx, p.TenantID, id); err != nil {
			return err
		}
		updated, err = tx.Update(ctx, p.TenantID, id, changes)
		return err
	})
	if err != nil {
		return TaxRate{}, err
	}

	s.afterMutation(ctx, p, "update", updated, changeMeta(changes))
	return updated, nil
}

// Delete removes a non-default rate.
func (s *Service) Delete(ctx context.Context, p shared.Principal, id uuid.UUID) (err error) {
	defer func() { s.observe("delete", err) }()

	if id == uuid.Nil {
		return ErrInvalidID
	}
	var removed TaxRate
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, p.TenantID, id)
		if err != nil {
			return err
		}
		if current.IsDefault {
			return ErrCannotDeleteDefault
		}
		removed = current
		return tx.Delete(ctx, p.TenantID, id)
	})
	if err != nil {
		return err
	}

	s.afterMutation(ctx, p, "delete", removed, map[string]any{"name": removed.Name})
	return nil
}

// SetDefault makes id the only default rate and returns the resulting list,
// which callers should adopt as the new truth.
func (s *Service) SetDefault(ctx context.Context, p shared.Principal, id uuid.UUID) (rates []TaxRate, err error) {
	defer func() { s.observe("set_default", err) }()

	if id == uuid.Nil {
		return nil, ErrInvalidID
	}
	var target TaxRate
	changed := false
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, p.TenantID, id)
		if err != nil {
			return err
		}
		target = current
		if !current.IsDefault {
			if err := tx.ClearDefault(ctx, p.TenantID); err != nil {
				return err
			}
			if err := tx.MarkDefault(ctx, p.TenantID, id); err != nil {
				return err
			}
			changed = true
		}
		rates, err = tx.List(ctx, p.TenantID)
		return err
	})
	if err != nil {
		return nil, err
	}

	SortForDisplay(rates)
	if changed {
		target.IsDefault = true
		s.afterMutation(ctx, p, "set_default", target, map[string]any{"name": target.Name})
	}
	return rates, nil
}

func (s *Service) afterMutation(ctx context.Context, p shared.Principal, action string, rate TaxRate, meta map[string]any) {
	if err := s.cache.Invalidate(ctx, p.TenantID); err != nil {
		s.logger.Warn("invalidate tax rate cache", slog.Any("error", err), slog.String("tenant_id", p.TenantID.String()))
	}
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			TenantID: p.TenantID,
			ActorID:  p.ActorID,
			Action:   action,
			Entity:   auditEntity,
			EntityID: rate.ID.String(),
			Meta:     meta,
			At:       time.Now().UTC(),
		})
		if err != nil {
			s.logger.Warn("record tax rate audit", slog.Any("error", err), slog.String("id", rate.ID.String()))
		}
	}
	if s.notifier != nil {
		err := s.notifier.Notify(ctx, jobs.Notification{
			TenantID: p.TenantID,
			Event:    jobs.EventTaxRateChanged,
			Subject:  "Tax rate " + action,
			Message:  fmt.Sprintf("Tax rate %q (%s%%) was %s.", rate.Name, rate.Rate.String(), pastTense(action)),
		})
		if err != nil {
			s.logger.Warn("enqueue tax rate notification", slog.Any("error", err), slog.String("id", rate.ID.String()))
		}
	}
}

func (s *Service) observe(op string, err error) {
	if s.metrics != nil {
		s.metrics.ObserveMutation(auditEntity, op, err)
	}
}

func changeMeta(ch Changes) map[string]any {
	meta := map[string]any{}
	if ch.Name != nil {
		meta["name"] = *ch.Name
	}
	if ch.Rate != nil {
		meta["rate"] = ch.Rate.String()
	}
	if ch.Description != nil {
		meta["description"] = *ch.Description
	}
	if ch.SequenceNo != nil {
		meta["sequence_no"] = *ch.SequenceNo
	}
	return meta
}

func pastTense(action string) string {
	switch action {
	case "create":
		return "created"
	case "update":
		return "updated"
	case "delete":
		return "deleted"
	case "set_default":
		return "set as the default"
	default:
		return action
	}
}
