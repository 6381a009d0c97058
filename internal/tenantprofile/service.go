package tenantprofile

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/contractnest/contractnest/internal/shared"
	"github.com/contractnest/contractnest/jobs"
)

const auditEntity = "tenant_profile"

// Notifier forwards onboarding events to the VaNi notification queue.
type Notifier interface {
	Notify(ctx context.Context, n jobs.Notification) error
}

// MutationObserver records the outcome of mutating operations.
type MutationObserver interface {
	ObserveMutation(entity, op string, err error)
}

// LogoSaver persists uploaded logo bytes.
type LogoSaver interface {
	Save(ctx context.Context, tenantID uuid.UUID, r io.Reader) (string, error)
}

// ServiceDeps groups the collaborators of Service.
type ServiceDeps struct {
	Repo     Repository
	Logos    LogoSaver
	Audit    shared.AuditRecorder
	Notifier Notifier
	Metrics  MutationObserver
	Logger   *slog.Logger
}

// Service wraps tenant profile business rules.
type Service struct {
	repo     Repository
	logos    LogoSaver
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
		logos:    deps.Logos,
		audit:    deps.Audit,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		logger:   logger,
	}
}

// Get returns the tenant's profile or ErrNotFound before onboarding.
func (s *Service) Get(ctx context.Context, tenantID uuid.UUID) (Profile, error) {
	return s.repo.Get(ctx, tenantID)
}

// Save validates and upserts the profile. The first save of a tenant emits
// the onboarding event.
func (s *Service) Save(ctx context.Context, p shared.Principal, profile Profile) (saved Profile, err error) {
	defer func() { s.observe("save", err) }()

	profile = Normalise(profile)
	profile.TenantID = p.TenantID
	if err := Validate(profile); err != nil {
		return Profile{}, err
	}

	saved, created, err := s.repo.Upsert(ctx, profile)
	if err != nil {
		return Profile{}, err
	}

	action, event, subject := "update", jobs.EventProfileUpdated, "Organisation profile updated"
	if created {
		action, event, subject = "onboard", jobs.EventTenantOnboarded, "Welcome to ContractNest"
	}
	s.record(ctx, p, action, map[string]any{"business_name": saved.BusinessName})
	s.notify(ctx, jobs.Notification{
		TenantID: p.TenantID,
		Event:    event,
		Subject:  subject,
		Message:  saved.BusinessName + " profile saved.",
	})
	return saved, nil
}

// UploadLogo stores a logo and returns its URL. The profile itself is only
// updated by the next Save.
func (s *Service) UploadLogo(ctx context.Context, p shared.Principal, filename string, r io.Reader) (url string, err error) {
	defer func() { s.observe("upload_logo", err) }()

	url, err = s.logos.Save(ctx, p.TenantID, r)
	if err != nil {
		return "", err
	}
	s.record(ctx, p, "upload_logo", map[string]any{"filename": filename, "url": url})
	return url, nil
}

func (s *Service) record(ctx context.Context, p shared.Principal, action string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		TenantID: p.TenantID,
		ActorID:  p.ActorID,
		Action:   action,
		Entity:   auditEntity,
		EntityID: p.TenantID.String(),
		Meta:     meta,
		At:       time.Now().UTC(),
	})
	if err != nil {
		s.logger.Warn("record tenant profile audit", slog.Any("error", err), slog.String("tenant_id", p.TenantID.String()))
	}
}

func (s *Service) notify(ctx context.Context, n jobs.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Warn("enqueue tenant profile notification", slog.Any("error", err), slog.String("event", n.Event))
	}
}

func (s *Service) observe(op string, err error) {
	if s.metrics != nil {
		s.metrics.ObserveMutation(auditEntity, op, err)
	}
}
