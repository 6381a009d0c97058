package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueNotifications carries VaNi notification deliveries.
	QueueNotifications = "notifications"

	// TaskVaNiNotify delivers one VaNi notification.
	TaskVaNiNotify = "vani:notify"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "maintenance:idempotency_cleanup"
)

// VaNi event names.
const (
	EventTaxRateChanged  = "tax_rate.changed"
	EventTenantOnboarded = "tenant.onboarded"
	EventProfileUpdated  = "tenant.profile_updated"
)

// Notification is the payload of a VaNi notification task.
type Notification struct {
	ID         string    `json:"id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	Event      string    `json:"event"`
	Subject    string    `json:"subject"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewNotifyTask constructs an Asynq task. Missing ID and timestamp are filled in.
func NewNotifyTask(n Notification) (*asynq.Task, error) {
	if n.TenantID == uuid.Nil {
		return nil, errors.New("jobs: notification requires tenant_id")
	}
	if n.Event == "" {
		return nil, errors.New("jobs: notification requires event")
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.OccurredAt.IsZero() {
		n.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskVaNiNotify, data, asynq.TaskID(n.ID)), nil
}

// Deliverer pushes a notification to its channel (chat inbox, email, ...).
type Deliverer interface {
	Deliver(ctx context.Context, n Notification) error
}

// LogDeliverer writes notifications to the structured log. It is the default
// channel until a messaging provider is configured.
type LogDeliverer struct {
	Logger *slog.Logger
}

// Deliver implements Deliverer.
func (d LogDeliverer) Deliver(ctx context.Context, n Notification) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "vani notification",
		slog.String("id", n.ID),
		slog.String("tenant_id", n.TenantID.String()),
		slog.String("event", n.Event),
		slog.String("subject", n.Subject),
		slog.String("message", n.Message),
	)
	return nil
}

// NotifyJob processes TaskVaNiNotify tasks.
type NotifyJob struct {
	deliverer Deliverer
	tracker   JobTracker
}

// JobTracker starts instrumentation for one job run and returns its finisher.
type JobTracker interface {
	Start(job string) func(error) error
}

// NewNotifyJob constructs the job handler. tracker may be nil.
func NewNotifyJob(deliverer Deliverer, tracker JobTracker) *NotifyJob {
	return &NotifyJob{deliverer: deliverer, tracker: tracker}
}

// Handle decodes and delivers the notification. Malformed payloads are not retried.
func (j *NotifyJob) Handle(ctx context.Context, t *asynq.Task) error {
	end := func(err error) error { return err }
	if j.tracker != nil {
		end = j.tracker.Start(TaskVaNiNotify)
	}
	var n Notification
	if err := json.Unmarshal(t.Payload(), &n); err != nil {
		return end(fmt.Errorf("jobs: decode notification: %v: %w", err, asynq.SkipRetry))
	}
	if n.TenantID == uuid.Nil || n.Event == "" {
		return end(fmt.Errorf("jobs: incomplete notification %q: %w", n.ID, asynq.SkipRetry))
	}
	return end(j.deliverer.Deliver(ctx, n))
}

// KeyCleaner removes idempotency keys older than a retention window.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// CleanupPayload configures the retention of an idempotency cleanup run.
type CleanupPayload struct {
	RetentionSeconds int64 `json:"retention_seconds"`
}

// NewIdempotencyCleanupTask constructs the maintenance task. A zero retention
// leaves the choice to the handler's default.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	if retention < 0 {
		return nil, fmt.Errorf("jobs: negative retention %s", retention)
	}
	data, err := json.Marshal(CleanupPayload{RetentionSeconds: int64(retention / time.Second)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}

// CleanupJob processes TaskIdempotencyCleanup tasks.
type CleanupJob struct {
	cleaner KeyCleaner
	logger  *slog.Logger
}

// NewCleanupJob constructs the cleanup handler.
func NewCleanupJob(cleaner KeyCleaner, logger *slog.Logger) *CleanupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupJob{cleaner: cleaner, logger: logger}
}

// Handle prunes expired keys, defaulting to a 24h retention.
func (j *CleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload CleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	retention := time.Duration(payload.RetentionSeconds) * time.Second
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	if err := j.cleaner.Cleanup(ctx, retention); err != nil {
		return err
	}
	j.logger.Info("idempotency keys pruned", slog.Duration("retention", retention))
	return nil
}
