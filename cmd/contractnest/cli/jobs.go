package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/contractnest/contractnest/jobs"
)

// Inspector is the subset of asynq.Inspector the CLI reads from.
type Inspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	Close() error
}

// Enqueuer is the subset of asynq.Client the CLI writes to.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// JobsCLI wraps manual management helpers for the notification queues.
type JobsCLI struct {
	client    Enqueuer
	inspector Inspector
}

// NewJobsCLI connects the helpers to Redis.
func NewJobsCLI(redisAddr string) *JobsCLI {
	opt := asynq.RedisClientOpt{Addr: redisAddr}
	return &JobsCLI{client: asynq.NewClient(opt), inspector: asynq.NewInspector(opt)}
}

// NewJobsCLIWith builds the helpers over explicit collaborators.
func NewJobsCLIWith(client Enqueuer, inspector Inspector) *JobsCLI {
	return &JobsCLI{client: client, inspector: inspector}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var errs []error
	if c.inspector != nil {
		errs = append(errs, c.inspector.Close())
	}
	if c.client != nil {
		errs = append(errs, c.client.Close())
	}
	return errors.Join(errs...)
}

// TriggerRequest describes a manually enqueued job.
type TriggerRequest struct {
	Event    string
	TenantID uuid.UUID
	Subject  string
	Message  string
}

// Trigger enqueues a VaNi notification for a known event, or the
// idempotency cleanup when the event is "cleanup".
func (c *JobsCLI) Trigger(ctx context.Context, req TriggerRequest) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	var (
		task *asynq.Task
		err  error
		opts = []asynq.Option{asynq.MaxRetry(3)}
	)
	switch req.Event {
	case "cleanup":
		task, err = jobs.NewIdempotencyCleanupTask(0)
		opts = append(opts, asynq.Queue(jobs.QueueDefault))
	case jobs.EventTaxRateChanged, jobs.EventTenantOnboarded, jobs.EventProfileUpdated:
		subject := req.Subject
		if subject == "" {
			subject = "Manual trigger: " + req.Event
		}
		task, err = jobs.NewNotifyTask(jobs.Notification{
			TenantID: req.TenantID,
			Event:    req.Event,
			Subject:  subject,
			Message:  req.Message,
		})
		opts = append(opts, asynq.Queue(jobs.QueueNotifications))
	default:
		return nil, fmt.Errorf("jobs cli: unsupported event %q (known: %s)", req.Event, strings.Join(KnownEvents(), ", "))
	}
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, opts...)
}

// KnownEvents lists the names Trigger accepts.
func KnownEvents() []string {
	return []string{jobs.EventTaxRateChanged, jobs.EventTenantOnboarded, jobs.EventProfileUpdated, "cleanup"}
}

// QueueStats summarises one queue.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
	Archived  int
}

// InspectQueues reports both queues. A queue that has never received a task
// reports zeros.
func (c *JobsCLI) InspectQueues(ctx context.Context) ([]QueueStats, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	var out []QueueStats
	for _, q := range []string{jobs.QueueNotifications, jobs.QueueDefault} {
		stats := QueueStats{Queue: q}
		info, err := c.inspector.GetQueueInfo(q)
		if err != nil && !errors.Is(err, asynq.ErrQueueNotFound) {
			return nil, fmt.Errorf("inspect %s: %w", q, err)
		}
		if info != nil {
			stats.Pending = info.Pending
			stats.Active = info.Active
			stats.Scheduled = info.Scheduled
			stats.Retry = info.Retry
			stats.Archived = info.Archived
		}
		out = append(out, stats)
	}
	return out, nil
}
