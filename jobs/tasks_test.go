package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDeliverer struct {
	got []Notification
	err error
}

func (d *recordingDeliverer) Deliver(ctx context.Context, n Notification) error {
	d.got = append(d.got, n)
	return d.err
}

type countingTracker struct {
	started []string
	ended   []error
}

func (c *countingTracker) Start(job string) func(error) error {
	c.started = append(c.started, job)
	return func(err error) error {
		c.ended = append(c.ended, err)
		return err
	}
}

func TestNewNotifyTaskFillsDefaults(t *testing.T) {
	tenant := uuid.New()
	task, err := NewNotifyTask(Notification{TenantID: tenant, Event: EventTaxRateChanged, Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, TaskVaNiNotify, task.Type())

	var n Notification
	require.NoError(t, json.Unmarshal(task.Payload(), &n))
	assert.Equal(t, tenant, n.TenantID)
	assert.NotEmpty(t, n.ID)
	assert.False(t, n.OccurredAt.IsZero())
}

func TestNewNotifyTaskRejectsIncomplete(t *testing.T) {
	_, err := NewNotifyTask(Notification{Event: EventTaxRateChanged})
	assert.Error(t, err)
	_, err = NewNotifyTask(Notification{TenantID: uuid.New()})
	assert.Error(t, err)
}

func TestNotifyJobDelivers(t *testing.T) {
	deliverer := &recordingDeliverer{}
	tracker := &countingTracker{}
	job := NewNotifyJob(deliverer, tracker)

	task, err := NewNotifyTask(Notification{TenantID: uuid.New(), Event: EventTenantOnboarded, Subject: "Welcome"})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, deliverer.got, 1)
	assert.Equal(t, "Welcome", deliverer.got[0].Subject)
	assert.Equal(t, []string{TaskVaNiNotify}, tracker.started)
	assert.Equal(t, []error{nil}, tracker.ended)
}

func TestNotifyJobSkipsRetryOnBadPayload(t *testing.T) {
	job := NewNotifyJob(&recordingDeliverer{}, nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskVaNiNotify, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = job.Handle(context.Background(), asynq.NewTask(TaskVaNiNotify, []byte(`{"event":"x"}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestNotifyJobPropagatesDeliveryError(t *testing.T) {
	boom := errors.New("provider down")
	job := NewNotifyJob(&recordingDeliverer{err: boom}, nil)
	task, err := NewNotifyTask(Notification{TenantID: uuid.New(), Event: EventProfileUpdated})
	require.NoError(t, err)

	assert.ErrorIs(t, job.Handle(context.Background(), task), boom)
}

type fakeCleaner struct {
	retention time.Duration
}

func (f *fakeCleaner) Cleanup(ctx context.Context, olderThan time.Duration) error {
	f.retention = olderThan
	return nil
}

func TestCleanupJobUsesPayloadRetention(t *testing.T) {
	cleaner := &fakeCleaner{}
	job := NewCleanupJob(cleaner, nil)

	task, err := NewIdempotencyCleanupTask(48 * time.Hour)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 48*time.Hour, cleaner.retention)

	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskIdempotencyCleanup, []byte(`{}`))))
	assert.Equal(t, 24*time.Hour, cleaner.retention)
}

func TestCleanupKeepsSubHourRetention(t *testing.T) {
	cleaner := &fakeCleaner{}
	job := NewCleanupJob(cleaner, nil)

	task, err := NewIdempotencyCleanupTask(30 * time.Minute)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 30*time.Minute, cleaner.retention)

	_, err = NewIdempotencyCleanupTask(-time.Minute)
	assert.Error(t, err)
}

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f fakeInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return f.info, f.err
}

func TestHealthEndpoint(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/jobs", NewHandler(fakeInspector{info: &asynq.QueueInfo{Queue: QueueNotifications, Pending: 4, Retry: 1}}, nil).MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body queueHealth
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, queueHealth{Queue: QueueNotifications, Pending: 4, Retry: 1}, body)

	r = chi.NewRouter()
	r.Route("/jobs", NewHandler(fakeInspector{err: errors.New("redis down")}, nil).MountRoutes)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
