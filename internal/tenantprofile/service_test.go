package tenantprofile

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractnest/contractnest/internal/platform/httpx"
	"github.com/contractnest/contractnest/internal/shared"
	_ "github.com/contractnest/contractnest/internal/testing/guard"
	"github.com/contractnest/contractnest/internal/validation"
	"github.com/contractnest/contractnest/jobs"
)

type memoryRepository struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]Profile
	upserts  int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{profiles: map[uuid.UUID]Profile{}}
}

func (m *memoryRepository) Get(ctx context.Context, tenantID uuid.UUID) (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[tenantID]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (m *memoryRepository) Upsert(ctx context.Context, p Profile) (Profile, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	now := time.Now().UTC()
	existing, ok := m.profiles[p.TenantID]
	if ok {
		p.OnboardedAt = existing.OnboardedAt
	} else {
		p.OnboardedAt = now
	}
	p.UpdatedAt = now
	m.profiles[p.TenantID] = p
	return p, !ok, nil
}

type recordingNotifier struct {
	sent []jobs.Notification
}

func (n *recordingNotifier) Notify(ctx context.Context, note jobs.Notification) error {
	n.sent = append(n.sent, note)
	return nil
}

type recordingAudit struct {
	actions []string
}

func (a *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.actions = append(a.actions, log.Action)
	return nil
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

func testPrincipal() shared.Principal {
	return shared.Principal{TenantID: uuid.MustParse("33333333-3333-3333-3333-333333333333"), ActorID: uuid.New()}
}

func TestSaveEmitsOnboardingOnce(t *testing.T) {
	repo := newMemoryRepository()
	notifier := &recordingNotifier{}
	audit := &recordingAudit{}
	svc := NewService(ServiceDeps{Repo: repo, Notifier: notifier, Audit: audit})
	p := testPrincipal()

	saved, err := svc.Save(context.Background(), p, Profile{BusinessName: " Acme "})
	require.NoError(t, err)
	assert.Equal(t, "Acme", saved.BusinessName)
	assert.Equal(t, p.TenantID, saved.TenantID)

	_, err = svc.Save(context.Background(), p, Profile{BusinessName: "Acme Ltd"})
	require.NoError(t, err)

	require.Len(t, notifier.sent, 2)
	assert.Equal(t, jobs.EventTenantOnboarded, notifier.sent[0].Event)
	assert.Equal(t, jobs.EventProfileUpdated, notifier.sent[1].Event)
	assert.Equal(t, []string{"onboard", "update"}, audit.actions)
}

func TestSaveIgnoresClientTenant(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(ServiceDeps{Repo: repo})
	p := testPrincipal()

	saved, err := svc.Save(context.Background(), p, Profile{TenantID: uuid.New(), BusinessName: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, p.TenantID, saved.TenantID)
}

func TestSaveRejectsInvalidWithoutWrite(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(ServiceDeps{Repo: repo})

	_, err := svc.Save(context.Background(), testPrincipal(), Profile{})
	verrs, ok := validation.AsErrors(err)
	require.True(t, ok)
	assert.Contains(t, verrs, FieldBusinessName)
	assert.Equal(t, 0, repo.upserts)
}

func TestGetBeforeOnboarding(t *testing.T) {
	svc := NewService(ServiceDeps{Repo: newMemoryRepository()})
	_, err := svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestLogoStoreWritesSniffedImage(t *testing.T) {
	dir := t.TempDir()
	store := NewLogoStore(dir, "/media/", 0)
	tenant := uuid.New()

	url, err := store.Save(context.Background(), tenant, bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/media/"+tenant.String()+"/logo-"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)

	name := filepath.Base(url)
	written, err := os.ReadFile(filepath.Join(dir, tenant.String(), name))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, written)

	entries, err := os.ReadDir(filepath.Join(dir, tenant.String()))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLogoStoreAcceptsSVG(t *testing.T) {
	store := NewLogoStore(t.TempDir(), "/media", 0)
	svg := `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"><rect width="10" height="10"/></svg>`
	url, err := store.Save(context.Background(), uuid.New(), strings.NewReader(svg))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, ".svg"), url)
}

func TestLogoStoreRejects(t *testing.T) {
	store := NewLogoStore(t.TempDir(), "/media", 16)

	_, err := store.Save(context.Background(), uuid.New(), bytes.NewReader(append(pngHeader, make([]byte, 64)...)))
	var coded *httpx.Error
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, CodeLogoTooLarge, coded.Code)
	assert.Equal(t, "logo must be 16 B or smaller", coded.Message)

	_, err = store.Save(context.Background(), uuid.New(), strings.NewReader("plain text"))
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, CodeLogoType, coded.Code)

	_, err = store.Save(context.Background(), uuid.New(), strings.NewReader(""))
	assert.ErrorIs(t, err, ErrLogoEmpty)
}

func TestUploadLogoAudits(t *testing.T) {
	audit := &recordingAudit{}
	svc := NewService(ServiceDeps{
		Repo:  newMemoryRepository(),
		Logos: NewLogoStore(t.TempDir(), "/media", 0),
		Audit: audit,
	})
	url, err := svc.UploadLogo(context.Background(), testPrincipal(), "logo.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.NotEmpty(t, url)
	assert.Equal(t, []string{"upload_logo"}, audit.actions)
}
