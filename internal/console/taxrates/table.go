// Package taxrates is the console controller for the inline-editable tax
// rate table and its add form.
package taxrates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/contractnest/contractnest/internal/client"
	"github.com/contractnest/contractnest/internal/form"
	"github.com/contractnest/contractnest/internal/notify"
	domain "github.com/contractnest/contractnest/internal/taxrates"
	"github.com/contractnest/contractnest/internal/validation"
)

// Toast texts.
const (
	MsgCreated             = "Tax rate created successfully"
	MsgUpdated             = "Tax rate updated successfully"
	MsgDeleted             = "Tax rate deleted successfully"
	MsgDefaultChanged      = "Default tax rate updated"
	MsgNoChanges           = "No changes to save"
	MsgCannotDeleteDefault = "Cannot delete the default tax rate. Set another rate as default first."
)

// Errors returned by Table operations.
var (
	// ErrClosed is returned when Close ran while the operation was outstanding.
	ErrClosed              = errors.New("taxrates: table closed")
	ErrInFlight            = errors.New("taxrates: operation already in progress for this rate")
	ErrCannotDeleteDefault = errors.New("taxrates: cannot delete the default tax rate")
	ErrUnknownRate         = errors.New("taxrates: rate not in table")
	ErrNotEditing          = errors.New("taxrates: rate is not being edited")
	ErrNoPendingDelete     = errors.New("taxrates: no delete awaiting confirmation")
)

// Adapter is the remote side of the table; *client.Client satisfies it.
type Adapter interface {
	ListTaxRates(ctx context.Context) ([]domain.TaxRate, error)
	CreateTaxRate(ctx context.Context, in domain.CreateInput, idempotencyKey string) (domain.TaxRate, error)
	UpdateTaxRate(ctx context.Context, id uuid.UUID, patch domain.Patch) (domain.TaxRate, error)
	DeleteTaxRate(ctx context.Context, id uuid.UUID) error
	SetDefaultTaxRate(ctx context.Context, id uuid.UUID) ([]domain.TaxRate, error)
}

var _ Adapter = (*client.Client)(nil)

// Row is a rate with the transient flags the table attaches to it.
type Row struct {
	domain.TaxRate
	Editing    bool
	Saving     bool
	Deleting   bool
	Defaulting bool
}

// Table holds the last known-good collection and per-row state. Several rows
// may be in edit mode at once. In-flight guards are per rate id.
type Table struct {
	mu       sync.Mutex
	adapter  Adapter
	notifier notify.Notifier

	rates         []domain.TaxRate
	editing       map[uuid.UUID]bool
	saving        map[uuid.UUID]bool
	deleting      map[uuid.UUID]bool
	defaulting    map[uuid.UUID]bool
	pendingDelete uuid.UUID
	loading       bool
	generation    uint64
}

// NewTable constructs an empty table. Call Load to populate it.
func NewTable(adapter Adapter, notifier notify.Notifier) *Table {
	return &Table{
		adapter:    adapter,
		notifier:   notifier,
		editing:    map[uuid.UUID]bool{},
		saving:     map[uuid.UUID]bool{},
		deleting:   map[uuid.UUID]bool{},
		defaulting: map[uuid.UUID]bool{},
	}
}

// Load replaces the collection with the server's. On failure the previous
// collection is kept.
func (t *Table) Load(ctx context.Context) error {
	t.mu.Lock()
	if t.loading {
		t.mu.Unlock()
		return ErrInFlight
	}
	t.loading = true
	gen := t.generation
	t.mu.Unlock()

	rates, err := t.adapter.ListTaxRates(ctx)

	t.mu.Lock()
	if t.generation != gen {
		t.mu.Unlock()
		return ErrClosed
	}
	t.loading = false
	if err != nil {
		t.mu.Unlock()
		t.push(notify.Error, client.Message(err))
		return err
	}
	t.replaceLocked(rates)
	t.mu.Unlock()
	return nil
}

// Rows returns the collection in display order with transient flags.
func (t *Table) Rows() []Row {
	t.mu.Lock()
	defer t.mu.Unlock()
	rows := make([]Row, 0, len(t.rates))
	for _, r := range t.rates {
		rows = append(rows, Row{
			TaxRate:    r,
			Editing:    t.editing[r.ID],
			Saving:     t.saving[r.ID],
			Deleting:   t.deleting[r.ID],
			Defaulting: t.defaulting[r.ID],
		})
	}
	return rows
}

// Default returns the current default rate.
func (t *Table) Default() (domain.TaxRate, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range t.rates {
		if r.IsDefault {
			return r, true
		}
	}
	return domain.TaxRate{}, false
}

// StartEditing puts a row in edit mode and returns its current values as the
// starting draft.
func (t *Table) StartEditing(id uuid.UUID) (validation.Values, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.findLocked(id)
	if !ok {
		return nil, ErrUnknownRate
	}
	t.editing[id] = true
	return r.Values(), nil
}

// CancelEditing leaves edit mode without saving.
func (t *Table) CancelEditing(id uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.editing, id)
}

// IsEditing reports whether the row is in edit mode.
func (t *Table) IsEditing(id uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.editing[id]
}

// Save sends the fields of draft that differ from the stored row. An
// identical draft leaves edit mode with a neutral notice and no remote call.
// On failure the row stays in edit mode.
func (t *Table) Save(ctx context.Context, id uuid.UUID, draft validation.Values) error {
	t.mu.Lock()
	current, ok := t.findLocked(id)
	if !ok {
		t.mu.Unlock()
		return ErrUnknownRate
	}
	if !t.editing[id] {
		t.mu.Unlock()
		return ErrNotEditing
	}
	if t.saving[id] {
		t.mu.Unlock()
		return ErrInFlight
	}
	patch, changed := Diff(current, draft)
	if len(changed) == 0 {
		delete(t.editing, id)
		t.mu.Unlock()
		t.push(notify.Info, MsgNoChanges)
		return nil
	}
	if errs := domain.Schema.ValidateOnly(draft, changed...); len(errs) > 0 {
		t.mu.Unlock()
		t.push(notify.Error, form.InvalidMessage)
		return fmt.Errorf("%w: %w", form.ErrInvalid, errs)
	}
	t.saving[id] = true
	gen := t.generation
	t.mu.Unlock()

	updated, err := t.adapter.UpdateTaxRate(ctx, id, patch)

	t.mu.Lock()
	if t.generation != gen {
		t.mu.Unlock()
		return ErrClosed
	}
	delete(t.saving, id)
	if err != nil {
		t.mu.Unlock()
		t.push(notify.Error, client.Message(err))
		return err
	}
	t.upsertLocked(updated)
	delete(t.editing, id)
	t.mu.Unlock()
	t.push(notify.Success, MsgUpdated)
	return nil
}

// RequestDelete opens the confirmation step. The default rate is refused
// without contacting the server.
func (t *Table) RequestDelete(id uuid.UUID) error {
	t.mu.Lock()
	r, ok := t.findLocked(id)
	if !ok {
		t.mu.Unlock()
		return ErrUnknownRate
	}
	if r.IsDefault {
		t.mu.Unlock()
		t.push(notify.Error, MsgCannotDeleteDefault)
		return ErrCannotDeleteDefault
	}
	t.pendingDelete = id
	t.mu.Unlock()
	return nil
}

// PendingDelete returns the rate awaiting confirmation.
func (t *Table) PendingDelete() (uuid.UUID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pendingDelete, t.pendingDelete != uuid.Nil
}

// CancelDelete closes the confirmation step.
func (t *Table) CancelDelete() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pendingDelete = uuid.Nil
}

// ConfirmDelete deletes the pending rate.
func (t *Table) ConfirmDelete(ctx context.Context) error {
	t.mu.Lock()
	id := t.pendingDelete
	if id == uuid.Nil {
		t.mu.Unlock()
		return ErrNoPendingDelete
	}
	if t.deleting[id] {
		t.mu.Unlock()
		return ErrInFlight
	}
	r, ok := t.findLocked(id)
	if !ok {
		t.pendingDelete = uuid.Nil
		t.mu.Unlock()
		return ErrUnknownRate
	}
	if r.IsDefault {
		// The row became default after the request.
		t.pendingDelete = uuid.Nil
		t.mu.Unlock()
		t.push(notify.Error, MsgCannotDeleteDefault)
		return ErrCannotDeleteDefault
	}
	t.deleting[id] = true
	gen := t.generation
	t.mu.Unlock()

	err := t.adapter.DeleteTaxRate(ctx, id)

	t.mu.Lock()
	if t.generation != gen {
		t.mu.Unlock()
		return ErrClosed
	}
	delete(t.deleting, id)
	t.pendingDelete = uuid.Nil
	if err != nil {
		t.mu.Unlock()
		t.push(notify.Error, client.Message(err))
		return err
	}
	t.removeLocked(id)
	t.mu.Unlock()
	t.push(notify.Success, MsgDeleted)
	return nil
}

// SetDefault asks the server to make id the default and adopts the list it
// returns. No local flag is flipped beforehand.
func (t *Table) SetDefault(ctx context.Context, id uuid.UUID) error {
	t.mu.Lock()
	r, ok := t.findLocked(id)
	if !ok {
		t.mu.Unlock()
		return ErrUnknownRate
	}
	if r.IsDefault {
		t.mu.Unlock()
		return nil
	}
	if t.defaulting[id] {
		t.mu.Unlock()
		return ErrInFlight
	}
	t.defaulting[id] = true
	gen := t.generation
	t.mu.Unlock()

	rates, err := t.adapter.SetDefaultTaxRate(ctx, id)

	t.mu.Lock()
	if t.generation != gen {
		t.mu.Unlock()
		return ErrClosed
	}
	delete(t.defaulting, id)
	if err != nil {
		t.mu.Unlock()
		t.push(notify.Error, client.Message(err))
		return err
	}
	t.replaceLocked(rates)
	t.mu.Unlock()
	t.push(notify.Success, MsgDefaultChanged)
	return nil
}

// Close unmounts the table: the collection and all per-row state are
// dropped, and results of operations still outstanding are discarded with
// ErrClosed. A later Load starts over.
func (t *Table) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generation++
	t.rates = nil
	t.editing = map[uuid.UUID]bool{}
	t.saving = map[uuid.UUID]bool{}
	t.deleting = map[uuid.UUID]bool{}
	t.defaulting = map[uuid.UUID]bool{}
	t.pendingDelete = uuid.Nil
	t.loading = false
}

// Diff compares a draft with the stored rate and returns a patch holding only
// the changed fields, plus their names. Name and description compare after
// trimming; rates compare numerically so "18.0" equals 18.
func Diff(current domain.TaxRate, draft validation.Values) (domain.Patch, []string) {
	var (
		patch   domain.Patch
		changed []string
	)
	if v, ok := draft[domain.FieldName]; ok {
		if name := strings.TrimSpace(v); name != current.Name {
			patch.Name = &name
			changed = append(changed, domain.FieldName)
		}
	}
	if v, ok := draft[domain.FieldRate]; ok {
		raw := strings.TrimSpace(v)
		d, parsed := validation.ParseDecimal(raw)
		if !parsed || !d.Equal(current.Rate) {
			patch.Rate = &raw
			changed = append(changed, domain.FieldRate)
		}
	}
	if v, ok := draft[domain.FieldDescription]; ok {
		if desc := strings.TrimSpace(v); desc != current.Description {
			patch.Description = &desc
			changed = append(changed, domain.FieldDescription)
		}
	}
	return patch, changed
}

func (t *Table) findLocked(id uuid.UUID) (domain.TaxRate, bool) {
	for _, r := range t.rates {
		if r.ID == id {
			return r, true
		}
	}
	return domain.TaxRate{}, false
}

func (t *Table) replaceLocked(rates []domain.TaxRate) {
	next := make([]domain.TaxRate, len(rates))
	copy(next, rates)
	domain.SortForDisplay(next)
	t.rates = next
	known := make(map[uuid.UUID]bool, len(next))
	for _, r := range next {
		known[r.ID] = true
	}
	for id := range t.editing {
		if !known[id] {
			delete(t.editing, id)
		}
	}
}

func (t *Table) upsertLocked(rate domain.TaxRate) {
	next := make([]domain.TaxRate, 0, len(t.rates)+1)
	replaced := false
	for _, r := range t.rates {
		if r.ID == rate.ID {
			next = append(next, rate)
			replaced = true
			continue
		}
		next = append(next, r)
	}
	if !replaced {
		next = append(next, rate)
	}
	t.replaceLocked(next)
}

func (t *Table) removeLocked(id uuid.UUID) {
	next := make([]domain.TaxRate, 0, len(t.rates))
	for _, r := range t.rates {
		if r.ID != id {
			next = append(next, r)
		}
	}
	t.rates = next
	delete(t.editing, id)
}

func (t *Table) push(kind notify.Kind, msg string) {
	if t.notifier != nil {
		t.notifier.Push(kind, msg)
	}
}
