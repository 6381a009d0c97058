// Package form is the single-entity form state controller used by the console
// create and edit flows.
package form

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/contractnest/contractnest/internal/client"
	"github.com/contractnest/contractnest/internal/notify"
	"github.com/contractnest/contractnest/internal/validation"
)

// InvalidMessage is pushed when submit is blocked by field errors.
const InvalidMessage = "Please fix the validation errors"

var (
	// ErrInvalid is returned by Submit when validation fails; the underlying
	// validation.Errors is wrapped alongside it.
	ErrInvalid = errors.New("form: validation failed")
	// ErrInFlight is returned when Submit is called while a submit is outstanding.
	ErrInFlight = errors.New("form: submit already in progress")
	// ErrClosed is returned for a closed form, including when the form was
	// closed while its submit was outstanding.
	ErrClosed = errors.New("form: closed")
)

// Schema is the validator a form runs; *validation.Schema satisfies it.
type Schema interface {
	Fields() []string
	Validate(name string, values validation.Values) *validation.Violation
	ValidateAll(values validation.Values) validation.Errors
}

// SubmitFunc performs the remote call with a snapshot of the draft.
type SubmitFunc func(ctx context.Context, values validation.Values) error

// Form tracks draft values, touched fields and errors. It is safe for
// concurrent use.
type Form struct {
	mu       sync.Mutex
	schema   Schema
	notifier notify.Notifier

	initial    validation.Values
	draft      validation.Values
	touched    map[string]bool
	errs       validation.Errors
	submitting bool
	closed     bool
	generation uint64
}

// New opens a form over initial values. notifier may be nil.
func New(schema Schema, initial validation.Values, notifier notify.Notifier) *Form {
	f := &Form{schema: schema, notifier: notifier}
	f.open(initial.Clone())
	return f
}

func (f *Form) open(initial validation.Values) {
	if initial == nil {
		initial = validation.Values{}
	}
	for _, name := range f.schema.Fields() {
		if _, ok := initial[name]; !ok {
			initial[name] = ""
		}
	}
	f.initial = initial.Clone()
	f.draft = initial.Clone()
	f.touched = map[string]bool{}
	f.errs = validation.Errors{}
	f.submitting = false
	f.closed = false
}

// Reopen starts over with new initial values, as when editing another entity.
func (f *Form) Reopen(initial validation.Values) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generation++
	f.open(initial.Clone())
}

// Change updates a draft value, marks it touched and clears its error. The
// field is re-validated on blur or submit.
func (f *Form) Change(field, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.draft[field] = value
	f.touched[field] = true
	delete(f.errs, field)
}

// Blur marks the field touched and validates it against the whole draft.
func (f *Form) Blur(field string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.touched[field] = true
	if v := f.schema.Validate(field, f.draft); v != nil {
		f.errs[field] = *v
	} else {
		delete(f.errs, field)
	}
}

// Value returns the draft value of field.
func (f *Form) Value(field string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft[field]
}

// Values returns a copy of the draft.
func (f *Form) Values() validation.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft.Clone()
}

// Initial returns a copy of the values the form was opened with.
func (f *Form) Initial() validation.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initial.Clone()
}

// Touched reports whether the user interacted with field.
func (f *Form) Touched(field string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touched[field]
}

// VisibleError returns the message to show under field, which is empty until
// the field has been touched.
func (f *Form) VisibleError(field string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.touched[field] {
		return ""
	}
	if v, ok := f.errs[field]; ok {
		return v.Message
	}
	return ""
}

// Errors returns a copy of the recorded violations, shown or not.
func (f *Form) Errors() validation.Errors {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(validation.Errors, len(f.errs))
	for k, v := range f.errs {
		out[k] = v
	}
	return out
}

// HasChanges reports whether any draft value differs from its initial value.
func (f *Form) HasChanges() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, v := range f.draft {
		if f.initial[name] != v {
			return true
		}
	}
	return false
}

// IsValid runs full validation on the draft without recording anything.
func (f *Form) IsValid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.schema.ValidateAll(f.draft)) == 0
}

// Submitting reports whether a submit is outstanding.
func (f *Form) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// Closed reports whether Close was called.
func (f *Form) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Submit touches and validates every field, then calls fn with a snapshot of
// the draft. fn is not called when validation fails or another submit is
// outstanding. If fn fails the form stays open for a retry and the adapter
// message is pushed. A result that arrives after Close is dropped and
// ErrClosed returned.
func (f *Form) Submit(ctx context.Context, fn SubmitFunc) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.submitting {
		f.mu.Unlock()
		return ErrInFlight
	}
	for _, name := range f.schema.Fields() {
		f.touched[name] = true
	}
	f.errs = f.schema.ValidateAll(f.draft)
	if len(f.errs) > 0 {
		errs := f.errs
		f.mu.Unlock()
		f.push(notify.Error, InvalidMessage)
		return fmt.Errorf("%w: %w", ErrInvalid, errs)
	}
	f.submitting = true
	gen := f.generation
	values := f.draft.Clone()
	f.mu.Unlock()

	err := fn(ctx, values)

	f.mu.Lock()
	if f.generation != gen || f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	f.submitting = false
	if err != nil {
		if fields, ok := client.FieldErrors(err); ok {
			for name, v := range fields {
				f.touched[name] = true
				f.errs[name] = v
			}
		}
		f.mu.Unlock()
		f.push(notify.Error, client.Message(err))
		return err
	}
	f.initial = values.Clone()
	f.mu.Unlock()
	return nil
}

// Close discards the draft and clears touched and error state. Outstanding
// submits are left to finish; their result is ignored.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generation++
	f.draft = f.initial.Clone()
	f.touched = map[string]bool{}
	f.errs = validation.Errors{}
	f.submitting = false
	f.closed = true
}

func (f *Form) push(kind notify.Kind, msg string) {
	if f.notifier != nil {
		f.notifier.Push(kind, msg)
	}
}
