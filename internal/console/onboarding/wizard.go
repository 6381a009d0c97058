// Package onboarding drives the three-step tenant onboarding wizard.
package onboarding

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/contractnest/contractnest/internal/client"
	"github.com/contractnest/contractnest/internal/form"
	"github.com/contractnest/contractnest/internal/notify"
	"github.com/contractnest/contractnest/internal/tenantprofile"
	"github.com/contractnest/contractnest/internal/validation"
)

// MsgSaved is pushed after a successful submit.
const MsgSaved = "Organization profile saved"

var (
	ErrNotFinalStep = errors.New("onboarding: submit is only allowed on the last step")
	ErrInFlight     = errors.New("onboarding: submit already in progress")
)

// Step is a wizard page.
type Step int

const (
	StepBusinessType Step = iota
	StepIndustry
	StepOrganization
)

var stepNames = [...]string{"business-type", "industry", "organization-details"}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// Steps lists the wizard pages in order.
func Steps() []Step {
	return []Step{StepBusinessType, StepIndustry, StepOrganization}
}

const lastStep = StepOrganization

// Adapter is the remote side of the wizard; *client.Client satisfies it.
type Adapter interface {
	GetProfile(ctx context.Context) (tenantprofile.Profile, error)
	SaveProfile(ctx context.Context, p tenantprofile.Profile) (tenantprofile.Profile, error)
	UploadLogo(ctx context.Context, filename string, r io.Reader) (string, error)
}

var _ Adapter = (*client.Client)(nil)

// Option configures a Wizard.
type Option func(*Wizard)

// Linear disables backward navigation.
func Linear() Option {
	return func(w *Wizard) { w.linear = true }
}

type pendingLogo struct {
	filename string
	data     []byte
}

// Wizard holds the current step and the draft profile. The draft survives
// navigation in both directions.
type Wizard struct {
	mu         sync.Mutex
	adapter    Adapter
	notifier   notify.Notifier
	linear     bool
	step       Step
	draft      tenantprofile.Profile
	logo       *pendingLogo
	errs       validation.Errors
	submitting bool
}

// New returns a wizard on the first step with an empty draft.
func New(adapter Adapter, notifier notify.Notifier, opts ...Option) *Wizard {
	w := &Wizard{adapter: adapter, notifier: notifier, errs: validation.Errors{}}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Load seeds the draft from the saved profile. A tenant that has not
// onboarded yet starts empty.
func (w *Wizard) Load(ctx context.Context) error {
	p, err := w.adapter.GetProfile(ctx)
	if err != nil {
		if client.IsNotFound(err) {
			return nil
		}
		w.push(notify.Error, client.Message(err))
		return err
	}
	w.mu.Lock()
	w.draft = p
	w.mu.Unlock()
	return nil
}

// Current returns the active step.
func (w *Wizard) Current() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// IsLast reports whether the active step is the final one.
func (w *Wizard) IsLast() bool { return w.Current() == lastStep }

// CanGoBack reports whether Prev would move.
func (w *Wizard) CanGoBack() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.linear && w.step > StepBusinessType
}

// Next advances one step. It reports false on the last step.
func (w *Wizard) Next() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step >= lastStep {
		return false
	}
	w.step++
	return true
}

// Prev goes back one step. It reports false on the first step or when
// the wizard is linear.
func (w *Wizard) Prev() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.linear || w.step <= StepBusinessType {
		return false
	}
	w.step--
	return true
}

// Draft returns a copy of the draft profile.
func (w *Wizard) Draft() tenantprofile.Profile {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// Update edits the draft in place and clears the errors it might have fixed.
func (w *Wizard) Update(fn func(*tenantprofile.Profile)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(&w.draft)
	w.errs = validation.Errors{}
}

// SelectBusinessType records the choice of the first step.
func (w *Wizard) SelectBusinessType(id string) {
	w.Update(func(p *tenantprofile.Profile) { p.BusinessTypeID = id })
}

// SelectIndustry records the choice of the second step.
func (w *Wizard) SelectIndustry(id string) {
	w.Update(func(p *tenantprofile.Profile) { p.IndustryID = id })
}

// SetLogo stages a logo for upload on submit.
func (w *Wizard) SetLogo(filename string, data []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.logo = &pendingLogo{filename: filename, data: append([]byte(nil), data...)}
}

// ClearLogo drops a staged logo.
func (w *Wizard) ClearLogo() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.logo = nil
}

// HasPendingLogo reports whether a logo is waiting for upload.
func (w *Wizard) HasPendingLogo() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.logo != nil
}

// Errors returns the field errors from the last submit.
func (w *Wizard) Errors() validation.Errors {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(validation.Errors, len(w.errs))
	for k, v := range w.errs {
		out[k] = v
	}
	return out
}

// Error returns the message for one field, or "".
func (w *Wizard) Error(field string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.errs[field].Message
}

// Submitting reports whether a submit is outstanding.
func (w *Wizard) Submitting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitting
}

// Submit validates the draft, uploads a staged logo and saves the profile.
// A failed upload aborts before anything is saved. The wizard stays on the
// last step either way.
func (w *Wizard) Submit(ctx context.Context) (tenantprofile.Profile, error) {
	w.mu.Lock()
	if w.step != lastStep {
		w.mu.Unlock()
		return tenantprofile.Profile{}, ErrNotFinalStep
	}
	if w.submitting {
		w.mu.Unlock()
		return tenantprofile.Profile{}, ErrInFlight
	}
	profile := tenantprofile.Normalise(w.draft)
	if err := tenantprofile.Validate(profile); err != nil {
		errs, ok := validation.AsErrors(err)
		if !ok {
			w.mu.Unlock()
			return tenantprofile.Profile{}, err
		}
		w.errs = errs
		w.mu.Unlock()
		w.push(notify.Error, form.InvalidMessage)
		return tenantprofile.Profile{}, fmt.Errorf("%w: %w", form.ErrInvalid, err)
	}
	w.errs = validation.Errors{}
	w.submitting = true
	logo := w.logo
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.submitting = false
		w.mu.Unlock()
	}()

	if logo != nil {
		url, err := w.adapter.UploadLogo(ctx, logo.filename, bytes.NewReader(logo.data))
		if err != nil {
			w.push(notify.Error, client.Message(err))
			return tenantprofile.Profile{}, fmt.Errorf("upload logo: %w", err)
		}
		profile.Branding.LogoURL = url
		w.mu.Lock()
		w.draft.Branding.LogoURL = url
		if w.logo == logo {
			w.logo = nil
		}
		w.mu.Unlock()
	}

	saved, err := w.adapter.SaveProfile(ctx, profile)
	if err != nil {
		if fields, ok := client.FieldErrors(err); ok {
			w.mu.Lock()
			w.errs = fields
			w.mu.Unlock()
		}
		w.push(notify.Error, client.Message(err))
		return tenantprofile.Profile{}, err
	}

	w.mu.Lock()
	w.draft = saved
	w.mu.Unlock()
	w.push(notify.Success, MsgSaved)
	return saved, nil
}

func (w *Wizard) push(kind notify.Kind, msg string) {
	if w.notifier != nil {
		w.notifier.Push(kind, msg)
	}
}
