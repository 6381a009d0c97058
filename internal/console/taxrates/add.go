package taxrates

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/contractnest/contractnest/internal/client"
	"github.com/contractnest/contractnest/internal/form"
	"github.com/contractnest/contractnest/internal/notify"
	domain "github.com/contractnest/contractnest/internal/taxrates"
	"github.com/contractnest/contractnest/internal/validation"
)

// AddForm is the create dialog. A form keeps one idempotency key for its
// lifetime so a retried submit cannot create the rate twice.
type AddForm struct {
	*form.Form
	key       string
	isDefault bool
}

// NewAddForm opens an empty create form.
func (t *Table) NewAddForm() *AddForm {
	return &AddForm{
		Form: form.New(domain.Schema, validation.Values{}, t.notifier),
		key:  uuid.NewString(),
	}
}

// SetDefault marks the rate being created as the new default.
func (a *AddForm) SetDefault(v bool) { a.isDefault = v }

// IdempotencyKey returns the key sent with every submit of this form.
func (a *AddForm) IdempotencyKey() string { return a.key }

// Create submits the add form. On success the server's row joins the table
// in display order, a previous default is cleared when the new row is the
// default, and the form is closed. A DUPLICATE_REQUEST answer means an
// earlier submit with this key was created but its response was lost, so the
// table reloads from the server instead.
func (t *Table) Create(ctx context.Context, add *AddForm) error {
	t.mu.Lock()
	gen := t.generation
	t.mu.Unlock()
	err := add.Submit(ctx, func(ctx context.Context, values validation.Values) error {
		in := domain.CreateInput{
			Name:        strings.TrimSpace(values[domain.FieldName]),
			Rate:        strings.TrimSpace(values[domain.FieldRate]),
			Description: strings.TrimSpace(values[domain.FieldDescription]),
			IsDefault:   add.isDefault,
		}
		created, err := t.adapter.CreateTaxRate(ctx, in, add.key)
		if client.Code(err) == domain.CodeDuplicateRequest {
			rates, listErr := t.adapter.ListTaxRates(ctx)
			if listErr != nil {
				return listErr
			}
			t.mu.Lock()
			if t.generation == gen {
				t.replaceLocked(rates)
			}
			t.mu.Unlock()
			return nil
		}
		if err != nil {
			return err
		}
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.generation != gen {
			return nil
		}
		if created.IsDefault {
			for i := range t.rates {
				t.rates[i].IsDefault = false
			}
		}
		t.upsertLocked(created)
		return nil
	})
	if err != nil {
		return err
	}
	add.Close()
	t.push(notify.Success, MsgCreated)
	return nil
}
