// Package notify holds the transient toast messages shown after console
// operations. Nothing is persisted.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind is the toast style.
type Kind string

// Kinds.
const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
	Warning Kind = "warning"
)

// DefaultTTL is how long a toast stays active.
const DefaultTTL = 5 * time.Second

// Toast is one message.
type Toast struct {
	ID      string
	Kind    Kind
	Message string
	At      time.Time
}

// Notifier is what controllers push into.
type Notifier interface {
	Push(kind Kind, message string) Toast
}

// Center keeps toasts until they are dismissed or expire.
type Center struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	toasts []Toast
}

// NewCenter returns a Center. A non-positive ttl uses DefaultTTL.
func NewCenter(ttl time.Duration) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Center{ttl: ttl, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (c *Center) WithClock(now func() time.Time) *Center {
	c.now = now
	return c
}

// Push adds a toast.
func (c *Center) Push(kind Kind, message string) Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := Toast{ID: uuid.NewString(), Kind: kind, Message: message, At: c.now()}
	c.toasts = append(c.toasts, t)
	return t
}

// Dismiss removes a toast by id.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, t := range c.toasts {
		if t.ID == id {
			c.toasts = append(c.toasts[:i], c.toasts[i+1:]...)
			return
		}
	}
}

// Active returns unexpired toasts, oldest first, dropping expired ones.
func (c *Center) Active() []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	cutoff := c.now().Add(-c.ttl)
	kept := c.toasts[:0]
	for _, t := range c.toasts {
		if t.At.After(cutoff) {
			kept = append(kept, t)
		}
	}
	c.toasts = kept
	out := make([]Toast, len(kept))
	copy(out, kept)
	return out
}

// Last returns the newest active toast.
func (c *Center) Last() (Toast, bool) {
	active := c.Active()
	if len(active) == 0 {
		return Toast{}, false
	}
	return active[len(active)-1], true
}
