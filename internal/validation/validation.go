// Package validation holds declarative field rules shared by the settings API
// and the console state controllers.
package validation

import (
	"errors"
	"sort"
	"strings"
)

// Kind classifies a field violation.
type Kind string

// Violation kinds.
const (
	KindRequired          Kind = "REQUIRED_FIELD"
	KindTooLong           Kind = "TOO_LONG"
	KindInvalidFormat     Kind = "INVALID_FORMAT"
	KindOutOfRange        Kind = "OUT_OF_RANGE"
	KindPrecisionExceeded Kind = "PRECISION_EXCEEDED"
)

// ErrValidation is matched by every Errors value via errors.Is.
var ErrValidation = errors.New("validation failed")

// Violation describes why a single field is invalid.
type Violation struct {
	Field   string `json:"field"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Errors maps field name to its violation.
type Errors map[string]Violation

// Add records v, keeping the first violation reported for a field.
func (e Errors) Add(v Violation) {
	if _, exists := e[v.Field]; exists {
		return
	}
	e[v.Field] = v
}

// Fields returns the violated field names in lexical order.
func (e Errors) Fields() []string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Err returns nil when there are no violations.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, name := range e.Fields() {
		parts = append(parts, name+": "+e[name].Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Is reports ErrValidation so callers can branch without a type assertion.
func (e Errors) Is(target error) bool {
	return target == ErrValidation
}

// AsErrors extracts field violations from err.
func AsErrors(err error) (Errors, bool) {
	var verrs Errors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}

// Values holds raw form input keyed by field name. Input stays a string while
// the user types so intermediate states like "12." survive.
type Values map[string]string

// Clone returns an independent copy.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}
