package client

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/contractnest/contractnest/internal/taxrates"
	"github.com/contractnest/contractnest/internal/tenantprofile"
	"github.com/contractnest/contractnest/internal/validation"
)

// FallbackMessage is shown when the backend gave nothing usable.
const FallbackMessage = "Something went wrong. Please try again."

// Messages shown instead of the backend wording for known business codes.
var friendly = map[string]string{
	taxrates.CodeDuplicateRate:       "A tax rate with this name and rate already exists.",
	taxrates.CodeCannotDeleteDefault: "Cannot delete the default tax rate. Set another rate as default first.",
	tenantprofile.CodeLogoTooLarge:   "The logo file is too large.",
	tenantprofile.CodeLogoType:       "The logo must be a PNG, JPEG, WebP or SVG image.",
}

// Error is a non-2xx API response.
type Error struct {
	Status  int
	Code    string
	Message string
	Fields  validation.Errors
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

// Is lets callers match field violations with validation.ErrValidation.
func (e *Error) Is(target error) bool {
	return target == validation.ErrValidation && len(e.Fields) > 0
}

type problem struct {
	Title  string            `json:"title"`
	Detail string            `json:"detail"`
	Code   string            `json:"code"`
	Errors validation.Errors `json:"errors"`
}

func decodeError(resp *http.Response) error {
	e := &Error{Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if strings.Contains(resp.Header.Get("Content-Type"), "json") {
		var p problem
		if json.Unmarshal(raw, &p) == nil {
			e.Code = p.Code
			e.Message = p.Detail
			e.Fields = p.Errors
		}
	}
	return e
}

// Code returns the API error code of err, or "".
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsNotFound reports a 404 response.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusNotFound
}

// FieldErrors returns the field violations carried by err.
func FieldErrors(err error) (validation.Errors, bool) {
	var e *Error
	if errors.As(err, &e) && len(e.Fields) > 0 {
		return e.Fields, true
	}
	return nil, false
}

// Message turns any adapter error into text for a notification. Known codes
// get a fixed message, others the backend detail, transport failures the
// fallback.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return FallbackMessage
	}
	if msg, ok := friendly[e.Code]; ok {
		return msg
	}
	if e.Message != "" && e.Status < http.StatusInternalServerError {
		return e.Message
	}
	return FallbackMessage
}
