// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/contractnest/contractnest/internal/validation"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = validation.ErrValidation
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error codes shared across modules.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_FAILED"
	CodeDuplicate    = "DUPLICATE"
	CodeConflict     = "CONFLICT"
	CodeForbidden    = "FORBIDDEN"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeInternal     = "INTERNAL"
)

// Error is a business-rule failure carrying a stable code clients switch on.
// Kind is one of the sentinels above and decides the HTTP status.
type Error struct {
	Code    string
	Message string
	Kind    error
}

// NewError constructs an Error.
func NewError(code, message string, kind error) *Error {
	return &Error{Code: code, Message: message, Kind: kind}
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	if verrs, ok := validation.AsErrors(err); ok {
		WriteProblem(w, ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusUnprocessableEntity,
			Detail: "Please fix the highlighted fields",
			Code:   CodeValidation,
			Errors: verrs,
		})
		return
	}

	code := ""
	detail := ""
	var coded *Error
	if errors.As(err, &coded) {
		code = coded.Code
		detail = coded.Message
	}

	switch {
	case errors.Is(err, ErrNotFound):
		CodedProblem(w, http.StatusNotFound, "Not Found", detailOr(detail, err), codeOr(code, CodeNotFound))
	case errors.Is(err, ErrDuplicate):
		CodedProblem(w, http.StatusConflict, "Duplicate", detailOr(detail, err), codeOr(code, CodeDuplicate))
	case errors.Is(err, ErrConflict):
		CodedProblem(w, http.StatusConflict, "Conflict", detailOr(detail, err), codeOr(code, CodeConflict))
	case errors.Is(err, ErrForbidden):
		CodedProblem(w, http.StatusForbidden, "Forbidden", detailOr(detail, err), codeOr(code, CodeForbidden))
	case errors.Is(err, ErrUnauthorized):
		CodedProblem(w, http.StatusUnauthorized, "Unauthorized", detailOr(detail, err), codeOr(code, CodeUnauthorized))
	case errors.Is(err, ErrValidation):
		CodedProblem(w, http.StatusBadRequest, "Validation Failed", detailOr(detail, err), codeOr(code, CodeValidation))
	default:
		CodedProblem(w, http.StatusInternalServerError, "Internal Error", "", CodeInternal)
	}
}

func detailOr(detail string, err error) string {
	if detail != "" {
		return detail
	}
	return err.Error()
}

func codeOr(code, fallback string) string {
	if code != "" {
		return code
	}
	return fallback
}
