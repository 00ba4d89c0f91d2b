package domain

import (
	"net/http"

	"github.com/pkg/errors"
)

var (
	ErrPasteNotFound     = NewErr("PASTE_NOT_FOUND", "paste not found", http.StatusNotFound)
	ErrPasteTooLarge     = NewErr("PASTE_TOO_LARGE", "payload too large", http.StatusRequestEntityTooLarge)
	ErrExpiryRequired    = NewErr("EXPIRY_REQUIRED", "paste must have an expiry time attached", http.StatusBadRequest)
	ErrExpiryTooFar      = NewErr("EXPIRY_TOO_FAR", "invalid expiration timestamp", http.StatusBadRequest)
	ErrEmptyPaste        = NewErr("EMPTY_PASTE", "title or content was empty", http.StatusBadRequest)
	ErrInvalidRequest    = NewErr("INVALID_REQUEST", "invalid request", http.StatusBadRequest)
	ErrReportNotFound    = NewErr("REPORT_NOT_FOUND", "report not found", http.StatusNotFound)
	ErrReportingDisabled = NewErr("REPORTING_DISABLED", "reporting is not enabled for this instance", http.StatusForbidden)
	ErrEmptyDecryptKey   = NewErr("EMPTY_DECRYPTION_KEY", "decryption key must not be empty", http.StatusBadRequest)
	ErrReasonTooShort    = NewErr("REASON_TOO_SHORT", "report reason is too short", http.StatusBadRequest)
	ErrInvalidPage       = NewErr("INVALID_PAGE", "invalid pagination parameters", http.StatusBadRequest)
	ErrUnauthorized      = NewErr("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized)
	ErrForbidden         = NewErr("FORBIDDEN", "forbidden", http.StatusForbidden)
	ErrInternalServer    = NewErr("INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
)

type Err struct {
	Code   string
	Msg    string
	Status int
}

func (e *Err) Error() string { return e.Msg }
func NewErr(code, msg string, status int) *Err {
	return &Err{Code: code, Msg: msg, Status: status}
}

// Status maps an error to its HTTP status, unwrapping pkg/errors chains.
// Unknown errors are storage or programming failures and become opaque 500s.
func Status(err error) int {
	if e, ok := err.(*Err); ok {
		return e.Status
	}
	if e, ok := errors.Cause(err).(*Err); ok {
		return e.Status
	}
	return http.StatusInternalServerError
}

// Message returns the short human-readable body for an error. Anything that
// is not a domain error leaks no internal detail.
func Message(err error) string {
	if e, ok := err.(*Err); ok {
		return e.Msg
	}
	if e, ok := errors.Cause(err).(*Err); ok {
		return e.Msg
	}
	return "internal server error"
}
