// Package apperr classifies domain errors so the request boundary can
// translate them into a status code without knowing every sentinel.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindBusinessRule
	KindConflict
	KindIntegrity
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindBusinessRule:
		return "business_rule"
	case KindConflict:
		return "conflict"
	case KindIntegrity:
		return "integrity"
	case KindUpstream:
		return "upstream"
	default:
		return "unknown"
	}
}

// Error is a classified error. Code is a stable snake_case identifier,
// Message is shown to the player verbatim.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	// Status overrides the kind's default HTTP status when non-zero.
	Status int
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) WithStatus(status int) *Error {
	out := *e
	out.Status = status
	return &out
}

// WithMessage returns a copy carrying a more specific player-facing text.
func (e *Error) WithMessage(msg string) *Error {
	out := *e
	out.Message = msg
	return &out
}

func (e *Error) Error() string {
	return e.Code
}

// Is matches on code so copies made by WithStatus still satisfy errors.Is
// against the original sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Kind == e.Kind
}

func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindUnknown
}

// HTTPStatus maps err onto a response status and error code.
func HTTPStatus(err error) (int, string) {
	e, ok := As(err)
	if !ok {
		return http.StatusInternalServerError, "internal_error"
	}
	if e.Status != 0 {
		return e.Status, e.Code
	}
	switch e.Kind {
	case KindValidation, KindBusinessRule:
		return http.StatusBadRequest, e.Code
	case KindNotFound:
		return http.StatusNotFound, e.Code
	case KindConflict:
		return http.StatusConflict, e.Code
	case KindUpstream:
		return http.StatusBadGateway, e.Code
	default:
		return http.StatusInternalServerError, e.Code
	}
}

// Message returns the player-facing text for err.
func Message(err error) string {
	if e, ok := As(err); ok && e.Message != "" {
		return e.Message
	}
	return "Internal server error"
}
