package apierr

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// FieldErrors maps a dotted field path (e.g. "actor.mbox") to its messages.
type FieldErrors map[string][]string

// Add appends msg to the messages recorded for field.
func (f FieldErrors) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

// Has reports whether any message is recorded for field.
func (f FieldErrors) Has(field string) bool {
	return len(f[field]) > 0
}

// Fields returns the field paths in sorted order.
func (f FieldErrors) Fields() []string {
	out := make([]string, 0, len(f))
	for k := range f {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// First returns the first message of the first field in sorted order.
func (f FieldErrors) First() string {
	for _, k := range f.Fields() {
		if msgs := f[k]; len(msgs) > 0 {
			return msgs[0]
		}
	}
	return ""
}

type Error struct {
	Status int
	Code   string
	Err    error
	Fields FieldErrors
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if len(e.Fields) > 0 {
		return e.Fields.First()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// Validation builds a 422 error carrying per-field messages.
func Validation(fields FieldErrors) *Error {
	return &Error{Status: http.StatusUnprocessableEntity, Code: "validation_failed", Fields: fields}
}

// Message summarises field errors the way form clients expect:
// the first message, plus a count of the remaining ones.
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	if len(e.Fields) == 0 {
		return e.Error()
	}
	total := 0
	for _, msgs := range e.Fields {
		total += len(msgs)
	}
	first := e.Fields.First()
	switch rest := total - 1; {
	case rest <= 0:
		return first
	case rest == 1:
		return strings.TrimSpace(first) + " (and 1 more error)"
	default:
		return fmt.Sprintf("%s (and %d more errors)", strings.TrimSpace(first), rest)
	}
}
