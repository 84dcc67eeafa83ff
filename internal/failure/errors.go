package failure

import (
	"errors"
	"fmt"
)

// Kind classifies a run failure.
type Kind string

const (
	Config     Kind = "config"
	Launch     Kind = "launch"
	Auth       Kind = "auth"
	Navigation Kind = "navigation"
	Filter     Kind = "filter"
	Export     Kind = "export"
	Parse      Kind = "parse"
	Conversion Kind = "conversion"
	Delete     Kind = "delete"
)

// Error is a failure raised by one pipeline step.
type Error struct {
	Kind Kind
	Step string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s error [%s]", e.Kind, e.Step)
	}
	return fmt.Sprintf("%s error [%s]: %v", e.Kind, e.Step, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRecoverable reports whether the run can continue past this failure.
// Conversion falls back to the raw artifact and cleanup failures are only logged.
func (e *Error) IsRecoverable() bool {
	switch e.Kind {
	case Conversion, Delete:
		return true
	default:
		return false
	}
}

// New wraps err as a failure of the given kind.
func New(kind Kind, step string, err error) *Error {
	return &Error{Kind: kind, Step: step, Err: err}
}

// Newf builds a failure from a format string.
func Newf(kind Kind, step, format string, args ...any) *Error {
	return &Error{Kind: kind, Step: step, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsFatal reports whether err must abort the run. Errors outside the taxonomy are fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var fe *Error
	if errors.As(err, &fe) {
		return !fe.IsRecoverable()
	}
	return true
}
