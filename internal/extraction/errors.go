package extraction

import (
	"errors"
	"fmt"
)

type Kind string

const (
	// KindTransient covers timeouts, rate limits and upstream outages that survived the
	// client's own retries. Re-running the unit may succeed.
	KindTransient Kind = "transient"
	// KindMalformed means the model answered but the answer could not be decoded into
	// the expected shape. Raw holds the text for manual follow-up.
	KindMalformed Kind = "malformed"
)

type Error struct {
	Kind Kind
	Op   string
	Raw  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("extraction %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("extraction %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func malformed(op, raw string, err error) *Error {
	return &Error{Kind: KindMalformed, Op: op, Raw: raw, Err: err}
}

func transient(op string, err error) *Error {
	return &Error{Kind: KindTransient, Op: op, Err: err}
}

func IsMalformed(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindMalformed
}

func IsTransient(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindTransient
}

// RawOutput returns the captured model text of a malformed error, or "".
func RawOutput(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindMalformed {
		return e.Raw
	}
	return ""
}
