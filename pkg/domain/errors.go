package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrOrphanChain is returned when an after-previous/with-previous animation has no preceding anchor.
var ErrOrphanChain = errors.New("chained animation has no preceding on-click or on-key anchor")

// ErrMissingKey is returned when an on-key animation has no single-character key.
var ErrMissingKey = errors.New("on-key animation requires exactly one key character")

// ErrUnexpectedKey is returned when a key is authored on a trigger other than on-key.
var ErrUnexpectedKey = errors.New("key is only allowed on on-key animations")

// ErrUnknownTrigger is returned for trigger values outside the known set.
var ErrUnknownTrigger = errors.New("unknown animation trigger")

// ErrNegativeTiming is returned for negative delays or durations.
var ErrNegativeTiming = errors.New("animation timing must not be negative")

// ErrSlideOutOfRange is returned when a slide index does not exist in the deck.
var ErrSlideOutOfRange = errors.New("slide index out of range")

// ErrAlreadyPresenting is returned when Start is called on an active session.
var ErrAlreadyPresenting = errors.New("presentation already started")

// ErrNotPresenting is returned when an operation requires an active presentation.
var ErrNotPresenting = errors.New("not presenting")

// ErrUnknownMessage is returned when a channel payload has an unrecognized shape.
var ErrUnknownMessage = errors.New("unknown channel message")

// ErrLockHeld is returned when another driver holds the lease on a presentation topic.
var ErrLockHeld = errors.New("presentation topic is driven by another presenter")

// ErrLeaseLost is returned when renewing a lease that expired or was taken over.
var ErrLeaseLost = errors.New("presentation lease lost")

// CompileError attributes a configuration error to an authored animation.
type CompileError struct {
	SlideIndex     int // -1 when compiling a bare animation list
	AnimationIndex int
	Target         ElementID
	Err            error
}

func (e *CompileError) Error() string {
	if e.SlideIndex < 0 {
		return fmt.Sprintf("animation %d (target %q): %v", e.AnimationIndex, e.Target, e.Err)
	}
	return fmt.Sprintf("slide %d, animation %d (target %q): %v", e.SlideIndex, e.AnimationIndex, e.Target, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// AggregateError represents multiple configuration failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d configuration errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Unwrap exposes every wrapped error to errors.Is / errors.As.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// Join returns nil for no errors, the error itself for one, and an AggregateError otherwise.
func Join(errs ...error) error {
	var kept []error
	for _, err := range errs {
		if err == nil {
			continue
		}
		var agg *AggregateError
		if errors.As(err, &agg) {
			kept = append(kept, agg.Errors...)
			continue
		}
		kept = append(kept, err)
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return &AggregateError{Errors: kept}
}

// CompileErrors returns every CompileError contained in err.
func CompileErrors(err error) []*CompileError {
	if err == nil {
		return nil
	}
	var out []*CompileError
	var agg *AggregateError
	if errors.As(err, &agg) {
		for _, e := range agg.Errors {
			out = append(out, CompileErrors(e)...)
		}
		return out
	}
	var ce *CompileError
	if errors.As(err, &ce) {
		out = append(out, ce)
	}
	return out
}
