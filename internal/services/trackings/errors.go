package trackings

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind is the machine-readable reason a tracking payload was rejected.
type ErrorKind string

const (
	KindEmptyPayload          ErrorKind = "EmptyPayload"
	KindInvalidPayload        ErrorKind = "InvalidPayload"
	KindInvalidTrackingNumber ErrorKind = "InvalidTrackingNumber"
	KindInvalidStatus         ErrorKind = "InvalidStatus"
	KindInvalidProgress       ErrorKind = "InvalidProgress"
	KindInvalidDate           ErrorKind = "InvalidDate"
	KindInvalidEmail          ErrorKind = "InvalidEmail"
	KindInvalidWeight         ErrorKind = "InvalidWeight"
	KindInvalidQuantity       ErrorKind = "InvalidQuantity"
	KindInvalidTotalFreight   ErrorKind = "InvalidTotalFreight"
	KindInvalidEvent          ErrorKind = "InvalidEvent"
	KindInvalidField          ErrorKind = "InvalidField"

	KindDuplicateTrackingNumber ErrorKind = "DuplicateTrackingNumber"
)

// ValidationError names the first offending field of a payload.
type ValidationError struct {
	Kind   ErrorKind
	Field  string
	Index  int // events[] position for KindInvalidEvent, -1 otherwise
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Kind == KindInvalidEvent && e.Index >= 0 {
		return fmt.Sprintf("events[%d]: %s", e.Index, e.Reason)
	}
	return e.Reason
}

func invalid(kind ErrorKind, field, reason string) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Index: -1, Reason: reason}
}

func invalidEvent(i int, reason string) *ValidationError {
	return &ValidationError{Kind: KindInvalidEvent, Field: "events", Index: i, Reason: reason}
}

var (
	ErrDuplicateTrackingNumber = errors.New("tracking number already exists")
	ErrTrackingNotFound        = errors.New("tracking not found")
)
