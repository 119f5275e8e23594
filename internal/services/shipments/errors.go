package shipments

import "github.com/pkg/errors"

// ValidationError reports the first field of a shipment payload that failed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

var (
	ErrInvalidID               = errors.New("invalid shipment id")
	ErrShipmentNotFound        = errors.New("shipment not found")
	ErrDuplicateShipmentNumber = errors.New("shipment number already exists")
)
