package errs

import (
	"errors"
	"fmt"
)

// ErrNotFound marks an unknown entity id. The HTTP layer maps it to 404.
var ErrNotFound = errors.New("not found")

// ValidationError is a malformed or incomplete request, mapped to 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// InsufficientStockError rejects a checkout line whose requested quantity
// exceeds the stock seen under the row lock. The whole transaction rolls back.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func IsInsufficientStock(err error) bool {
	var se *InsufficientStockError
	return errors.As(err, &se)
}

// GatewayError wraps a failed call to the hosted-payment provider. The
// checkout engine swallows it; it never fails a committed order.
type GatewayError struct {
	Err error
}

func (e *GatewayError) Error() string { return "payment gateway: " + e.Err.Error() }
func (e *GatewayError) Unwrap() error { return e.Err }
