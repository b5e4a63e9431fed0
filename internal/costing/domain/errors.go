package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Validation errors, raised before any persistence
	ErrInvalidQuantity  = errors.New("quantity must be greater than zero")
	ErrInvalidCost      = errors.New("unit cost cannot be negative")
	ErrMissingTenant    = errors.New("tenant id is required")
	ErrMissingProduct   = errors.New("product id is required")
	ErrMissingWarehouse = errors.New("warehouse id is required")
	ErrUnknownMethod    = errors.New("unknown costing method")

	// ErrScopeContention signals a lost concurrent update on a costing
	// scope; the caller may retry with backoff
	ErrScopeContention = errors.New("concurrent update on costing scope")
)

// InsufficientStockError is returned when a consumption request exceeds the
// total active quantity of the scope. The ledger is guaranteed to be in its
// pre-call state when this error is returned.
type InsufficientStockError struct {
	Requested decimal.Decimal
	Available decimal.Decimal
	Shortfall decimal.Decimal
}

// NewInsufficientStockError builds the error with the shortfall derived
// from requested and available quantities
func NewInsufficientStockError(requested, available decimal.Decimal) *InsufficientStockError {
	return &InsufficientStockError{
		Requested: requested,
		Available: available,
		Shortfall: requested.Sub(available),
	}
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: requested %s, available %s (short %s)",
		e.Requested.String(), e.Available.String(), e.Shortfall.String())
}

// IsInsufficientStock reports whether err wraps an InsufficientStockError
func IsInsufficientStock(err error) bool {
	var target *InsufficientStockError
	return errors.As(err, &target)
}
