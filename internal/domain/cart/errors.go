// internal/domain/cart/errors.go
package cart

import (
	"errors"
	"fmt"
)

// Sentinel errors for the cart domain. Handlers map these onto HTTP statuses.
var (
	// ErrCartNotFound is returned when no cart record exists for the caller
	ErrCartNotFound = errors.New("cart not found")

	// ErrItemNotFound is returned when an itemID does not match any line in the cart
	ErrItemNotFound = errors.New("cart item not found")

	// ErrProductNotFound is returned when the catalog service has no such product
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidCoupon is returned when the promotion service rejects a coupon code
	ErrInvalidCoupon = errors.New("invalid coupon")

	// ErrUpstreamUnavailable is returned when a required collaborator call failed
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
)

// ValidationError describes a request rejected before any mutation was applied
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
