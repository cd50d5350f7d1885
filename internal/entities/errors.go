package entities

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrOrderNotFound   = errors.New("order not found")
	ErrPaymentNotFound = errors.New("payment not found")

	ErrProductUnavailable = errors.New("product unavailable")
	ErrInsufficientStock  = errors.New("insufficient stock")

	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrDuplicatePayment  = errors.New("active payment already exists for order")
	ErrRefundExceeded    = errors.New("refund exceeds payment amount")

	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrUnknownGateway     = errors.New("unknown gateway")
	ErrGatewayUnavailable = errors.New("gateway unavailable")
	ErrGatewayRejected    = errors.New("gateway rejected payment")
)

// ProductError wraps ErrProductUnavailable or ErrInsufficientStock so callers
// always learn which product broke the order.
func ProductError(sentinel error, productID string) error {
	return fmt.Errorf("%w: product %s", sentinel, productID)
}
