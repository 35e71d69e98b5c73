package affiliate

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnknownTier is returned when a tier name from outside the process
	// does not match any tier.
	ErrUnknownTier = errors.New("unknown tier")

	// ErrInvalidTransition is returned for an application or order status
	// change the lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotEligible is returned when an affiliate that is not approved
	// would earn a commission or receive a payout.
	ErrNotEligible = errors.New("affiliate not eligible")

	// ErrNothingToPay is returned when a payout finds no pending commissions.
	ErrNothingToPay = errors.New("no pending commissions")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

type UnknownTierError struct {
	Name string
}

func (e *UnknownTierError) Error() string { return fmt.Sprintf("unknown tier %q", e.Name) }
func (e *UnknownTierError) Unwrap() error { return ErrUnknownTier }

type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move affiliate from %s to %s", e.From, e.To)
}
func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

type OrderTransitionError struct {
	OrderID string
	From    OrderStatus
	To      OrderStatus
}

func (e *OrderTransitionError) Error() string {
	return fmt.Sprintf("cannot move order %s from %s to %s", e.OrderID, e.From, e.To)
}
func (e *OrderTransitionError) Unwrap() error { return ErrInvalidTransition }

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownTier) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrNotEligible) ||
		errors.Is(err, ErrNothingToPay)
}
