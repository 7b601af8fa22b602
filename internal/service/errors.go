package service

import "errors"

var (
	ErrPlanNotFound = errors.New("plan not found")
	ErrPlanInactive = errors.New("plan is not active")
	ErrUserNotFound = errors.New("user not found")

	// ErrNoActiveSubscription is returned by cancel/renew when the user
	// has nothing live to operate on.
	ErrNoActiveSubscription = errors.New("no active subscription found")

	// ErrUnknownAuthority means a callback referenced an authority code
	// that matches no payment row. Nothing is created in response.
	ErrUnknownAuthority = errors.New("payment information not found")

	// ErrDowngradeNotAllowed guards selecting a plan below the current
	// active plan's level. Enforced by the calling layer, not the store.
	ErrDowngradeNotAllowed = errors.New("cannot switch to a lower plan than the current subscription")

	ErrVideoNotFound  = errors.New("video not found")
	ErrAccessDenied   = errors.New("an active subscription of a sufficient level is required")
	ErrEmailTaken     = errors.New("email is already registered")
	ErrInvalidLogin   = errors.New("invalid email or password")
	ErrNoSubscription = errors.New("user has no subscription")
)

// GatewayError reports a failed payment initiation. The payment row is
// persisted as FAILED for audit before this is returned.
type GatewayError struct {
	Message string
}

func (e *GatewayError) Error() string {
	return "payment gateway error: " + e.Message
}
