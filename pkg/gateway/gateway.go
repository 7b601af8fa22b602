package gateway

import "context"

// InitiateRequest carries what the bank needs to open a payment.
// Amount is in the currency's whole units; fractional minor units must
// be resolved by the caller before reaching the port.
type InitiateRequest struct {
	Amount      int64
	Description string
	CallbackURL string
	Email       string
	Mobile      string
}

// InitiateResult reports the outcome of a payment request. On success
// Authority is a non-empty opaque token and RedirectURL is where the
// payer's browser should be sent.
type InitiateResult struct {
	Success     bool
	Authority   string
	RedirectURL string
	Message     string
}

// VerifyResult reports the outcome of settlement verification. On
// success Reference is the bank's proof of settlement.
type VerifyResult struct {
	Success   bool
	Reference string
	Message   string
}

// Gateway is the payment gateway port. Network, timeout and protocol
// failures are folded into a failed result, never returned as an error
// or reported as success. Verify may be called repeatedly for the same
// authority; local payment status gates re-billing, not the gateway.
type Gateway interface {
	Initiate(ctx context.Context, req InitiateRequest) InitiateResult
	Verify(ctx context.Context, amount int64, authority string) VerifyResult
}
