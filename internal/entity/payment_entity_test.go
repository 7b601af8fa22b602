package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func pendingPayment() *Payment {
	return &Payment{
		Id:          uuid.New(),
		UserId:      uuid.New(),
		Amount:      decimal.NewFromInt(490000),
		Currency:    "IRR",
		Status:      PaymentStatusPending,
		RequestedAt: time.Now(),
		Metadata:    map[string]interface{}{},
	}
}

func TestMarkSuccess(t *testing.T) {
	p := pendingPayment()

	err := p.MarkSuccess("REF-12345", map[string]interface{}{"gateway_message": "verified"})
	assert.NoError(t, err)

	assert.Equal(t, PaymentStatusSuccess, p.Status)
	assert.Equal(t, "REF-12345", p.ReferenceCode)
	assert.NotNil(t, p.ProcessedAt)
	assert.Equal(t, "verified", p.Metadata["gateway_message"])
	assert.True(t, p.IsTerminal())
}

func TestMarkFailedRecordsReason(t *testing.T) {
	p := pendingPayment()

	err := p.MarkFailed("amount mismatch")
	assert.NoError(t, err)

	assert.Equal(t, PaymentStatusFailed, p.Status)
	assert.Empty(t, p.ReferenceCode)
	assert.NotNil(t, p.ProcessedAt)
	assert.Equal(t, "amount mismatch", p.Metadata["reason"])
	assert.True(t, p.IsTerminal())
}

func TestTransitionsRejectedOnTerminalPayment(t *testing.T) {
	p := pendingPayment()
	assert.NoError(t, p.MarkSuccess("REF-1", nil))

	assert.ErrorIs(t, p.MarkSuccess("REF-2", nil), ErrInvalidState)
	assert.ErrorIs(t, p.MarkFailed("late failure"), ErrInvalidState)

	// The original settlement is untouched.
	assert.Equal(t, PaymentStatusSuccess, p.Status)
	assert.Equal(t, "REF-1", p.ReferenceCode)
}

func TestMarkSuccessOnNilMetadata(t *testing.T) {
	p := pendingPayment()
	p.Metadata = nil

	assert.NoError(t, p.MarkSuccess("REF-9", map[string]interface{}{"k": "v"}))
	assert.Equal(t, "v", p.Metadata["k"])
}

func TestIsTerminal(t *testing.T) {
	p := pendingPayment()
	assert.False(t, p.IsTerminal())

	p.Status = PaymentStatusRefunded
	assert.True(t, p.IsTerminal())
}
