package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// MockGateway emulates a banking provider without any network I/O.
// SuccessRate of 1.0 always confirms; lower values fail verification
// probabilistically, which is useful for exercising failure paths.
type MockGateway struct {
	SuccessRate float64

	mu   sync.Mutex
	rand *rand.Rand
}

func NewMockGateway(successRate float64) *MockGateway {
	return &MockGateway{
		SuccessRate: successRate,
		rand:        rand.New(rand.NewSource(rand.Int63())),
	}
}

func (g *MockGateway) generateCode(length int) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	b := make([]byte, length)
	for i := range b {
		b[i] = codeAlphabet[g.rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}

func (g *MockGateway) Initiate(_ context.Context, req InitiateRequest) InitiateResult {
	authority := g.generateCode(16)
	return InitiateResult{
		Success:     true,
		Authority:   authority,
		RedirectURL: fmt.Sprintf("https://mock.bank/pay/%s", authority),
		Message:     "The payment request was successfully submitted.",
	}
}

func (g *MockGateway) Verify(_ context.Context, amount int64, authority string) VerifyResult {
	success := true
	if g.SuccessRate < 1 {
		g.mu.Lock()
		success = g.rand.Float64() <= g.SuccessRate
		g.mu.Unlock()
	}
	if !success {
		return VerifyResult{Success: false, Message: "Payment not confirmed by bank"}
	}
	return VerifyResult{
		Success:   true,
		Reference: g.generateCode(20),
		Message:   "Payment successfully confirmed",
	}
}
