package payment

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"food-delivery/internal/domain"
)

// ChargeResult is the processor's verdict.
type ChargeResult struct {
	Success       bool
	TransactionID string
	FailureReason string
}

var failureReasons = []string{
	"Insufficient funds",
	"Card declined",
	"Payment gateway timeout",
	"Invalid card details",
	"Transaction limit exceeded",
}

// SimulatedCharger approves a fixed share of charges at random.
type SimulatedCharger struct {
	successRate float64
	roll        func() float64
	pick        func(n int) int
}

// NewSimulatedCharger returns a charger approving successRate of attempts.
func NewSimulatedCharger(successRate float64) *SimulatedCharger {
	return &SimulatedCharger{successRate: successRate, roll: rand.Float64, pick: rand.IntN}
}

// Charge implements Charger.
func (c *SimulatedCharger) Charge(_ context.Context, _ decimal.Decimal, _ domain.PaymentMethod) ChargeResult {
	if c.roll() < c.successRate {
		return ChargeResult{Success: true, TransactionID: "TXN-" + strings.ToUpper(uuid.NewString()[:8])}
	}
	return ChargeResult{FailureReason: failureReasons[c.pick(len(failureReasons))]}
}
