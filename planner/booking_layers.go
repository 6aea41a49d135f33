package planner

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
)

// Simulated booking channels. Each layer has a fixed success rate so the
// escalation path is exercised end to end without real providers.

// SimulatedLayer books against a fake provider with the given success rate.
type SimulatedLayer struct {
	method      BookingMethod
	successRate float64
	prefix      string
	rng         *rand.Rand
}

// NewSimulatedLayer builds a fake booking channel. seed fixes the outcome
// sequence for reproducible runs.
func NewSimulatedLayer(method BookingMethod, successRate float64, seed int64) *SimulatedLayer {
	return &SimulatedLayer{
		method:      method,
		successRate: successRate,
		prefix:      confirmationPrefix(method),
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// DefaultBookingLayers returns the standard four-channel stack. Success
// rates rise with escalation cost: the primary API is the cheapest and
// flakiest, voice calling the slowest and most reliable.
func DefaultBookingLayers(seed int64) []BookingLayer {
	return []BookingLayer{
		NewSimulatedLayer(MethodPrimaryAPI, 0.70, seed),
		NewSimulatedLayer(MethodSecondaryAPI, 0.80, seed+1),
		NewSimulatedLayer(MethodBrowserAutomation, 0.90, seed+2),
		NewSimulatedLayer(MethodVoiceCalling, 0.95, seed+3),
	}
}

func (l *SimulatedLayer) Method() BookingMethod { return l.method }

func (l *SimulatedLayer) Book(ctx context.Context, item BookingItem) (BookingResult, error) {
	select {
	case <-ctx.Done():
		return BookingResult{}, ctx.Err()
	default:
	}
	if l.rng.Float64() >= l.successRate {
		return BookingResult{}, fmt.Errorf("%s provider rejected %s", l.method, item.Name)
	}
	return BookingResult{
		Success:            true,
		ConfirmationNumber: fmt.Sprintf("%s-%06d", l.prefix, l.rng.Intn(1000000)),
		BookingReference:   fmt.Sprintf("REF-%08d", l.rng.Intn(100000000)),
		Price:              item.Price,
	}, nil
}

func confirmationPrefix(method BookingMethod) string {
	switch method {
	case MethodPrimaryAPI:
		return "PRIM"
	case MethodSecondaryAPI:
		return "SEC"
	case MethodBrowserAutomation:
		return "BROWSER"
	case MethodVoiceCalling:
		return "VOICE"
	default:
		return strings.ToUpper(string(method))
	}
}
