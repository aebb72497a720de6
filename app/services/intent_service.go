package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

// ErrInvalidAmount rejects non-positive intent amounts before the processor
// is called.
var ErrInvalidAmount = errors.New("intent: amount must be positive")

// PaymentIntents is the slice of the Stripe client the gateway needs.
type PaymentIntents interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// IntentService is the stateless translation layer in front of the payment
// processor: major currency units in, client secret out. Processor errors
// propagate to the caller; there is no retry here.
type IntentService struct {
	intents PaymentIntents
}

func NewIntentService(apiKey string) *IntentService {
	sc := &client.API{}
	sc.Init(apiKey, nil)
	return &IntentService{intents: sc.PaymentIntents}
}

// NewIntentServiceWith injects the processor client; used by tests.
func NewIntentServiceWith(intents PaymentIntents) *IntentService {
	return &IntentService{intents: intents}
}

// MinorUnits converts a major-unit price to the processor's integer cents.
// Rounding keeps whole-cent amounts exact despite float representation.
func MinorUnits(major float64) int64 {
	return int64(math.Round(major * 100))
}

// Create asks the processor for a chargeable intent over the given price and
// returns its client secret.
func (s *IntentService) Create(ctx context.Context, price float64) (string, error) {
	if price <= 0 {
		return "", ErrInvalidAmount
	}

	params := &stripe.PaymentIntentParams{
		Params:             stripe.Params{Context: ctx},
		Amount:             stripe.Int64(MinorUnits(price)),
		Currency:           stripe.String(string(stripe.CurrencyUSD)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}

	pi, err := s.intents.New(params)
	if err != nil {
		return "", fmt.Errorf("payment gateway: %w", err)
	}
	return pi.ClientSecret, nil
}
