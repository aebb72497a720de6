package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shashiranjanraj/brewhaus/app/models"
	"github.com/shashiranjanraj/brewhaus/app/repositories"
	"github.com/shashiranjanraj/brewhaus/pkg/event"
)

// Event names fired by the checkout service.
const (
	EventSettled = "checkout.settled"
	EventRetried = "checkout.retried"
)

// Settlement step names reported on partial failure.
const (
	StepCartCleanup     = "cart-cleanup"
	StepOrderSettlement = "order-settlement"
	StepFinalize        = "finalize"
)

// ErrNotOwner reports a submission whose customer email does not match the
// authenticated identity claim.
var ErrNotOwner = errors.New("checkout: submission does not belong to the authenticated customer")

// ErrEmptySubmission reports a submission without cart or order ids; a
// payment record must reference at least one of each.
var ErrEmptySubmission = errors.New("checkout: cart and order id lists must be non-empty")

// ErrUnresolvedDuplicate reports that the unique index rejected the insert
// but no record exists under the submission's idempotency key. Normally
// unreachable; a retry resolves it once the original insert is visible.
var ErrUnresolvedDuplicate = errors.New("checkout: duplicate submission with no matching record")

// SettlementError reports a failure after the payment record was durably
// written. The record is never rolled back; the same submission can be
// retried to completion.
type SettlementError struct {
	Step      string
	PaymentID string
	Err       error
}

func (e *SettlementError) Error() string {
	return fmt.Sprintf("checkout: settlement incomplete at %s (payment %s): %v", e.Step, e.PaymentID, e.Err)
}

func (e *SettlementError) Unwrap() error { return e.Err }

// Submission is the payment confirmation a client posts after the processor
// reports a completed charge. The idempotency key is client-supplied and
// dedupes retried submissions; the wire field names are the ones the
// storefront frontend has always sent.
type Submission struct {
	Email          string   `json:"email" validate:"required,email"`
	Amount         float64  `json:"amount" validate:"required,gt=0"`
	IdempotencyKey string   `json:"idempotencyKey" validate:"required"`
	CartIDs        []string `json:"cartIds"`
	OrderIDs       []string `json:"pendingPaymentCoffeIds"`
}

// SettlementResult is the composite outcome of the three persistence steps.
type SettlementResult struct {
	PaymentID     string `json:"paymentId"`
	Duplicate     bool   `json:"duplicate"`
	CartsDeleted  int64  `json:"cartsDeleted"`
	OrdersSettled int64  `json:"ordersSettled"`
}

// SettledEvent is the payload fired on EventSettled and EventRetried.
type SettledEvent struct {
	PaymentID     string
	Email         string
	Amount        float64
	Duplicate     bool
	CartsDeleted  int64
	OrdersSettled int64
}

// PaymentRecorder is the slice of the payment repository the reconciler
// needs.
type PaymentRecorder interface {
	Insert(ctx context.Context, p models.Payment) (string, error)
	FindByKey(ctx context.Context, key string) (*models.Payment, error)
	MarkSettled(ctx context.Context, id string) error
	Unsettled(ctx context.Context, olderThan time.Time) ([]models.Payment, error)
}

// CartCleaner removes charged cart entries; already-removed ids are not an
// error.
type CartCleaner interface {
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

// OrderSettler flips the payment axis to done; already-settled orders count
// as zero, not as an error.
type OrderSettler interface {
	MarkPaid(ctx context.Context, ids []string) (int64, error)
}

// CheckoutService reconciles a confirmed payment against the cart and order
// stores. The payment record is written first and never rolled back; the two
// derived mutations are idempotent so any retry of the same submission
// converges to the correct end state.
type CheckoutService struct {
	payments PaymentRecorder
	carts    CartCleaner
	orders   OrderSettler
	bus      *event.Bus
	log      *slog.Logger
	grace    time.Duration // how old an unsettled record must be before the sweeper retries it
	now      func() time.Time
}

func NewCheckoutService(payments PaymentRecorder, carts CartCleaner, orders OrderSettler, bus *event.Bus, log *slog.Logger) *CheckoutService {
	return &CheckoutService{
		payments: payments,
		carts:    carts,
		orders:   orders,
		bus:      bus,
		log:      log,
		grace:    time.Minute,
		now:      time.Now,
	}
}

// Settle runs the reconciliation for an authenticated submission. claim is
// the email from the verified session token; a mismatch with the
// submission's customer is rejected before anything is persisted.
func (s *CheckoutService) Settle(ctx context.Context, claim string, sub Submission) (SettlementResult, error) {
	if sub.Email != claim {
		return SettlementResult{}, ErrNotOwner
	}
	if len(sub.CartIDs) == 0 || len(sub.OrderIDs) == 0 {
		return SettlementResult{}, ErrEmptySubmission
	}

	// Step 1: the durable proof of charge. Must succeed before any
	// mutation; if it fails nothing else is attempted.
	record := models.Payment{
		Email:          sub.Email,
		Amount:         sub.Amount,
		IdempotencyKey: sub.IdempotencyKey,
		CartIDs:        sub.CartIDs,
		OrderIDs:       sub.OrderIDs,
		CreatedAt:      s.now(),
	}

	result := SettlementResult{}

	id, err := s.payments.Insert(ctx, record)
	switch {
	case errors.Is(err, repositories.ErrDuplicateKey):
		// A retry of a submission we already recorded. Reuse the
		// original record and continue the derived steps so the retry
		// converges; no second record is ever written.
		existing, findErr := s.payments.FindByKey(ctx, sub.IdempotencyKey)
		if findErr != nil {
			return SettlementResult{}, fmt.Errorf("checkout: resolve duplicate submission: %w", findErr)
		}
		if existing == nil {
			return SettlementResult{}, ErrUnresolvedDuplicate
		}
		result.PaymentID = existing.ID.Hex()
		result.Duplicate = true
	case err != nil:
		return SettlementResult{}, fmt.Errorf("checkout: record payment: %w", err)
	default:
		result.PaymentID = id
	}

	deleted, settled, err := s.continueSettlement(ctx, result.PaymentID, sub.CartIDs, sub.OrderIDs)
	result.CartsDeleted = deleted
	result.OrdersSettled = settled
	if err != nil {
		return result, err
	}

	s.bus.Fire(EventSettled, SettledEvent{
		PaymentID:     result.PaymentID,
		Email:         sub.Email,
		Amount:        sub.Amount,
		Duplicate:     result.Duplicate,
		CartsDeleted:  deleted,
		OrdersSettled: settled,
	})
	return result, nil
}

// continueSettlement runs steps 2 and 3 in strict sequence, then flips the
// record's settled flag. Each step is awaited before the next begins.
func (s *CheckoutService) continueSettlement(ctx context.Context, paymentID string, cartIDs, orderIDs []string) (deleted, settled int64, err error) {
	deleted, err = s.carts.DeleteByIDs(ctx, cartIDs)
	if err != nil {
		return 0, 0, &SettlementError{Step: StepCartCleanup, PaymentID: paymentID, Err: err}
	}

	settled, err = s.orders.MarkPaid(ctx, orderIDs)
	if err != nil {
		return deleted, 0, &SettlementError{Step: StepOrderSettlement, PaymentID: paymentID, Err: err}
	}

	if err := s.payments.MarkSettled(ctx, paymentID); err != nil {
		return deleted, settled, &SettlementError{Step: StepFinalize, PaymentID: paymentID, Err: err}
	}
	return deleted, settled, nil
}

// Sweep retries the derived steps for payment records whose settlement never
// completed, typically after a crash or store outage mid-reconciliation.
// Safe to run repeatedly; both steps are idempotent.
func (s *CheckoutService) Sweep(ctx context.Context) {
	pending, err := s.payments.Unsettled(ctx, s.now().Add(-s.grace))
	if err != nil {
		s.log.Error("settlement sweep: list unsettled", "error", err)
		return
	}

	for _, p := range pending {
		id := p.ID.Hex()
		deleted, settled, err := s.continueSettlement(ctx, id, p.CartIDs, p.OrderIDs)
		if err != nil {
			s.log.Warn("settlement sweep: retry failed", "payment", id, "error", err)
			continue
		}
		s.log.Info("settlement sweep: completed", "payment", id,
			"carts_deleted", deleted, "orders_settled", settled)
		s.bus.Fire(EventRetried, SettledEvent{
			PaymentID:     id,
			Email:         p.Email,
			Amount:        p.Amount,
			CartsDeleted:  deleted,
			OrdersSettled: settled,
		})
	}
}
