package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/brewhaus/app/models"
	"github.com/shashiranjanraj/brewhaus/app/repositories"
	"github.com/shashiranjanraj/brewhaus/app/services"
	"github.com/shashiranjanraj/brewhaus/pkg/event"
)

type fakePayments struct {
	inserted   []models.Payment
	insertErr  error
	existing   *models.Payment
	settled    []string
	settleErr  error
	unsettled  []models.Payment
	listingErr error
}

func (f *fakePayments) Insert(_ context.Context, p models.Payment) (string, error) {
	if f.insertErr != nil {
		return "", f.insertErr
	}
	f.inserted = append(f.inserted, p)
	return primitive.NewObjectID().Hex(), nil
}

func (f *fakePayments) FindByKey(context.Context, string) (*models.Payment, error) {
	return f.existing, nil
}

func (f *fakePayments) MarkSettled(_ context.Context, id string) error {
	if f.settleErr != nil {
		return f.settleErr
	}
	f.settled = append(f.settled, id)
	return nil
}

func (f *fakePayments) Unsettled(context.Context, time.Time) ([]models.Payment, error) {
	return f.unsettled, f.listingErr
}

type fakeCarts struct {
	deleted [][]string
	count   int64
	err     error
}

func (f *fakeCarts) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.deleted = append(f.deleted, ids)
	return f.count, nil
}

type fakeOrders struct {
	marked [][]string
	count  int64
	err    error
}

func (f *fakeOrders) MarkPaid(_ context.Context, ids []string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.marked = append(f.marked, ids)
	return f.count, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func submission() services.Submission {
	return services.Submission{
		Email:          "milton@example.com",
		Amount:         12.5,
		IdempotencyKey: "key-1",
		CartIDs:        []string{"c1", "c2"},
		OrderIDs:       []string{"o1"},
	}
}

func TestSettleHappyPath(t *testing.T) {
	payments := &fakePayments{}
	carts := &fakeCarts{count: 2}
	orders := &fakeOrders{count: 1}
	bus := event.NewBus()

	var fired []services.SettledEvent
	bus.Listen(services.EventSettled, func(payload interface{}) {
		fired = append(fired, payload.(services.SettledEvent))
	})

	svc := services.NewCheckoutService(payments, carts, orders, bus, discardLogger())
	result, err := svc.Settle(context.Background(), "milton@example.com", submission())
	require.NoError(t, err)

	assert.NotEmpty(t, result.PaymentID)
	assert.False(t, result.Duplicate)
	assert.Equal(t, int64(2), result.CartsDeleted)
	assert.Equal(t, int64(1), result.OrdersSettled)

	require.Len(t, payments.inserted, 1)
	assert.Equal(t, "key-1", payments.inserted[0].IdempotencyKey)
	assert.Equal(t, [][]string{{"c1", "c2"}}, carts.deleted)
	assert.Equal(t, [][]string{{"o1"}}, orders.marked)
	assert.Equal(t, []string{result.PaymentID}, payments.settled)

	require.Len(t, fired, 1)
	assert.Equal(t, result.PaymentID, fired[0].PaymentID)
}

func TestSettleRejectsForeignSubmission(t *testing.T) {
	payments := &fakePayments{}
	svc := services.NewCheckoutService(payments, &fakeCarts{}, &fakeOrders{}, event.NewBus(), discardLogger())

	_, err := svc.Settle(context.Background(), "other@example.com", submission())
	require.ErrorIs(t, err, services.ErrNotOwner)
	assert.Empty(t, payments.inserted, "nothing must be persisted for a foreign submission")
}

func TestSettleRejectsEmptyLists(t *testing.T) {
	svc := services.NewCheckoutService(&fakePayments{}, &fakeCarts{}, &fakeOrders{}, event.NewBus(), discardLogger())

	sub := submission()
	sub.CartIDs = nil
	_, err := svc.Settle(context.Background(), sub.Email, sub)
	require.ErrorIs(t, err, services.ErrEmptySubmission)

	sub = submission()
	sub.OrderIDs = nil
	_, err = svc.Settle(context.Background(), sub.Email, sub)
	require.ErrorIs(t, err, services.ErrEmptySubmission)
}

func TestSettleInsertFailureAbortsEverything(t *testing.T) {
	carts := &fakeCarts{count: 2}
	orders := &fakeOrders{count: 1}
	payments := &fakePayments{insertErr: errors.New("mongo down")}
	svc := services.NewCheckoutService(payments, carts, orders, event.NewBus(), discardLogger())

	_, err := svc.Settle(context.Background(), "milton@example.com", submission())
	require.Error(t, err)
	assert.Empty(t, carts.deleted, "cart cleanup must not run when the record insert fails")
	assert.Empty(t, orders.marked, "order settlement must not run when the record insert fails")
}

func TestSettleDuplicateKeyConverges(t *testing.T) {
	existing := &models.Payment{ID: primitive.NewObjectID(), Email: "milton@example.com", IdempotencyKey: "key-1"}
	payments := &fakePayments{insertErr: repositories.ErrDuplicateKey, existing: existing}
	carts := &fakeCarts{count: 0} // already cleaned by the first attempt
	orders := &fakeOrders{count: 0}
	svc := services.NewCheckoutService(payments, carts, orders, event.NewBus(), discardLogger())

	result, err := svc.Settle(context.Background(), "milton@example.com", submission())
	require.NoError(t, err)

	assert.True(t, result.Duplicate)
	assert.Equal(t, existing.ID.Hex(), result.PaymentID, "the original record is reused")
	assert.Empty(t, payments.inserted, "no second record is written")
	assert.Len(t, carts.deleted, 1, "derived steps still run so a retry converges")
	assert.Len(t, orders.marked, 1)
}

func TestSettleDuplicateWithoutRecord(t *testing.T) {
	payments := &fakePayments{insertErr: repositories.ErrDuplicateKey, existing: nil}
	carts := &fakeCarts{}
	svc := services.NewCheckoutService(payments, carts, &fakeOrders{}, event.NewBus(), discardLogger())

	_, err := svc.Settle(context.Background(), "milton@example.com", submission())
	require.ErrorIs(t, err, services.ErrUnresolvedDuplicate)
	assert.NotContains(t, err.Error(), "%!w", "the error must not wrap a nil cause")
	assert.Empty(t, carts.deleted, "derived steps must not run without a resolved record")
}

func TestSettleCartFailureKeepsRecord(t *testing.T) {
	payments := &fakePayments{}
	carts := &fakeCarts{err: errors.New("cart store down")}
	svc := services.NewCheckoutService(payments, carts, &fakeOrders{}, event.NewBus(), discardLogger())

	result, err := svc.Settle(context.Background(), "milton@example.com", submission())

	var stepErr *services.SettlementError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, services.StepCartCleanup, stepErr.Step)
	assert.Equal(t, result.PaymentID, stepErr.PaymentID)
	assert.Len(t, payments.inserted, 1, "the payment record is never rolled back")
	assert.Empty(t, payments.settled, "a partial settlement stays unsettled")
}

func TestSettleOrderFailureReportsStep(t *testing.T) {
	payments := &fakePayments{}
	orders := &fakeOrders{err: errors.New("order store down")}
	svc := services.NewCheckoutService(payments, &fakeCarts{count: 2}, orders, event.NewBus(), discardLogger())

	result, err := svc.Settle(context.Background(), "milton@example.com", submission())

	var stepErr *services.SettlementError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, services.StepOrderSettlement, stepErr.Step)
	assert.Equal(t, int64(2), result.CartsDeleted, "counts observed so far are still reported")
}

func TestSweepRetriesUnsettled(t *testing.T) {
	record := models.Payment{
		ID:       primitive.NewObjectID(),
		Email:    "milton@example.com",
		CartIDs:  []string{"c1"},
		OrderIDs: []string{"o1"},
	}
	payments := &fakePayments{unsettled: []models.Payment{record}}
	carts := &fakeCarts{}
	orders := &fakeOrders{}
	bus := event.NewBus()

	var retried []services.SettledEvent
	bus.Listen(services.EventRetried, func(payload interface{}) {
		retried = append(retried, payload.(services.SettledEvent))
	})

	svc := services.NewCheckoutService(payments, carts, orders, bus, discardLogger())
	svc.Sweep(context.Background())

	assert.Equal(t, [][]string{{"c1"}}, carts.deleted)
	assert.Equal(t, [][]string{{"o1"}}, orders.marked)
	assert.Equal(t, []string{record.ID.Hex()}, payments.settled)
	require.Len(t, retried, 1)
	assert.Equal(t, record.ID.Hex(), retried[0].PaymentID)
}

func TestSweepKeepsGoingAfterFailure(t *testing.T) {
	a := models.Payment{ID: primitive.NewObjectID(), CartIDs: []string{"c1"}, OrderIDs: []string{"o1"}}
	b := models.Payment{ID: primitive.NewObjectID(), CartIDs: []string{"c2"}, OrderIDs: []string{"o2"}}
	payments := &fakePayments{unsettled: []models.Payment{a, b}, settleErr: errors.New("flaky")}
	carts := &fakeCarts{}
	svc := services.NewCheckoutService(payments, carts, &fakeOrders{}, event.NewBus(), discardLogger())

	svc.Sweep(context.Background())

	assert.Len(t, carts.deleted, 2, "a failed record does not stop the sweep")
}
