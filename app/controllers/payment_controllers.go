package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/brewhaus/app/models"
	"github.com/shashiranjanraj/brewhaus/app/services"
	"github.com/shashiranjanraj/brewhaus/pkg/bind"
	"github.com/shashiranjanraj/brewhaus/pkg/logger"
	"github.com/shashiranjanraj/brewhaus/pkg/middleware"
	"github.com/shashiranjanraj/brewhaus/pkg/response"
	"github.com/shashiranjanraj/brewhaus/pkg/validate"
)

// PaymentStore is the payment-history surface the controller needs.
type PaymentStore interface {
	ByEmail(ctx context.Context, email string) ([]models.Payment, error)
}

// IntentCreator opens a payment intent with the gateway for a major-unit price.
type IntentCreator interface {
	Create(ctx context.Context, price float64) (string, error)
}

// Reconciler settles a completed payment against the cart and order books.
type Reconciler interface {
	Settle(ctx context.Context, claim string, sub services.Submission) (services.SettlementResult, error)
}

type PaymentController struct {
	payments   PaymentStore
	intents    IntentCreator
	reconciler Reconciler
}

func NewPaymentController(payments PaymentStore, intents IntentCreator, reconciler Reconciler) *PaymentController {
	return &PaymentController{payments: payments, intents: intents, reconciler: reconciler}
}

type intentRequest struct {
	Price float64 `json:"price" validate:"required,gt=0"`
}

// CreateIntent opens a gateway payment intent and returns its client secret.
func (c *PaymentController) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var body intentRequest
	if errs, err := bind.JSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	secret, err := c.intents.Create(r.Context(), body.Price)
	if err != nil {
		if errors.Is(err, services.ErrInvalidAmount) {
			response.Error(w, http.StatusUnprocessableEntity, "invalid amount")
			return
		}
		logger.WithCtx(r.Context()).Error("intent creation failed", "error", err)
		response.Error(w, http.StatusBadGateway, "payment gateway unavailable")
		return
	}
	response.Success(w, map[string]string{"clientSecret": secret})
}

// History lists payments for the address in the path. The caller may only
// read their own history.
func (c *PaymentController) History(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.ClaimFromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
		return
	}
	email := chi.URLParam(r, "email")
	if email != claim {
		response.Forbidden(w)
		return
	}

	payments, err := c.payments.ByEmail(r.Context(), email)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "could not list payments")
		return
	}
	response.Success(w, payments)
}

// Submit records a completed payment and reconciles the cart and order books
// against it.
func (c *PaymentController) Submit(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.ClaimFromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
		return
	}

	var sub services.Submission
	if errs, err := bind.JSON(r, &sub); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	result, err := c.reconciler.Settle(r.Context(), claim, sub)
	if err != nil {
		var stepErr *services.SettlementError
		switch {
		case errors.Is(err, services.ErrNotOwner):
			response.Forbidden(w)
		case errors.Is(err, services.ErrEmptySubmission):
			response.Error(w, http.StatusUnprocessableEntity, "cartIds and pendingPaymentCoffeIds must not be empty")
		case errors.As(err, &stepErr):
			logger.WithCtx(r.Context()).Error("settlement incomplete",
				"step", stepErr.Step, "payment_id", stepErr.PaymentID, "error", stepErr.Err)
			response.Error(w, http.StatusInternalServerError, "settlement incomplete, retry scheduled")
		default:
			logger.WithCtx(r.Context()).Error("settlement failed", "error", err)
			response.Error(w, http.StatusInternalServerError, "could not record payment")
		}
		return
	}

	response.Success(w, map[string]any{
		"paymentResult": map[string]any{
			"insertedId": result.PaymentID,
			"duplicate":  result.Duplicate,
		},
		"deleteResult": map[string]int64{"deletedCount": result.CartsDeleted},
		"updateResult": map[string]int64{"modifiedCount": result.OrdersSettled},
	})
}
