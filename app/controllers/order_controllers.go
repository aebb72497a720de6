package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/brewhaus/app/models"
	"github.com/shashiranjanraj/brewhaus/pkg/bind"
	"github.com/shashiranjanraj/brewhaus/pkg/middleware"
	"github.com/shashiranjanraj/brewhaus/pkg/response"
	"github.com/shashiranjanraj/brewhaus/pkg/validate"
)

// OrderStore is the order persistence surface the controller needs.
type OrderStore interface {
	All(ctx context.Context) ([]models.Order, error)
	ByEmail(ctx context.Context, email string) ([]models.Order, error)
	Insert(ctx context.Context, order models.Order) (string, error)
	MarkDone(ctx context.Context, id string) (int64, error)
	DeleteByCoffee(ctx context.Context, email, coffeeID string) (int64, error)
}

type OrderController struct {
	orders OrderStore
	now    func() time.Time
}

func NewOrderController(orders OrderStore) *OrderController {
	return &OrderController{orders: orders, now: time.Now}
}

// List returns every order in the shop. Admin only.
func (c *OrderController) List(w http.ResponseWriter, r *http.Request) {
	orders, err := c.orders.All(r.Context())
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "could not list orders")
		return
	}
	response.Success(w, orders)
}

// ByEmail lists the caller's own orders.
func (c *OrderController) ByEmail(w http.ResponseWriter, r *http.Request) {
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

	orders, err := c.orders.ByEmail(r.Context(), email)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "could not list orders")
		return
	}
	response.Success(w, orders)
}

type orderRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	CoffeeID string  `json:"coffeeId" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price" validate:"required,gte=0"`
}

// Create places an order for the authenticated customer. Status and payment
// always start out pending.
func (c *OrderController) Create(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.ClaimFromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
		return
	}

	var body orderRequest
	if errs, err := bind.JSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}
	if body.Email != claim {
		response.Forbidden(w)
		return
	}

	id, err := c.orders.Insert(r.Context(), models.Order{
		Email:    claim,
		CoffeeID: body.CoffeeID,
		Name:     body.Name,
		Price:    body.Price,
		Status:   models.StatusPending,
		Payment:  models.StatusPending,
		Placed:   c.now(),
	})
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "could not place order")
		return
	}
	response.Created(w, map[string]string{"insertedId": id})
}

// MarkDone flips an order's fulfilment status to done. Admin only.
func (c *OrderController) MarkDone(w http.ResponseWriter, r *http.Request) {
	modified, err := c.orders.MarkDone(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "could not update order")
		return
	}
	response.Success(w, map[string]int64{"modifiedCount": modified})
}

// Delete removes the caller's orders for one catalog item.
func (c *OrderController) Delete(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.ClaimFromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
		return
	}

	deleted, err := c.orders.DeleteByCoffee(r.Context(), claim, chi.URLParam(r, "coffeeId"))
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "could not remove order")
		return
	}
	response.Success(w, map[string]int64{"deletedCount": deleted})
}
