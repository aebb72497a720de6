package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/brewhaus/app/models"
	"github.com/shashiranjanraj/brewhaus/pkg/bind"
	"github.com/shashiranjanraj/brewhaus/pkg/middleware"
	"github.com/shashiranjanraj/brewhaus/pkg/response"
	"github.com/shashiranjanraj/brewhaus/pkg/validate"
)

// CartStore is the cart persistence surface the controller needs.
type CartStore interface {
	ByEmail(ctx context.Context, email string) ([]models.CartEntry, error)
	Insert(ctx context.Context, entry models.CartEntry) (string, error)
	Delete(ctx context.Context, id string) (int64, error)
}

type CartController struct {
	carts CartStore
}

func NewCartController(carts CartStore) *CartController {
	return &CartController{carts: carts}
}

// ByEmail lists the cart for the address in the path. The caller may only
// read their own cart.
func (c *CartController) ByEmail(w http.ResponseWriter, r *http.Request) {
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

	entries, err := c.carts.ByEmail(r.Context(), email)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "could not list cart")
		return
	}
	response.Success(w, entries)
}

type cartRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	CoffeeID string  `json:"coffeeId" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price" validate:"required,gte=0"`
	Image    string  `json:"image"`
}

// Create adds a catalog item to the caller's cart. The entry is always
// stored under the authenticated address, whatever the body says.
func (c *CartController) Create(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.ClaimFromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
		return
	}

	var body cartRequest
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

	id, err := c.carts.Insert(r.Context(), models.CartEntry{
		Email:    claim,
		CoffeeID: body.CoffeeID,
		Name:     body.Name,
		Price:    body.Price,
		Image:    body.Image,
	})
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "could not add to cart")
		return
	}
	response.Created(w, map[string]string{"insertedId": id})
}

func (c *CartController) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := c.carts.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "could not remove cart entry")
		return
	}
	response.Success(w, map[string]int64{"deletedCount": deleted})
}
