// Package routes maps the HTTP surface onto controllers and guards.
package routes

import (
	"github.com/shashiranjanraj/brewhaus/app/controllers"
	"github.com/shashiranjanraj/brewhaus/pkg/middleware"
	"github.com/shashiranjanraj/brewhaus/pkg/router"
)

// Controllers bundles every handler set the API mounts.
type Controllers struct {
	Auth    *controllers.AuthController
	Users   *controllers.UserController
	Coffee  *controllers.CoffeeController
	Carts   *controllers.CartController
	Orders  *controllers.OrderController
	Payment *controllers.PaymentController
	Health  *controllers.HealthController
}

// Guards holds the two authorization stages routes compose.
type Guards struct {
	Authenticate router.Middleware
	RequireAdmin router.Middleware
}

// NewGuards builds the bearer-auth and admin-role middleware from their
// lookups.
func NewGuards(verifier middleware.TokenVerifier, roles middleware.RoleLookup) Guards {
	return Guards{
		Authenticate: middleware.Authenticate(verifier),
		RequireAdmin: middleware.RequireAdmin(roles),
	}
}

// Register mounts the whole API surface on r.
func Register(r *router.Router, c Controllers, g Guards) {
	r.Post("/jwt", "jwt.issue", c.Auth.IssueToken)

	users := r.Group("/allUsers")
	users.Get("/", "users.index", c.Users.List, g.Authenticate, g.RequireAdmin)
	users.Get("/admin/{email}", "users.admin", c.Users.IsAdmin)
	users.Get("/{email}", "users.show", c.Users.Show)
	users.Post("/", "users.store", c.Users.Create)
	users.Patch("/{id}", "users.update", c.Users.Update, g.Authenticate, g.RequireAdmin)
	users.Delete("/{id}", "users.destroy", c.Users.Delete, g.Authenticate, g.RequireAdmin)

	coffee := r.Group("/coffee")
	coffee.Get("/", "coffee.index", c.Coffee.List)
	coffee.Get("/{id}", "coffee.show", c.Coffee.Show)
	coffee.Post("/", "coffee.store", c.Coffee.Create, g.Authenticate, g.RequireAdmin)
	coffee.Patch("/{id}", "coffee.update", c.Coffee.Update, g.Authenticate, g.RequireAdmin)
	coffee.Delete("/{id}", "coffee.destroy", c.Coffee.Delete, g.Authenticate, g.RequireAdmin)
	coffee.Post("/{id}/image", "coffee.image", c.Coffee.UploadImage, g.Authenticate, g.RequireAdmin)

	cart := r.Group("/cart", g.Authenticate)
	cart.Get("/{email}", "cart.index", c.Carts.ByEmail)
	cart.Post("/", "cart.store", c.Carts.Create)
	cart.Delete("/{id}", "cart.destroy", c.Carts.Delete)

	orders := r.Group("/orders", g.Authenticate)
	orders.Get("/", "orders.index", c.Orders.List, g.RequireAdmin)
	orders.Get("/{email}", "orders.byEmail", c.Orders.ByEmail)
	orders.Post("/", "orders.store", c.Orders.Create)
	orders.Patch("/{id}", "orders.done", c.Orders.MarkDone, g.RequireAdmin)
	orders.Delete("/{coffeeId}", "orders.destroy", c.Orders.Delete)

	r.Post("/create-payment-intent", "payments.intent", c.Payment.CreateIntent, g.Authenticate)
	payments := r.Group("/payments", g.Authenticate)
	payments.Get("/{email}", "payments.history", c.Payment.History)
	payments.Post("/", "payments.store", c.Payment.Submit)

	r.Get("/healthz", "health", c.Health.Check)
}
