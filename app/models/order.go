package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order status values. Fulfilment (Status) and payment are independent axes:
// an order can be fulfilled before it is paid and vice versa.
const (
	StatusPending = "pending"
	StatusDone    = "done"
)

// CartEntry holds one pending line item between add-to-cart and checkout.
// The price is snapshotted at add time so later catalog edits do not change
// what the customer is charged.
type CartEntry struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Email    string             `bson:"email" json:"email"`
	CoffeeID string             `bson:"coffeeId" json:"coffeeId"`
	Name     string             `bson:"name" json:"name"`
	Price    float64            `bson:"price" json:"price"`
	Image    string             `bson:"image,omitempty" json:"image,omitempty"`
}

// Order is a placed order. Payment flips to done only through the checkout
// reconciler; Status is flipped by an admin during fulfilment.
type Order struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Email    string             `bson:"email" json:"email"`
	CoffeeID string             `bson:"coffeeId" json:"coffeeId"`
	Name     string             `bson:"name" json:"name"`
	Price    float64            `bson:"price" json:"price"`
	Status   string             `bson:"status" json:"status"`
	Payment  string             `bson:"payment" json:"payment"`
	Placed   time.Time          `bson:"placedAt" json:"placedAt"`
}

// Payment is the durable, append-only proof that money was charged. Cart
// deletion and order settlement are derived effects of this record, never
// independent truths. Settled flips to true once both derived effects have
// completed; the sweeper retries records where it is still false.
type Payment struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Email          string             `bson:"email" json:"email"`
	Amount         float64            `bson:"amount" json:"amount"`
	IdempotencyKey string             `bson:"idempotencyKey" json:"idempotencyKey"`
	CartIDs        []string           `bson:"cartIds" json:"cartIds"`
	OrderIDs       []string           `bson:"orderIds" json:"orderIds"`
	Settled        bool               `bson:"settled" json:"settled"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}
