// Package database owns the MongoDB connection.
package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names, matching the collections the storefront has always used.
const (
	ColUsers    = "allUsers"
	ColCoffee   = "coffee"
	ColCart     = "cart"
	ColOrders   = "orders"
	ColPayments = "payments"
)

// Mongo wraps the client and the application database handle. It is built
// once at startup and passed to the repositories; read-only afterwards.
type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// Connect opens the client, verifies the connection with a ping, and
// returns the handle. The caller owns Close.
func Connect(ctx context.Context, uri, db string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOpts := options.Client().ApplyURI(uri).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(25)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("database: connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("database: ping: %w", err)
	}

	return &Mongo{Client: client, DB: client.Database(db)}, nil
}

// Ping verifies the connection is still live; used by the health endpoint.
func (m *Mongo) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return m.Client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return m.Client.Disconnect(ctx)
}
