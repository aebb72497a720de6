package seeders

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/brewhaus/app/models"
	"github.com/shashiranjanraj/brewhaus/pkg/database"
)

func init() {
	Register("users", SeedUsers)
	Register("catalog", SeedCatalog)
}

// SeedUsers upserts the shop admin so a fresh database is manageable.
func SeedUsers(ctx context.Context, db *mongo.Database) error {
	col := db.Collection(database.ColUsers)
	_, err := col.UpdateOne(ctx,
		bson.M{"email": "admin@brewhaus.dev"},
		bson.M{"$set": bson.M{
			"name": "Shop Admin",
			"role": models.RoleAdmin,
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

// SeedCatalog inserts a small starter catalog when the collection is empty.
func SeedCatalog(ctx context.Context, db *mongo.Database) error {
	col := db.Collection(database.ColCoffee)
	count, err := col.CountDocuments(ctx, bson.M{})
	if err != nil || count > 0 {
		return err
	}

	items := []interface{}{
		models.Coffee{Name: "Americano", Chef: "Dipa Roy", Supplier: "Bengal Beans", Taste: "Bitter", Category: "Espresso", Price: 3.50},
		models.Coffee{Name: "Cappuccino", Chef: "Arjun Das", Supplier: "Hill Tract Estates", Taste: "Creamy", Category: "Milk", Price: 4.25},
		models.Coffee{Name: "Cold Brew", Chef: "Mina Akter", Supplier: "Sylhet Roasters", Taste: "Smooth", Category: "Cold", Price: 4.75},
	}
	_, err = col.InsertMany(ctx, items)
	return err
}
