package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Coffee is a catalog item. Only admins create, update, or delete these.
type Coffee struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name     string             `bson:"name" json:"name"`
	Chef     string             `bson:"chef" json:"chef"`
	Supplier string             `bson:"supplier" json:"supplier"`
	Taste    string             `bson:"taste" json:"taste"`
	Category string             `bson:"category" json:"category"`
	Price    float64            `bson:"price" json:"price"`
	Image    string             `bson:"image" json:"image"`
}
