package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Role is the enumerated access level stored on a user record.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// CanManageStore reports whether the role may mutate catalog, users, and
// order fulfilment. New roles extend here rather than at every call site.
func (r Role) CanManageStore() bool {
	return r == RoleAdmin
}

// User is keyed by email; role absence implies a regular customer.
type User struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"`
	Role  Role               `bson:"role,omitempty" json:"role,omitempty"`
}
