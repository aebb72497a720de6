// Package repositories implements the persistence layer over MongoDB.
//
// Reads follow the document-store idiom: a missing single document is an
// absent result (nil pointer), not an error. Bulk mutations report how many
// documents they touched so callers can observe idempotent no-ops.
package repositories

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// objectIDs converts hex ids to ObjectIDs, silently skipping malformed
// entries. Bulk cleanup must tolerate ids that no longer resolve.
func objectIDs(hexIDs []string) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(hexIDs))
	for _, h := range hexIDs {
		if id, err := primitive.ObjectIDFromHex(h); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
