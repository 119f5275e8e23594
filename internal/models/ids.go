package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// NewID returns a fresh document identifier.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID reports whether id has the shape of an identifier issued by NewID.
func ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}
