package domain

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a registered chat participant.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"` // Unique
	PasswordHash string             `bson:"passwordHash" json:"-"`    // Never expose this via JSON
}

// UserPresence is the shape broadcast in the "users" event: one entry
// per registered user, flagged with whether any live session exists.
type UserPresence struct {
	ID        primitive.ObjectID `json:"id"`
	Username  string             `json:"username"`
	Connected bool               `json:"connected"`
}
