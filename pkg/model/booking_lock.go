package model

import "time"

// BookingLock is an advisory lock document serializing check-then-insert
// sequences for one room or one user-day. A TTL index on expires_at reclaims
// locks abandoned by crashed or cancelled requests.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
