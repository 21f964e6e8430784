package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PageView stores aggregated page view counts per day and path. Dates are
// kept as local YYYY-MM-DD strings so the (date, path) unique index never
// suffers timezone drift.
type PageView struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Date      string             `bson:"date" json:"date"`
	Path      string             `bson:"path" json:"path"`
	Count     int64              `bson:"count" json:"count"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
