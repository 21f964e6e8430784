package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is a reply embedded in a post document. Each comment carries its
// own id so it can be edited or removed individually, plus the author's
// denormalized display name and avatar.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	UserID    primitive.ObjectID `bson:"user" json:"user_id"`
	Text      string             `bson:"text" json:"text"`
	Name      string             `bson:"name" json:"name"`
	AvatarURL string             `bson:"avatar_url" json:"avatar_url"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
