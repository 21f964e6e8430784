package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is a feed entry authored by a user. Likes and comments live inside
// the post document and are mutated in place by the post endpoints. The
// author's display name and avatar are denormalized at creation time so
// feed reads need no join.
type Post struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user" json:"user_id"`
	Name      string             `bson:"name" json:"name"`
	AvatarURL string             `bson:"avatar_url" json:"avatar_url"`
	Text      string             `bson:"text" json:"text"`
	Likes     []Like             `bson:"likes" json:"likes"`
	Comments  []Comment          `bson:"comments" json:"comments"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// Like records that a user liked a post. A user appears at most once in a
// post's likes array.
type Like struct {
	UserID primitive.ObjectID `bson:"user" json:"user"`
}

// LikedBy reports whether the user already appears in the likes array.
func (p *Post) LikedBy(userID primitive.ObjectID) bool {
	for _, l := range p.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

// Comment returns the embedded comment with the given id, or nil when the
// post has no such comment.
func (p *Post) Comment(id primitive.ObjectID) *Comment {
	for i := range p.Comments {
		if p.Comments[i].ID == id {
			return &p.Comments[i]
		}
	}
	return nil
}
