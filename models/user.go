package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an account. Passwords are stored as bcrypt hashes only;
// the hash is excluded from API responses and projected out of public
// reads at the repository level.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email,omitempty" json:"email"`
	PasswordHash string             `bson:"password,omitempty" json:"-"`
	Provider     string             `bson:"provider,omitempty" json:"provider"`
	ProviderID   string             `bson:"provider_id,omitempty" json:"provider_id"`
	RegisterIP   string             `bson:"register_ip,omitempty" json:"register_ip"`
	AvatarURL    string             `bson:"avatar_url,omitempty" json:"avatar_url"`
	Signature    string             `bson:"signature,omitempty" json:"signature"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}
