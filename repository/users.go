package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ripplefeed/ripple/models"
)

// Users provides access to the users collection. A unique index on
// username makes duplicate registration a first-class storage error.
type Users struct {
	col *mongo.Collection
}

func NewUsers(db *mongo.Database) *Users {
	return &Users{col: db.Collection("users")}
}

// Create inserts a new user. Returns ErrUsernameTaken when the unique
// username index rejects the document.
func (r *Users) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	_, err := r.col.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrUsernameTaken
	}
	return err
}

// FindByID loads a user without the password hash.
func (r *Users) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	opts := options.FindOne().SetProjection(bson.M{"password": 0})
	var user models.User
	err := r.col.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername loads the full user document, hash included. Only the
// login path should call this.
func (r *Users) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.col.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByProvider looks a user up by OAuth provider identity.
func (r *Users) FindByProvider(ctx context.Context, provider, providerID string) (*models.User, error) {
	var user models.User
	err := r.col.FindOne(ctx, bson.M{"provider": provider, "provider_id": providerID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ProfileUpdate carries the optional profile fields a user may change.
// Nil pointers leave the stored value untouched.
type ProfileUpdate struct {
	Email     *string
	AvatarURL *string
	Signature *string
}

// UpdateProfile sets the provided profile fields and returns the updated
// user without the password hash.
func (r *Users) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"password": 0})
	var user models.User
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": profileUpdateFields(upd)}, opts).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func profileUpdateFields(upd ProfileUpdate) bson.M {
	fields := bson.M{"updated_at": time.Now()}
	if upd.Email != nil {
		fields["email"] = *upd.Email
	}
	if upd.AvatarURL != nil {
		fields["avatar_url"] = *upd.AvatarURL
	}
	if upd.Signature != nil {
		fields["signature"] = *upd.Signature
	}
	return fields
}

// IsUsernameTaken reports whether any user already holds the username.
func (r *Users) IsUsernameTaken(ctx context.Context, username string) (bool, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"username": username}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Count returns the total number of registered users.
func (r *Users) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}
