package controllers

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ripplefeed/ripple/models"
	"github.com/ripplefeed/ripple/repository"
)

// PostStore is the persistence surface the post and comment handlers use.
// *repository.Posts implements it; tests substitute an in-memory fake.
type PostStore interface {
	Create(ctx context.Context, post *models.Post) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	List(ctx context.Context, page, pageSize int) ([]models.Post, int64, error)
	ListByAuthor(ctx context.Context, author primitive.ObjectID, page, pageSize int) ([]models.Post, int64, error)
	UpdateText(ctx context.Context, id primitive.ObjectID, text string) (*models.Post, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Like(ctx context.Context, postID, userID primitive.ObjectID) (*models.Post, error)
	Unlike(ctx context.Context, postID, userID primitive.ObjectID) (*models.Post, error)
	AddComment(ctx context.Context, postID primitive.ObjectID, comment models.Comment) (*models.Post, error)
	UpdateComment(ctx context.Context, postID, commentID primitive.ObjectID, text string) (*models.Post, error)
	RemoveComment(ctx context.Context, postID, commentID primitive.ObjectID) (*models.Post, error)
	Count(ctx context.Context) (int64, error)
	CommentCount(ctx context.Context) (int64, error)
}

// UserStore is the persistence surface the auth handlers use.
// *repository.Users implements it.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByProvider(ctx context.Context, provider, providerID string) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, upd repository.ProfileUpdate) (*models.User, error)
	IsUsernameTaken(ctx context.Context, username string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// PageViewStore supplies the aggregate view counters used by the stats
// handlers. *repository.PageViews implements it.
type PageViewStore interface {
	TodayTotal(ctx context.Context) (int64, error)
	PathTotal(ctx context.Context, paths ...string) (int64, error)
}
