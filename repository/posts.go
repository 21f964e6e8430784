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

// Posts provides access to the posts collection. Array mutations (likes,
// comments) are expressed as single conditional updates so the "at most
// one like per user" invariant holds without a read-modify-write cycle.
type Posts struct {
	col *mongo.Collection
}

// NewPosts creates a Posts store over the given database.
func NewPosts(db *mongo.Database) *Posts {
	return &Posts{col: db.Collection("posts")}
}

// Create inserts a new post, assigning id and timestamps when unset.
func (r *Posts) Create(ctx context.Context, post *models.Post) error {
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	now := time.Now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now
	// Empty arrays, not nulls, so clients always receive [].
	if post.Likes == nil {
		post.Likes = []models.Like{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	_, err := r.col.InsertOne(ctx, post)
	return err
}

// Get returns a single post by id.
func (r *Posts) Get(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns one page of posts ordered by descending creation time,
// along with the total number of posts matching the filter.
func (r *Posts) List(ctx context.Context, page, pageSize int) ([]models.Post, int64, error) {
	return r.list(ctx, bson.M{}, page, pageSize)
}

// ListByAuthor returns one page of a single author's posts, newest first.
func (r *Posts) ListByAuthor(ctx context.Context, author primitive.ObjectID, page, pageSize int) ([]models.Post, int64, error) {
	return r.list(ctx, bson.M{"user": author}, page, pageSize)
}

func (r *Posts) list(ctx context.Context, filter bson.M, page, pageSize int) ([]models.Post, int64, error) {
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(page-1) * int64(pageSize)).
		SetLimit(int64(pageSize))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	posts := []models.Post{}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// UpdateText replaces the post body and returns the updated document.
func (r *Posts) UpdateText(ctx context.Context, id primitive.ObjectID, text string) (*models.Post, error) {
	update := bson.M{"$set": bson.M{"text": text, "updated_at": time.Now()}}
	return r.findOneAndUpdate(ctx, bson.M{"_id": id}, update, ErrNotFound)
}

// Delete removes a post document entirely.
func (r *Posts) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Like appends a like record for the user unless one is already present.
// Returns ErrAlreadyLiked when the user has liked the post before and
// ErrNotFound when the post does not exist.
func (r *Posts) Like(ctx context.Context, postID, userID primitive.ObjectID) (*models.Post, error) {
	post, err := r.findOneAndUpdate(ctx, likeFilter(postID, userID), likeUpdate(userID), nil)
	if err == nil {
		return post, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	// The guarded update matched nothing: the post is missing or the like
	// already exists. One existence probe tells the two apart.
	exists, err := r.exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrAlreadyLiked
}

// Unlike removes the user's like record. Returns ErrNotLiked when no like
// by this user is present and ErrNotFound when the post does not exist.
func (r *Posts) Unlike(ctx context.Context, postID, userID primitive.ObjectID) (*models.Post, error) {
	post, err := r.findOneAndUpdate(ctx, unlikeFilter(postID, userID), unlikeUpdate(userID), nil)
	if err == nil {
		return post, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	exists, err := r.exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrNotLiked
}

// AddComment prepends a comment to the post's comment array so the newest
// comment is always first, and returns the updated post.
func (r *Posts) AddComment(ctx context.Context, postID primitive.ObjectID, comment models.Comment) (*models.Post, error) {
	return r.findOneAndUpdate(ctx, bson.M{"_id": postID}, addCommentUpdate(comment), ErrNotFound)
}

// UpdateComment replaces the text of a single embedded comment using the
// positional operator. Returns ErrCommentNotFound when the post exists but
// carries no such comment.
func (r *Posts) UpdateComment(ctx context.Context, postID, commentID primitive.ObjectID, text string) (*models.Post, error) {
	post, err := r.findOneAndUpdate(ctx, commentFilter(postID, commentID), updateCommentUpdate(text), nil)
	if err == nil {
		return post, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	return nil, r.missingCommentReason(ctx, postID)
}

// RemoveComment pulls a single embedded comment out of the post.
func (r *Posts) RemoveComment(ctx context.Context, postID, commentID primitive.ObjectID) (*models.Post, error) {
	post, err := r.findOneAndUpdate(ctx, commentFilter(postID, commentID), removeCommentUpdate(commentID), nil)
	if err == nil {
		return post, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	return nil, r.missingCommentReason(ctx, postID)
}

// Count returns the total number of posts.
func (r *Posts) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}

// CommentCount sums the sizes of every post's comment array.
func (r *Posts) CommentCount(ctx context.Context) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": bson.M{"$size": "$comments"}},
		}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func (r *Posts) findOneAndUpdate(ctx context.Context, filter, update bson.M, notFound error) (*models.Post, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var post models.Post
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&post)
	if err != nil {
		if notFound != nil && errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *Posts) exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// missingCommentReason resolves which half of a comment filter failed to
// match: a vanished post yields ErrNotFound, otherwise ErrCommentNotFound.
func (r *Posts) missingCommentReason(ctx context.Context, postID primitive.ObjectID) error {
	exists, err := r.exists(ctx, postID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrCommentNotFound
}
