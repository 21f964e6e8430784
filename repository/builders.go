package repository

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ripplefeed/ripple/models"
)

// Filter and update builders for the conditional array mutations on posts.
// Kept as pure functions so the shapes can be unit tested directly.

// likeFilter matches the post only while the user has not liked it yet.
func likeFilter(postID, userID primitive.ObjectID) bson.M {
	return bson.M{
		"_id":        postID,
		"likes.user": bson.M{"$ne": userID},
	}
}

func likeUpdate(userID primitive.ObjectID) bson.M {
	return bson.M{
		"$push": bson.M{"likes": models.Like{UserID: userID}},
	}
}

// unlikeFilter matches the post only while the user's like is present.
func unlikeFilter(postID, userID primitive.ObjectID) bson.M {
	return bson.M{
		"_id":        postID,
		"likes.user": userID,
	}
}

func unlikeUpdate(userID primitive.ObjectID) bson.M {
	return bson.M{
		"$pull": bson.M{"likes": bson.M{"user": userID}},
	}
}

// addCommentUpdate prepends the comment so the array stays newest first.
func addCommentUpdate(comment models.Comment) bson.M {
	return bson.M{
		"$push": bson.M{
			"comments": bson.M{
				"$each":     []models.Comment{comment},
				"$position": 0,
			},
		},
		"$set": bson.M{"updated_at": time.Now()},
	}
}

// commentFilter matches a post carrying the given embedded comment.
func commentFilter(postID, commentID primitive.ObjectID) bson.M {
	return bson.M{
		"_id":          postID,
		"comments._id": commentID,
	}
}

func updateCommentUpdate(text string) bson.M {
	now := time.Now()
	return bson.M{
		"$set": bson.M{
			"comments.$.text":       text,
			"comments.$.updated_at": now,
			"updated_at":            now,
		},
	}
}

func removeCommentUpdate(commentID primitive.ObjectID) bson.M {
	return bson.M{
		"$pull": bson.M{"comments": bson.M{"_id": commentID}},
		"$set":  bson.M{"updated_at": time.Now()},
	}
}
