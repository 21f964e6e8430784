package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageViews aggregates daily request counters per path. One document per
// (date, path) pair, bumped with an upserted $inc.
type PageViews struct {
	col *mongo.Collection
}

func NewPageViews(db *mongo.Database) *PageViews {
	return &PageViews{col: db.Collection("page_views")}
}

// dateKey renders the local calendar date used as the counter bucket.
func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Record bumps today's counter for the path, creating the document on
// first sight.
func (r *PageViews) Record(ctx context.Context, path string) error {
	filter := bson.M{"date": dateKey(time.Now()), "path": path}
	update := bson.M{
		"$inc": bson.M{"count": 1},
		"$set": bson.M{"updated_at": time.Now()},
	}
	_, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// TodayTotal sums every path's counter for the current date.
func (r *PageViews) TodayTotal(ctx context.Context) (int64, error) {
	return r.sum(ctx, bson.M{"date": dateKey(time.Now())})
}

// PathTotal sums all-time counters across the given paths.
func (r *PageViews) PathTotal(ctx context.Context, paths ...string) (int64, error) {
	return r.sum(ctx, bson.M{"path": bson.M{"$in": paths}})
}

func (r *PageViews) sum(ctx context.Context, filter bson.M) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$count"},
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
