package analytics

import (
	"context"
	"fmt"
	"time"

	"inkraft/internal/models"
	"inkraft/internal/observability"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const viewCollection = "view_events"

// viewDocument is the stored shape of a view event.
type viewDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	PostID      uint               `bson:"post_id"`
	AuthorID    uint               `bson:"author_id"`
	ViewerID    *uint              `bson:"viewer_id,omitempty"`
	VisitorHash string             `bson:"visitor_hash"`
	Referrer    string             `bson:"referrer,omitempty"`
	OccurredAt  primitive.DateTime `bson:"occurred_at"`
	Day         string             `bson:"day"`
}

// MongoStore keeps view events in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to uri, checks the server answers and ensures the
// collection indexes.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	s := NewMongoStoreWithCollection(client, client.Database(database).Collection(viewCollection))
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// NewMongoStoreWithCollection wraps an existing collection. client may be nil
// when the caller owns the connection.
func NewMongoStoreWithCollection(client *mongo.Client, coll *mongo.Collection) *MongoStore {
	return &MongoStore{client: client, coll: coll}
}

// EnsureIndexes creates the day and author/day indexes the dashboards scan.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "day", Value: 1}}},
		{Keys: bson.D{{Key: "author_id", Value: 1}, {Key: "day", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create view indexes: %w", err)
	}
	return nil
}

// Close disconnects the client, if this store owns one.
func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Name() string { return StoreMongo }

func (s *MongoStore) RecordView(ctx context.Context, ev models.ViewEvent) error {
	doc := viewDocument{
		PostID:      ev.PostID,
		AuthorID:    ev.AuthorID,
		ViewerID:    ev.ViewerID,
		VisitorHash: ev.VisitorHash,
		Referrer:    ev.Referrer,
		OccurredAt:  primitive.NewDateTimeFromTime(ev.OccurredAt),
		Day:         ev.Day,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("record view: %w", err)
	}
	observability.ViewsRecorded.WithLabelValues(StoreMongo).Inc()
	return nil
}

func matchRange(r Range) bson.M {
	m := bson.M{"day": bson.M{"$gte": r.From, "$lte": r.To}}
	if r.AuthorID != 0 {
		m["author_id"] = r.AuthorID
	}
	return m
}

func (s *MongoStore) ViewsByDay(ctx context.Context, r Range) ([]models.DayCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: matchRange(r)}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$day"}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("views by day: %w", err)
	}
	var out []models.DayCount
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode views by day: %w", err)
	}
	return out, nil
}

func (s *MongoStore) TopPosts(ctx context.Context, r Range, limit int) ([]models.PostViews, error) {
	if limit <= 0 {
		limit = 10
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: matchRange(r)}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$post_id"}, {Key: "views", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "views", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("top posts: %w", err)
	}
	var out []models.PostViews
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode top posts: %w", err)
	}
	return out, nil
}

func (s *MongoStore) TotalViews(ctx context.Context, r Range) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, matchRange(r))
	if err != nil {
		return 0, fmt.Errorf("total views: %w", err)
	}
	return n, nil
}
