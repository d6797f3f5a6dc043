package store

import (
	"context"

	"github.com/Pushkkaarr/Real-Time-Poll-Rooms/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBackend stores each poll as one document in the polls
// collection, voter records included.
type MongoBackend struct{}

func NewMongoBackend() *MongoBackend {
	return &MongoBackend{}
}

func (*MongoBackend) Get(ctx context.Context, id string) (*mongo.Poll, error) {
	result := mongo.Database.Collection("polls").FindOne(ctx, bson.M{"_id": id})
	if err := result.Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p := &mongo.Poll{}
	if err := result.Decode(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (*MongoBackend) Put(ctx context.Context, p *mongo.Poll) error {
	upsert := true
	_, err := mongo.Database.Collection("polls").ReplaceOne(ctx,
		bson.M{"_id": p.ID}, p, &options.ReplaceOptions{Upsert: &upsert})
	return err
}

func (*MongoBackend) Delete(ctx context.Context, id string) error {
	res, err := mongo.Database.Collection("polls").DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (*MongoBackend) List(ctx context.Context, limit int64) ([]mongo.Poll, error) {
	cursor, err := mongo.Database.Collection("polls").Find(ctx, bson.M{}, options.Find().
		SetLimit(limit).
		SetSort(bson.M{"created_at": -1}).
		SetProjection(bson.M{"voters": 0}))
	if err != nil {
		return nil, err
	}
	polls := []mongo.Poll{}
	if err := cursor.All(ctx, &polls); err != nil {
		return nil, err
	}
	return polls, nil
}
