package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	log "github.com/sirupsen/logrus"
)

var Database *mongo.Database
var Ctx = context.TODO()

var ErrNoDocuments = mongo.ErrNoDocuments

// Connect dials mongodb and prepares the polls collection. It is a no-op
// when no uri is configured; the store falls back to in-memory storage
// in that case.
func Connect(uri, db string) {
	if uri == "" {
		log.Warning("no mongo_uri configured, polls will not be persisted")
		return
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(Ctx, clientOptions)
	if err != nil {
		panic(err)
	}

	err = client.Ping(Ctx, nil)
	if err != nil {
		panic(err)
	}

	Database = client.Database(db)

	expireAfter := int32(0)
	_, err = Database.Collection("polls").Indexes().CreateMany(Ctx, []mongo.IndexModel{
		{Keys: bson.M{"created_at": 1}},
		{Keys: bson.M{"expires_at": 1}, Options: &options.IndexOptions{ExpireAfterSeconds: &expireAfter}},
	})
	if err != nil {
		log.Errorf("mongodb, err=%v", err)
	}
}
