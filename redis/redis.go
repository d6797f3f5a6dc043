package redis

import (
	"context"

	"github.com/go-redis/redis/v8"

	log "github.com/sirupsen/logrus"
)

var Ctx = context.Background()

var Client *redis.Client

// Connect dials redis. It is a no-op when no uri is configured; the
// broadcaster and the store's cache then run in-process only.
func Connect(uri string) {
	if uri == "" {
		log.Warning("no redis_uri configured, running with in-process fan-out")
		return
	}

	options, err := redis.ParseURL(uri)
	if err != nil {
		panic(err)
	}

	Client = redis.NewClient(options)
}

type Message = redis.Message

const ErrNil = redis.Nil

type StringCmd = redis.StringCmd

type Pipeliner = redis.Pipeliner

type PubSub = redis.PubSub
