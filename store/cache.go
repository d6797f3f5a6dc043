package store

import (
	"fmt"
	"time"

	"github.com/Pushkkaarr/Real-Time-Poll-Rooms/mongo"
	"github.com/Pushkkaarr/Real-Time-Poll-Rooms/redis"
	jsoniter "github.com/json-iterator/go"

	log "github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	cacheTTL = time.Hour * 6

	// deadValue marks ids known to have no poll, so repeated lookups
	// of deleted or bogus ids skip the backend.
	deadValue = "dead"
)

// pollCache fronts the backend with the shared redis cache. With no
// redis client configured every lookup is a miss.
type pollCache struct{}

func newPollCache() *pollCache {
	return &pollCache{}
}

func cacheKey(pollID string) string {
	return fmt.Sprintf("cached:polls:%s", pollID)
}

// get returns (nil, true) for ids cached as dead, (poll, true) on a
// hit and (nil, false) on a miss. Voter records round-trip through the
// cache so vote decisions can run off cached documents.
func (c *pollCache) get(pollID string) (*mongo.Poll, bool) {
	if redis.Client == nil {
		return nil, false
	}

	val, err := redis.Client.Get(redis.Ctx, cacheKey(pollID)).Result()
	if err != nil {
		if err != redis.ErrNil {
			log.Errorf("redis, err=%v", err)
		}
		return nil, false
	}
	if val == deadValue {
		return nil, true
	}

	entry := cacheEntry{}
	if err = json.UnmarshalFromString(val, &entry); err != nil {
		log.Errorf("json, err=%v", err)
		return nil, false
	}
	p := entry.Poll
	p.Voters = entry.Voters
	return p, true
}

func (c *pollCache) set(p *mongo.Poll) {
	if redis.Client == nil {
		return
	}
	val, err := json.MarshalToString(cacheEntry{Poll: p, Voters: p.Voters})
	if err != nil {
		log.Errorf("json, err=%v", err)
		return
	}
	if err = redis.Client.Set(redis.Ctx, cacheKey(p.ID), val, cacheTTL).Err(); err != nil {
		log.Errorf("redis, err=%v", err)
	}
}

func (c *pollCache) setDead(pollID string) {
	if redis.Client == nil {
		return
	}
	if err := redis.Client.Set(redis.Ctx, cacheKey(pollID), deadValue, cacheTTL).Err(); err != nil {
		log.Errorf("redis, err=%v", err)
	}
}

// cacheEntry carries voter records beside the poll, which never
// serializes them itself.
type cacheEntry struct {
	Poll   *mongo.Poll         `json:"poll"`
	Voters []mongo.VoterRecord `json:"voters"`
}
