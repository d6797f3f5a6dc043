package broadcast

import (
	"github.com/Pushkkaarr/Real-Time-Poll-Rooms/redis"

	log "github.com/sirupsen/logrus"
)

// bus carries serialized events between publishers and registries.
type bus interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string) error
	Unsubscribe(topic string) error
}

// localBus loops events straight back into the owning registry. Used
// when no redis is configured; fan-out then stays within the process.
type localBus struct {
	b *Broadcaster
}

func (l *localBus) Publish(topic string, payload []byte) error {
	ev := Event{}
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	l.b.dispatch(topic, ev)
	return nil
}

func (l *localBus) Subscribe(topic string) error { return nil }

func (l *localBus) Unsubscribe(topic string) error { return nil }

// redisBus publishes through redis and feeds received messages back
// into the registry from a single reader goroutine, so per-topic order
// follows redis channel order.
type redisBus struct {
	b      *Broadcaster
	pubsub *redis.PubSub
}

func newRedisBus(b *Broadcaster) *redisBus {
	r := &redisBus{
		b:      b,
		pubsub: redis.Client.Subscribe(redis.Ctx),
	}

	go func() {
		ch := r.pubsub.Channel()
		for msg := range ch {
			ev := Event{}
			if err := json.UnmarshalFromString(msg.Payload, &ev); err != nil {
				log.Errorf("redis, err=%v", err)
				continue
			}
			b.dispatch(msg.Channel, ev)
		}
	}()

	return r
}

func (r *redisBus) Publish(topic string, payload []byte) error {
	return redis.Client.Publish(redis.Ctx, topic, payload).Err()
}

func (r *redisBus) Subscribe(topic string) error {
	return r.pubsub.Subscribe(redis.Ctx, topic)
}

func (r *redisBus) Unsubscribe(topic string) error {
	return r.pubsub.Unsubscribe(redis.Ctx, topic)
}
