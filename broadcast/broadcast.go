// Package broadcast fans poll state out to every observer of a poll's
// topic. The registry is the in-process subscriber map; the bus carries
// events between publishers and registries, either over redis pub/sub
// or directly in-process.
package broadcast

import (
	"fmt"
	"sync"

	"github.com/Pushkkaarr/Real-Time-Poll-Rooms/mongo"
	jsoniter "github.com/json-iterator/go"

	log "github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	EventUpdated = "poll-updated"
	EventDeleted = "poll-deleted"
)

// Event is one fan-out message. Voters travels beside the poll because
// the poll type never serializes its records; observers need them to
// filter counts per viewer. Events never reach clients unfiltered.
type Event struct {
	Type   string              `json:"type"`
	PollID string              `json:"poll_id"`
	Poll   *mongo.Poll         `json:"poll,omitempty"`
	Voters []mongo.VoterRecord `json:"voters,omitempty"`
}

func topic(pollID string) string {
	return fmt.Sprintf("events:poll:state:%s", pollID)
}

type Broadcaster struct {
	mtx  sync.Mutex
	subs map[string][]chan Event
	bus  bus
}

// New builds a broadcaster over an in-process bus, for single-process
// deployments and tests.
func New() *Broadcaster {
	b := &Broadcaster{subs: map[string][]chan Event{}}
	b.bus = &localBus{b: b}
	return b
}

// NewRedis builds a broadcaster whose events travel over redis pub/sub,
// so several processes can serve observers of the same poll.
func NewRedis() *Broadcaster {
	b := &Broadcaster{subs: map[string][]chan Event{}}
	b.bus = newRedisBus(b)
	return b
}

// Join adds ch as an observer of the poll's topic. The caller owns ch
// and should buffer it; events are dropped rather than block a slow
// observer.
func (b *Broadcaster) Join(pollID string, ch chan Event) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	t := topic(pollID)
	if v, ok := b.subs[t]; ok {
		b.subs[t] = append(v, ch)
		return nil
	}
	b.subs[t] = []chan Event{ch}
	return b.bus.Subscribe(t)
}

// Leave removes ch from the poll's topic. No further events are
// delivered to it for that poll.
func (b *Broadcaster) Leave(pollID string, ch chan Event) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	t := topic(pollID)
	remaining := filterSlice(b.subs[t], ch)
	if len(remaining) == 0 {
		delete(b.subs, t)
		return b.bus.Unsubscribe(t)
	}
	b.subs[t] = remaining
	return nil
}

// Publish delivers the poll's state to every current member of its
// topic, including whichever observer triggered the mutation.
func (b *Broadcaster) Publish(pollID string, p *mongo.Poll) error {
	return b.publish(Event{
		Type:   EventUpdated,
		PollID: pollID,
		Poll:   p,
		Voters: p.Voters,
	})
}

// PublishDeletion tells all members the poll no longer exists. Members
// treat it as terminal for the topic.
func (b *Broadcaster) PublishDeletion(pollID string) error {
	return b.publish(Event{Type: EventDeleted, PollID: pollID})
}

func (b *Broadcaster) publish(ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.bus.Publish(topic(ev.PollID), payload)
}

// dispatch delivers a decoded event to the topic's local subscribers.
// Sends never block; an observer that cannot keep up misses the event
// and catches up on the next one.
func (b *Broadcaster) dispatch(t string, ev Event) {
	if ev.Poll != nil {
		ev.Poll.Voters = ev.Voters
	}
	b.mtx.Lock()
	defer b.mtx.Unlock()
	for _, ch := range b.subs[t] {
		select {
		case ch <- ev:
		default:
			log.Warnf("broadcast, dropped event topic=%s", t)
		}
	}
}

func filterSlice(s []chan Event, r chan Event) []chan Event {
	for i, v := range s {
		if v == r {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
