// Package ws is the realtime channel: observers join a poll's topic over
// a websocket and receive every state change until they leave or
// disconnect. Each outbound state is filtered per the connection's own
// voter identity before it is written.
package ws

import (
	"context"
	"sync"
	"time"

	"github.com/Pushkkaarr/Real-Time-Poll-Rooms/broadcast"
	"github.com/Pushkkaarr/Real-Time-Poll-Rooms/identity"
	"github.com/Pushkkaarr/Real-Time-Poll-Rooms/store"
	"github.com/Pushkkaarr/Real-Time-Poll-Rooms/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"

	log "github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// inbound events
	EventJoinPoll  = "join-poll"
	EventLeavePoll = "leave-poll"
	EventVoteCast  = "vote-cast"

	// outbound events
	EventPollState   = "poll-state"
	EventPollUpdated = "poll-updated"
	EventPollDeleted = "poll-deleted"
	EventError       = "error"
)

type clientFrame struct {
	Event  string `json:"event"`
	PollID string `json:"poll_id"`
}

type serverFrame struct {
	Event   string      `json:"event"`
	PollID  string      `json:"poll_id,omitempty"`
	Poll    interface{} `json:"poll,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Register mounts the websocket endpoint on the given router.
func Register(app fiber.Router, s *store.Store, bc *broadcast.Broadcaster) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("voter_tag", identity.VoterTag(c.Get(fiber.HeaderUserAgent), c.Get(fiber.HeaderAcceptLanguage)))
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})

	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		handle(c, s, bc)
	}))
}

func handle(c *websocket.Conn, s *store.Store, bc *broadcast.Broadcaster) {
	voterTag, _ := c.Locals("voter_tag").(string)

	closeChan := make(chan struct{})
	mtx := &sync.Mutex{}
	events := make(chan broadcast.Event, 64)
	joined := map[string]bool{}

	write := func(frame serverFrame) bool {
		data, err := json.Marshal(frame)
		if err != nil {
			log.Errorf("json, err=%v", err)
			return true
		}
		mtx.Lock()
		defer mtx.Unlock()
		return c.WriteMessage(websocket.TextMessage, data) == nil
	}

	// heartbeat keeps intermediaries from reaping idle connections
	go func() {
		for {
			select {
			case <-time.After(60 * time.Second):
				mtx.Lock()
				if err := c.WriteMessage(websocket.TextMessage, utils.S2B("HEARTBEAT")); err != nil {
					mtx.Unlock()
					return
				}
				mtx.Unlock()
			case <-closeChan:
				return
			}
		}
	}()

	// fan-in from the broadcaster to this connection
	go func() {
		for {
			select {
			case <-closeChan:
				return
			case ev := <-events:
				switch ev.Type {
				case broadcast.EventDeleted:
					write(serverFrame{Event: EventPollDeleted, PollID: ev.PollID})
					if err := bc.Leave(ev.PollID, events); err != nil {
						log.Errorf("broadcast, err=%v", err)
					}
					mtx.Lock()
					delete(joined, ev.PollID)
					mtx.Unlock()
				case broadcast.EventUpdated:
					if ev.Poll == nil {
						continue
					}
					write(serverFrame{
						Event:  EventPollUpdated,
						PollID: ev.PollID,
						Poll:   s.Ledger().View(ev.Poll, voterTag),
					})
				}
			}
		}
	}()

	defer func() {
		close(closeChan)
		mtx.Lock()
		topics := make([]string, 0, len(joined))
		for id := range joined {
			topics = append(topics, id)
		}
		mtx.Unlock()
		for _, id := range topics {
			if err := bc.Leave(id, events); err != nil {
				log.Errorf("broadcast, err=%v", err)
			}
		}
	}()

	for {
		mt, msg, err := c.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		frame := &clientFrame{}
		if err = json.Unmarshal(msg, frame); err != nil || frame.PollID == "" {
			write(serverFrame{Event: EventError, Message: "invalid request"})
			continue
		}

		switch frame.Event {
		case EventJoinPoll:
			mtx.Lock()
			already := joined[frame.PollID]
			mtx.Unlock()
			if already {
				continue
			}

			p, err := s.Get(context.Background(), frame.PollID)
			if err == store.ErrNotFound {
				write(serverFrame{Event: EventError, PollID: frame.PollID, Message: "Poll not found"})
				continue
			}
			if err != nil {
				log.Errorf("store, err=%v", err)
				write(serverFrame{Event: EventError, PollID: frame.PollID, Message: "Error joining poll"})
				continue
			}

			if err = bc.Join(frame.PollID, events); err != nil {
				log.Errorf("broadcast, err=%v", err)
				write(serverFrame{Event: EventError, PollID: frame.PollID, Message: "Error joining poll"})
				continue
			}
			mtx.Lock()
			joined[frame.PollID] = true
			mtx.Unlock()

			// snapshot so the new observer starts from current state
			write(serverFrame{
				Event:  EventPollState,
				PollID: frame.PollID,
				Poll:   s.Ledger().View(p, voterTag),
			})

		case EventLeavePoll:
			mtx.Lock()
			already := joined[frame.PollID]
			delete(joined, frame.PollID)
			mtx.Unlock()
			if !already {
				continue
			}
			if err = bc.Leave(frame.PollID, events); err != nil {
				log.Errorf("broadcast, err=%v", err)
			}

		case EventVoteCast:
			// client-notified re-broadcast trigger: push the current
			// state to everyone in the topic
			p, err := s.Get(context.Background(), frame.PollID)
			if err != nil {
				continue
			}
			if err = bc.Publish(frame.PollID, p); err != nil {
				log.Errorf("broadcast, err=%v", err)
			}
		}
	}
}
