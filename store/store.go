// Package store owns poll persistence and is the sole mutation path for
// votes. All mutations to one poll serialize on a per-poll lock held
// across decide, persist and publish, so observers see updates in the
// order they were applied.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/Pushkkaarr/Real-Time-Poll-Rooms/broadcast"
	"github.com/Pushkkaarr/Real-Time-Poll-Rooms/ledger"
	"github.com/Pushkkaarr/Real-Time-Poll-Rooms/mongo"
	"github.com/google/uuid"

	log "github.com/sirupsen/logrus"
)

const (
	// ListCap bounds summary responses.
	ListCap = 100

	defaultExpiry = 365 * 24 * time.Hour

	// backendTimeout bounds every persistence call so no vote or
	// lookup blocks indefinitely on a slow backend.
	backendTimeout = 5 * time.Second
)

func bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, backendTimeout)
}

type Store struct {
	backend Backend
	ledger  *ledger.Ledger
	bc      *broadcast.Broadcaster
	cache   *pollCache

	mtx   sync.Mutex
	locks map[string]*sync.Mutex
}

// New wires the store to its backend, the vote ledger and the
// broadcaster it publishes through after each committed mutation.
func New(backend Backend, l *ledger.Ledger, bc *broadcast.Broadcaster) *Store {
	return &Store{
		backend: backend,
		ledger:  l,
		bc:      bc,
		cache:   newPollCache(),
		locks:   map[string]*sync.Mutex{},
	}
}

func (s *Store) Ledger() *ledger.Ledger {
	return s.ledger
}

func (s *Store) lock(pollID string) *sync.Mutex {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	l, ok := s.locks[pollID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[pollID] = l
	}
	return l
}

// Create validates the definition, assigns identifiers and persists the
// poll with zeroed counts.
func (s *Store) Create(ctx context.Context, def Definition) (*mongo.Poll, error) {
	if verr := def.Validate(); verr != nil {
		return nil, verr
	}

	now := time.Now()
	expiry := defaultExpiry
	if def.Expiry > 0 {
		expiry = time.Duration(def.Expiry) * time.Second
	}
	expiresAt := now.Add(expiry)

	title := def.Title
	if title == "" {
		title = def.Questions[0].Text
	}

	p := &mongo.Poll{
		ID:          uuid.NewString(),
		Title:       title,
		Description: def.Description,
		Questions:   make([]mongo.Question, len(def.Questions)),
		Voters:      []mongo.VoterRecord{},
		CreatedAt:   now,
		ExpiresAt:   &expiresAt,
	}
	for i, qd := range def.Questions {
		q := mongo.Question{
			ID:      uuid.NewString(),
			Text:    qd.Text,
			Options: make([]mongo.Option, len(qd.Options)),
		}
		for j, text := range qd.Options {
			q.Options[j] = mongo.Option{ID: uuid.NewString(), Text: text}
		}
		p.Questions[i] = q
	}

	bctx, cancel := bounded(ctx)
	defer cancel()
	if err := s.backend.Put(bctx, p); err != nil {
		return nil, err
	}
	s.cache.set(p)
	return p, nil
}

// Get fetches a poll by id, serving from cache when possible. Expired
// and deleted polls are reported as ErrNotFound.
func (s *Store) Get(ctx context.Context, pollID string) (*mongo.Poll, error) {
	return s.load(ctx, pollID)
}

func (s *Store) load(ctx context.Context, pollID string) (*mongo.Poll, error) {
	if p, ok := s.cache.get(pollID); ok {
		if p == nil {
			return nil, ErrNotFound
		}
		if p.Expired(time.Now()) {
			return nil, ErrNotFound
		}
		return p, nil
	}

	bctx, cancel := bounded(ctx)
	defer cancel()
	p, err := s.backend.Get(bctx, pollID)
	if err == ErrNotFound {
		s.cache.setDead(pollID)
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.cache.set(p)
	if p.Expired(time.Now()) {
		return nil, ErrNotFound
	}
	return p, nil
}

// Delete irreversibly removes the poll and its voter records and tells
// all observers the poll is gone. A second delete returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, pollID string) error {
	l := s.lock(pollID)
	l.Lock()
	defer l.Unlock()

	bctx, cancel := bounded(ctx)
	defer cancel()
	if err := s.backend.Delete(bctx, pollID); err != nil {
		return err
	}
	s.cache.setDead(pollID)

	if err := s.bc.PublishDeletion(pollID); err != nil {
		log.Errorf("broadcast, err=%v", err)
	}
	return nil
}

// ListSummaries returns poll headers without voter records, capped at
// ListCap.
func (s *Store) ListSummaries(ctx context.Context, limit int64) ([]mongo.Poll, error) {
	if limit <= 0 || limit > ListCap {
		limit = ListCap
	}
	bctx, cancel := bounded(ctx)
	defer cancel()
	return s.backend.List(bctx, limit)
}

// ApplyVote runs the ledger decision under the poll's lock and, on
// acceptance, persists the poll and publishes the new state to the
// poll's topic. A broadcast failure never rolls back or surfaces; the
// vote is already committed.
func (s *Store) ApplyVote(ctx context.Context, pollID, questionID, optionID, voterTag, originTag string) (*mongo.Poll, *ledger.Rejection, error) {
	l := s.lock(pollID)
	l.Lock()
	defer l.Unlock()

	p, err := s.load(ctx, pollID)
	if err == ErrNotFound {
		return nil, &ledger.Rejection{Code: ledger.CodeNotFound, Message: "Poll not found"}, nil
	}
	if err != nil {
		return nil, nil, err
	}

	if rej := s.ledger.Apply(p, questionID, optionID, voterTag, originTag, time.Now()); rej != nil {
		return nil, rej, nil
	}

	bctx, cancel := bounded(ctx)
	defer cancel()
	if err := s.backend.Put(bctx, p); err != nil {
		return nil, nil, err
	}
	s.cache.set(p)

	if err := s.bc.Publish(p.ID, p); err != nil {
		log.Errorf("broadcast, err=%v", err)
	}
	return p, nil, nil
}
