package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Pushkkaarr/Real-Time-Poll-Rooms/mongo"
)

// ErrNotFound is returned when no poll exists under an identifier, or
// it has been deleted.
var ErrNotFound = errors.New("poll not found")

// Backend is the persistence boundary for poll documents.
type Backend interface {
	Get(ctx context.Context, id string) (*mongo.Poll, error)
	Put(ctx context.Context, p *mongo.Poll) error
	Delete(ctx context.Context, id string) error
	// List returns up to limit poll documents, newest first, without
	// voter records.
	List(ctx context.Context, limit int64) ([]mongo.Poll, error)
}

// MemoryBackend keeps polls in process memory. Used when no mongo_uri
// is configured, and by tests.
type MemoryBackend struct {
	mtx   sync.RWMutex
	polls map[string]*mongo.Poll
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{polls: map[string]*mongo.Poll{}}
}

func (m *MemoryBackend) Get(ctx context.Context, id string) (*mongo.Poll, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	p, ok := m.polls[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (m *MemoryBackend) Put(ctx context.Context, p *mongo.Poll) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.polls[p.ID] = p.Clone()
	return nil
}

func (m *MemoryBackend) Delete(ctx context.Context, id string) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if _, ok := m.polls[id]; !ok {
		return ErrNotFound
	}
	delete(m.polls, id)
	return nil
}

func (m *MemoryBackend) List(ctx context.Context, limit int64) ([]mongo.Poll, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	out := make([]mongo.Poll, 0, len(m.polls))
	for _, p := range m.polls {
		c := p.Clone()
		c.Voters = nil
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}
