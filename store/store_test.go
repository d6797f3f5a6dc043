package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Pushkkaarr/Real-Time-Poll-Rooms/broadcast"
	"github.com/Pushkkaarr/Real-Time-Poll-Rooms/ledger"
	"github.com/stretchr/testify/require"
)

func newTestStore(policy string) (*Store, *broadcast.Broadcaster) {
	bc := broadcast.New()
	l := ledger.New(ledger.PolicyByName(policy), 3)
	return New(NewMemoryBackend(), l, bc), bc
}

func singleQuestion(options ...string) Definition {
	return Definition{
		Questions: []QuestionDefinition{{Text: "Which animal is better?", Options: options}},
	}
}

func TestCreateAssignsIdentifiers(t *testing.T) {
	s, _ := newTestStore(ledger.PerPoll)

	p, err := s.Create(context.Background(), singleQuestion("Cats", "Dogs"))
	require.NoError(t, err)

	require.NotEmpty(t, p.ID)
	require.Equal(t, "Which animal is better?", p.Title, "single-question polls take the question as title")
	require.Len(t, p.Questions, 1)
	require.NotEmpty(t, p.Questions[0].ID)
	require.Len(t, p.Questions[0].Options, 2)
	require.NotEmpty(t, p.Questions[0].Options[0].ID)
	require.NotEqual(t, p.Questions[0].Options[0].ID, p.Questions[0].Options[1].ID)
	require.Equal(t, int32(0), p.TotalVotes)
	require.NotNil(t, p.ExpiresAt)
	require.True(t, p.ExpiresAt.After(time.Now()))

	got, err := s.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)
}

func TestCreateValidation(t *testing.T) {
	s, _ := newTestStore(ledger.PerPoll)
	long := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = 'x'
		}
		return string(b)
	}

	testCases := []struct {
		name string
		def  Definition
	}{
		{"no questions", Definition{}},
		{"too many questions", Definition{
			Title: "A very long survey",
			Questions: func() []QuestionDefinition {
				qs := make([]QuestionDefinition, 21)
				for i := range qs {
					qs[i] = QuestionDefinition{Text: "Valid question?", Options: []string{"A", "B"}}
				}
				return qs
			}(),
		}},
		{"question too short", Definition{Questions: []QuestionDefinition{{Text: "Hi?", Options: []string{"A", "B"}}}}},
		{"one option", Definition{Questions: []QuestionDefinition{{Text: "Valid question?", Options: []string{"A"}}}}},
		{"too many options", Definition{Questions: []QuestionDefinition{{
			Text:    "Valid question?",
			Options: []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11"},
		}}}},
		{"empty option", Definition{Questions: []QuestionDefinition{{Text: "Valid question?", Options: []string{"A", "  "}}}}},
		{"option too long", Definition{Questions: []QuestionDefinition{{Text: "Valid question?", Options: []string{"A", long(201)}}}}},
		{"question too long", Definition{Questions: []QuestionDefinition{{Text: long(501), Options: []string{"A", "B"}}}}},
		{"multi without title", Definition{Questions: []QuestionDefinition{
			{Text: "First question?", Options: []string{"A", "B"}},
			{Text: "Second question?", Options: []string{"A", "B"}},
		}}},
		{"title too long", Definition{Title: long(201), Questions: []QuestionDefinition{{Text: "Valid question?", Options: []string{"A", "B"}}}}},
		{"description too long", Definition{
			Title:       "Valid title",
			Description: long(501),
			Questions:   []QuestionDefinition{{Text: "Valid question?", Options: []string{"A", "B"}}},
		}},
		{"expiry too short", Definition{
			Expiry:    30,
			Questions: []QuestionDefinition{{Text: "Valid question?", Options: []string{"A", "B"}}},
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Create(context.Background(), tc.def)
			require.Error(t, err)
			verr, ok := err.(*ValidationError)
			require.True(t, ok, "expected a ValidationError, got %T", err)
			require.NotEmpty(t, verr.Message)
		})
	}
}

func TestCreateMultiQuestion(t *testing.T) {
	s, _ := newTestStore(ledger.PerQuestion)

	p, err := s.Create(context.Background(), Definition{
		Title:       "Team offsite survey",
		Description: "Pick once per question.",
		Questions: []QuestionDefinition{
			{Text: "Where should we go?", Options: []string{"Beach", "Mountains"}},
			{Text: "For how many days?", Options: []string{"Two", "Three", "Four"}},
		},
	})
	require.NoError(t, err)
	require.Len(t, p.Questions, 2)
	require.Equal(t, "Team offsite survey", p.Title)
}

func TestGetNotFound(t *testing.T) {
	s, _ := newTestStore(ledger.PerPoll)
	_, err := s.Get(context.Background(), "missing")
	require.Equal(t, ErrNotFound, err)
}

func TestGetExpired(t *testing.T) {
	s, _ := newTestStore(ledger.PerPoll)
	p, err := s.Create(context.Background(), singleQuestion("A1", "B1"))
	require.NoError(t, err)

	past := time.Now().Add(-time.Minute)
	p.ExpiresAt = &past
	require.NoError(t, s.backend.Put(context.Background(), p))

	_, err = s.Get(context.Background(), p.ID)
	require.Equal(t, ErrNotFound, err)
}

func TestDeleteThenGet(t *testing.T) {
	s, _ := newTestStore(ledger.PerPoll)
	p, err := s.Create(context.Background(), singleQuestion("Cats", "Dogs"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), p.ID))

	_, err = s.Get(context.Background(), p.ID)
	require.Equal(t, ErrNotFound, err)

	// deletion is idempotent from the client's view: the second call
	// reports the poll as already gone
	require.Equal(t, ErrNotFound, s.Delete(context.Background(), p.ID))
}

func TestDeleteBroadcasts(t *testing.T) {
	s, bc := newTestStore(ledger.PerPoll)
	p, err := s.Create(context.Background(), singleQuestion("Cats", "Dogs"))
	require.NoError(t, err)

	ch := make(chan broadcast.Event, 4)
	require.NoError(t, bc.Join(p.ID, ch))

	require.NoError(t, s.Delete(context.Background(), p.ID))

	select {
	case ev := <-ch:
		require.Equal(t, broadcast.EventDeleted, ev.Type)
		require.Equal(t, p.ID, ev.PollID)
	case <-time.After(time.Second):
		t.Fatal("no deletion event delivered")
	}
}

func TestListSummaries(t *testing.T) {
	s, _ := newTestStore(ledger.PerPoll)

	var last string
	for i := 0; i < 3; i++ {
		p, err := s.Create(context.Background(), singleQuestion(fmt.Sprintf("A%d", i), fmt.Sprintf("B%d", i)))
		require.NoError(t, err)
		last = p.ID
		// vote so records exist to strip
		_, rej, err := s.ApplyVote(context.Background(), p.ID, "", p.Questions[0].Options[0].ID, fmt.Sprintf("v%d", i), fmt.Sprintf("o%d", i))
		require.NoError(t, err)
		require.Nil(t, rej)
		time.Sleep(time.Millisecond)
	}

	polls, err := s.ListSummaries(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, polls, 3)
	require.Equal(t, last, polls[0].ID, "newest first")
	for _, p := range polls {
		require.Empty(t, p.Voters, "summaries never carry voter records")
		require.Equal(t, int32(1), p.TotalVotes)
	}

	polls, err = s.ListSummaries(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, polls, 2)
}

func TestApplyVote(t *testing.T) {
	s, bc := newTestStore(ledger.PerPoll)
	p, err := s.Create(context.Background(), singleQuestion("Cats", "Dogs"))
	require.NoError(t, err)

	ch := make(chan broadcast.Event, 4)
	require.NoError(t, bc.Join(p.ID, ch))

	updated, rej, err := s.ApplyVote(context.Background(), p.ID, "", p.Questions[0].Options[0].ID, "voterX", "originX")
	require.NoError(t, err)
	require.Nil(t, rej)
	require.Equal(t, int32(1), updated.TotalVotes)

	// the accepted vote is fanned out, requester's own topic included
	select {
	case ev := <-ch:
		require.Equal(t, broadcast.EventUpdated, ev.Type)
		require.Equal(t, int32(1), ev.Poll.TotalVotes)
	case <-time.After(time.Second):
		t.Fatal("no update event delivered")
	}

	// the mutation is durable
	got, err := s.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, int32(1), got.TotalVotes)
	require.Len(t, got.Voters, 1)

	// repeat from the same identity is refused and changes nothing
	_, rej, err = s.ApplyVote(context.Background(), p.ID, "", p.Questions[0].Options[1].ID, "voterX", "originX")
	require.NoError(t, err)
	require.NotNil(t, rej)
	require.Equal(t, ledger.CodeDuplicate, rej.Code)

	got, err = s.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, int32(1), got.TotalVotes)
}

func TestApplyVoteUnknownPoll(t *testing.T) {
	s, _ := newTestStore(ledger.PerPoll)
	_, rej, err := s.ApplyVote(context.Background(), "missing", "", "o1", "v1", "o1")
	require.NoError(t, err)
	require.NotNil(t, rej)
	require.Equal(t, ledger.CodeNotFound, rej.Code)
}

func TestConcurrentVotesNoLostUpdates(t *testing.T) {
	s, _ := newTestStore(ledger.PerPoll)
	p, err := s.Create(context.Background(), singleQuestion("Cats", "Dogs", "Birds"))
	require.NoError(t, err)

	numVoters := 30
	var accepted int32
	wg := sync.WaitGroup{}

	for i := 0; i < numVoters; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			optionID := p.Questions[0].Options[n%3].ID
			_, rej, err := s.ApplyVote(context.Background(), p.ID, "", optionID,
				fmt.Sprintf("voter-%d", n), fmt.Sprintf("origin-%d", n))
			if err == nil && rej == nil {
				atomic.AddInt32(&accepted, 1)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, int32(numVoters), atomic.LoadInt32(&accepted), "every distinct voter must land")

	got, err := s.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, int32(numVoters), got.TotalVotes)

	var sum int32
	for _, o := range got.Questions[0].Options {
		sum += o.Votes
	}
	require.Equal(t, got.TotalVotes, sum)
	require.Equal(t, got.Questions[0].TotalVotes, sum)
	require.Len(t, got.Voters, numVoters)
}
