package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestViewFullCountsWithoutGating(t *testing.T) {
	l := New(PolicyByName(PerPoll), 3)
	p := makePoll(1, 2)
	require.Nil(t, l.Apply(p, "q1", "q1o1", "v1", "o1", time.Now()))

	v := l.View(p, "stranger")
	require.Nil(t, v.HasVotedAll, "completion flag only exists under the gating policy")
	require.NotNil(t, v.TotalVotes)
	require.Equal(t, int32(1), *v.TotalVotes)
	require.NotNil(t, v.Questions[0].Options[0].Votes)
	require.Equal(t, int32(1), *v.Questions[0].Options[0].Votes)
}

func TestViewWithheldUntilComplete(t *testing.T) {
	l := New(PolicyByName(PerQuestion), 3)
	p := makePoll(2, 2)

	require.Nil(t, l.Apply(p, "q1", "q1o1", "v1", "o1", time.Now()))

	v := l.View(p, "v1")
	require.NotNil(t, v.HasVotedAll)
	require.False(t, *v.HasVotedAll)
	require.Nil(t, v.TotalVotes, "figures stay hidden until every question is voted")
	for _, q := range v.Questions {
		require.Nil(t, q.TotalVotes)
		for _, o := range q.Options {
			require.Nil(t, o.Votes)
			require.NotEmpty(t, o.ID, "targets stay visible so the voter can finish")
		}
	}

	require.Nil(t, l.Apply(p, "q2", "q2o2", "v1", "o1", time.Now()))

	v = l.View(p, "v1")
	require.True(t, *v.HasVotedAll)
	require.NotNil(t, v.TotalVotes)
	require.Equal(t, int32(2), *v.TotalVotes)
	require.Equal(t, int32(1), *v.Questions[0].Options[0].Votes)
}

func TestViewIsPresentationOnly(t *testing.T) {
	l := New(PolicyByName(PerQuestion), 3)
	p := makePoll(2, 2)
	require.Nil(t, l.Apply(p, "q1", "q1o1", "v1", "o1", time.Now()))

	_ = l.View(p, "v1")
	require.Equal(t, int32(1), p.TotalVotes, "the stored ledger keeps full counts")
	require.Equal(t, int32(1), p.Questions[0].Options[0].Votes)
}

func TestViewPerViewer(t *testing.T) {
	l := New(PolicyByName(PerQuestion), 3)
	p := makePoll(1, 2)
	require.Nil(t, l.Apply(p, "q1", "q1o1", "v1", "o1", time.Now()))

	// the voter that finished sees counts, everyone else does not
	require.NotNil(t, l.View(p, "v1").TotalVotes)
	require.Nil(t, l.View(p, "v2").TotalVotes)
}
