package ledger

import (
	"time"

	"github.com/Pushkkaarr/Real-Time-Poll-Rooms/mongo"
)

// PollView is the outward representation of a poll for one requester.
// Vote figures are pointers so they can be withheld entirely when the
// active policy gates results; the stored ledger always keeps full
// counts, only the response is filtered.
type PollView struct {
	ID          string         `json:"poll_id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Questions   []QuestionView `json:"questions"`
	TotalVotes  *int32         `json:"total_votes,omitempty"`
	HasVotedAll *bool          `json:"has_voted_all_questions,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty"`
}

type QuestionView struct {
	ID         string       `json:"question_id"`
	Text       string       `json:"text"`
	Options    []OptionView `json:"options"`
	TotalVotes *int32       `json:"total_votes,omitempty"`
}

type OptionView struct {
	ID    string `json:"option_id"`
	Text  string `json:"text"`
	Votes *int32 `json:"votes,omitempty"`
}

// HasVotedAll reports whether the voter has spent a vote on every
// question of the poll.
func HasVotedAll(p *mongo.Poll, voterTag string) bool {
	rec := p.Voter(voterTag)
	if rec == nil {
		return false
	}
	for i := range p.Questions {
		if !rec.HasUnit(p.Questions[i].ID) {
			return false
		}
	}
	return len(p.Questions) > 0
}

// View builds the requester-facing representation of the poll. Under a
// result-gating policy, counts are withheld until the requester has
// voted on every question.
func (l *Ledger) View(p *mongo.Poll, voterTag string) *PollView {
	showCounts := true
	var hasVotedAll *bool
	if l.policy.GatesResults() {
		complete := HasVotedAll(p, voterTag)
		hasVotedAll = &complete
		showCounts = complete
	}

	v := &PollView{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Questions:   make([]QuestionView, len(p.Questions)),
		HasVotedAll: hasVotedAll,
		CreatedAt:   p.CreatedAt,
		ExpiresAt:   p.ExpiresAt,
	}
	if showCounts {
		total := p.TotalVotes
		v.TotalVotes = &total
	}

	for i := range p.Questions {
		q := &p.Questions[i]
		qv := QuestionView{
			ID:      q.ID,
			Text:    q.Text,
			Options: make([]OptionView, len(q.Options)),
		}
		if showCounts {
			qt := q.TotalVotes
			qv.TotalVotes = &qt
		}
		for j := range q.Options {
			o := &q.Options[j]
			ov := OptionView{ID: o.ID, Text: o.Text}
			if showCounts {
				votes := o.Votes
				ov.Votes = &votes
			}
			qv.Options[j] = ov
		}
		v.Questions[i] = qv
	}

	return v
}
