package mongo

import (
	"time"
)

type Poll struct {
	ID          string     `json:"poll_id" bson:"_id"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description,omitempty" bson:"description"`
	Questions   []Question `json:"questions" bson:"questions"`
	TotalVotes  int32      `json:"total_votes" bson:"total_votes"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty" bson:"expires_at,omitempty"`

	// Voters is never serialized to clients, only to the backend.
	Voters []VoterRecord `json:"-" bson:"voters"`
}

type Question struct {
	ID         string   `json:"question_id" bson:"question_id"`
	Text       string   `json:"text" bson:"text"`
	Options    []Option `json:"options" bson:"options"`
	TotalVotes int32    `json:"total_votes" bson:"total_votes"`
}

type Option struct {
	ID    string `json:"option_id" bson:"option_id"`
	Text  string `json:"text" bson:"text"`
	Votes int32  `json:"votes" bson:"votes"`
}

// VoterRecord tracks one voter identity on one poll. Units holds the
// option or question ids the identity has spent votes on, depending on
// the active policy.
type VoterRecord struct {
	VoterTag  string    `json:"voter_tag" bson:"voter_tag"`
	OriginTag string    `json:"origin_tag" bson:"origin_tag"`
	Units     []string  `json:"units" bson:"units"`
	LastVote  time.Time `json:"last_vote" bson:"last_vote"`
}

func (p *Poll) Question(id string) *Question {
	for i := range p.Questions {
		if p.Questions[i].ID == id {
			return &p.Questions[i]
		}
	}
	return nil
}

func (p *Poll) Voter(tag string) *VoterRecord {
	for i := range p.Voters {
		if p.Voters[i].VoterTag == tag {
			return &p.Voters[i]
		}
	}
	return nil
}

func (p *Poll) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && p.ExpiresAt.Before(now)
}

func (q *Question) Option(id string) *Option {
	for i := range q.Options {
		if q.Options[i].ID == id {
			return &q.Options[i]
		}
	}
	return nil
}

// Clone returns a deep copy, so callers can mutate a poll without the
// change leaking into shared state.
func (p *Poll) Clone() *Poll {
	c := *p
	c.Questions = make([]Question, len(p.Questions))
	for i := range p.Questions {
		q := p.Questions[i]
		q.Options = append([]Option(nil), q.Options...)
		c.Questions[i] = q
	}
	c.Voters = make([]VoterRecord, len(p.Voters))
	for i := range p.Voters {
		r := p.Voters[i]
		r.Units = append([]string(nil), r.Units...)
		c.Voters[i] = r
	}
	if p.ExpiresAt != nil {
		t := *p.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

func (r *VoterRecord) HasUnit(id string) bool {
	for _, u := range r.Units {
		if u == id {
			return true
		}
	}
	return false
}
