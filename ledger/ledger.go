// Package ledger holds the vote decision function: given a poll's current
// state and a vote attempt, it either rejects the attempt or mutates the
// poll's counts and voter records in place. It performs no I/O; the store
// is responsible for loading, locking and persisting the poll around it.
package ledger

import (
	"time"

	"github.com/Pushkkaarr/Real-Time-Poll-Rooms/mongo"
	"github.com/gofiber/fiber/v2"
)

type Code string

const (
	CodeNotFound      Code = "NOT_FOUND"
	CodeInvalidTarget Code = "INVALID_TARGET"
	CodeDuplicate     Code = "DUPLICATE"
	CodeRateLimited   Code = "RATE_LIMITED"
)

// Rejection is a refused vote. It is a policy outcome, not an internal
// error; it carries the HTTP status the protocol layer answers with.
type Rejection struct {
	Code    Code
	Message string
}

func (r *Rejection) Error() string {
	return r.Message
}

func (r *Rejection) Status() int {
	switch r.Code {
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeDuplicate:
		return fiber.StatusForbidden
	case CodeRateLimited:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusBadRequest
	}
}

func reject(code Code, msg string) *Rejection {
	return &Rejection{Code: code, Message: msg}
}

// Ledger applies one deployment-wide duplicate policy and per-origin
// ceiling to vote attempts.
type Ledger struct {
	policy  Policy
	ceiling int
}

// New builds a ledger around the given policy. base is the flat
// per-origin allowance before policy scaling; values below 1 fall back
// to 3, the default tolerance for shared networks.
func New(pol Policy, base int) *Ledger {
	if base < 1 {
		base = 3
	}
	return &Ledger{policy: pol, ceiling: base}
}

func (l *Ledger) Policy() Policy {
	return l.policy
}

// Apply validates a vote attempt against the poll and, on acceptance,
// increments the target option, its question and the poll total by one
// and upserts the voter's record. Checks run in a fixed order: target
// validity, duplicate per policy, origin ceiling.
//
// questionID may be empty for single-question polls.
func (l *Ledger) Apply(p *mongo.Poll, questionID, optionID, voterTag, originTag string, now time.Time) *Rejection {
	var q *mongo.Question
	if questionID == "" && len(p.Questions) == 1 {
		q = &p.Questions[0]
	} else {
		q = p.Question(questionID)
	}
	if q == nil {
		return reject(CodeInvalidTarget, "Invalid question selected")
	}

	opt := q.Option(optionID)
	if opt == nil {
		return reject(CodeInvalidTarget, "Invalid option selected")
	}

	rec := p.Voter(voterTag)
	if rec != nil && l.policy.IsDuplicate(rec, q.ID, optionID) {
		return reject(CodeDuplicate, "You have already voted on this poll")
	}

	if countOrigin(p, originTag) >= l.policy.Ceiling(l.ceiling, len(p.Questions)) {
		return reject(CodeRateLimited, "Too many votes from this network. Please try again later")
	}

	opt.Votes++
	q.TotalVotes++
	p.TotalVotes++

	unit := l.policy.Unit(q.ID, optionID)
	if rec == nil {
		p.Voters = append(p.Voters, mongo.VoterRecord{
			VoterTag:  voterTag,
			OriginTag: originTag,
			Units:     []string{unit},
			LastVote:  now,
		})
	} else {
		rec.Units = append(rec.Units, unit)
		rec.LastVote = now
	}

	return nil
}

func countOrigin(p *mongo.Poll, originTag string) int {
	n := 0
	for i := range p.Voters {
		if p.Voters[i].OriginTag == originTag {
			n++
		}
	}
	return n
}
