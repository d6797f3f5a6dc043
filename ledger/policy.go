package ledger

import (
	"github.com/Pushkkaarr/Real-Time-Poll-Rooms/mongo"
)

// Policy names accepted by the vote_policy config key.
const (
	PerPoll     = "per-poll"
	PerOption   = "per-option"
	PerQuestion = "per-question"
)

// Policy decides what counts as a duplicate vote and how the per-origin
// ceiling scales. One policy is selected at startup and applies to every
// poll the deployment serves.
type Policy interface {
	Name() string

	// IsDuplicate reports whether a voter with the given record has
	// already spent their allotted vote for the target. The record is
	// never nil; first-time voters are accepted before this is asked.
	IsDuplicate(rec *mongo.VoterRecord, questionID, optionID string) bool

	// Unit is the identifier appended to the voter's record on accept.
	Unit(questionID, optionID string) string

	// Ceiling is the maximum voter records one origin tag may hold on
	// a poll with the given question count.
	Ceiling(base, questionCount int) int

	// GatesResults reports whether vote figures are withheld from a
	// voter until they have voted on every question.
	GatesResults() bool
}

// PolicyByName resolves a config value to a policy, defaulting to
// per-question for unknown names.
func PolicyByName(name string) Policy {
	switch name {
	case PerPoll:
		return perPollPolicy{}
	case PerOption:
		return perOptionPolicy{}
	default:
		return perQuestionPolicy{}
	}
}

// perPollPolicy allows one vote total per voter tag per poll.
type perPollPolicy struct{}

func (perPollPolicy) Name() string { return PerPoll }

func (perPollPolicy) IsDuplicate(rec *mongo.VoterRecord, questionID, optionID string) bool {
	return len(rec.Units) > 0
}

func (perPollPolicy) Unit(questionID, optionID string) string { return optionID }

func (perPollPolicy) Ceiling(base, questionCount int) int { return base }

func (perPollPolicy) GatesResults() bool { return false }

// perOptionPolicy allows one vote per option per voter tag; the same
// device may vote for several different options.
type perOptionPolicy struct{}

func (perOptionPolicy) Name() string { return PerOption }

func (perOptionPolicy) IsDuplicate(rec *mongo.VoterRecord, questionID, optionID string) bool {
	return rec.HasUnit(optionID)
}

func (perOptionPolicy) Unit(questionID, optionID string) string { return optionID }

func (perOptionPolicy) Ceiling(base, questionCount int) int { return base }

func (perOptionPolicy) GatesResults() bool { return false }

// perQuestionPolicy allows one vote per question per voter tag and hides
// results from a voter until they have voted on every question.
type perQuestionPolicy struct{}

func (perQuestionPolicy) Name() string { return PerQuestion }

func (perQuestionPolicy) IsDuplicate(rec *mongo.VoterRecord, questionID, optionID string) bool {
	return rec.HasUnit(questionID)
}

func (perQuestionPolicy) Unit(questionID, optionID string) string { return questionID }

func (perQuestionPolicy) Ceiling(base, questionCount int) int {
	if questionCount < 1 {
		questionCount = 1
	}
	return base * questionCount
}

func (perQuestionPolicy) GatesResults() bool { return true }
