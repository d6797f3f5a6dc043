package store

import (
	"fmt"
	"strings"
)

// Definition is a poll as submitted for creation, before identifiers
// are assigned. Title may be empty for single-question polls; the
// question text then doubles as the title.
type Definition struct {
	Title       string
	Description string
	Questions   []QuestionDefinition
	// Expiry is seconds until the poll disappears; zero means the
	// default one year.
	Expiry int32
}

type QuestionDefinition struct {
	Text    string
	Options []string
}

// ValidationError reports the first violated constraint of a poll
// definition.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

const (
	minQuestions = 1
	maxQuestions = 20
	minOptions   = 2
	maxOptions   = 10

	minTitleLen       = 5
	maxTitleLen       = 200
	maxDescriptionLen = 500
	minQuestionLen    = 5
	maxQuestionLen    = 500
	minOptionLen      = 1
	maxOptionLen      = 200

	minExpirySeconds = 60
)

// Validate checks the definition against the creation bounds and
// returns the first violated constraint. Text fields are trimmed in
// place before length checks.
func (d *Definition) Validate() *ValidationError {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)

	if len(d.Questions) < minQuestions {
		return invalid("Poll must have at least %d question", minQuestions)
	}
	if len(d.Questions) > maxQuestions {
		return invalid("Poll cannot have more than %d questions", maxQuestions)
	}

	multi := len(d.Questions) > 1
	if d.Title != "" || multi {
		if len(d.Title) < minTitleLen {
			return invalid("Title must be at least %d characters", minTitleLen)
		}
		if len(d.Title) > maxTitleLen {
			return invalid("Title cannot exceed %d characters", maxTitleLen)
		}
	}
	if len(d.Description) > maxDescriptionLen {
		return invalid("Description cannot exceed %d characters", maxDescriptionLen)
	}

	for i := range d.Questions {
		q := &d.Questions[i]
		q.Text = strings.TrimSpace(q.Text)
		if len(q.Text) < minQuestionLen {
			return invalid("Question must be at least %d characters", minQuestionLen)
		}
		if len(q.Text) > maxQuestionLen {
			return invalid("Question cannot exceed %d characters", maxQuestionLen)
		}
		if len(q.Options) < minOptions {
			return invalid("Each question must have at least %d options", minOptions)
		}
		if len(q.Options) > maxOptions {
			return invalid("Each question cannot have more than %d options", maxOptions)
		}
		for j := range q.Options {
			q.Options[j] = strings.TrimSpace(q.Options[j])
			if len(q.Options[j]) < minOptionLen {
				return invalid("Option cannot be empty")
			}
			if len(q.Options[j]) > maxOptionLen {
				return invalid("Option cannot exceed %d characters", maxOptionLen)
			}
		}
	}

	if d.Expiry != 0 && d.Expiry < minExpirySeconds {
		return invalid("Expiry must be at least %d seconds", minExpirySeconds)
	}

	return nil
}
