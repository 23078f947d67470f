// Package question turns generated text into validated quiz questions and
// wraps the generation service that produces that text.
package question

import (
	"fmt"
	"strings"
)

// OptionCount is the number of answer options every question carries.
const OptionCount = 4

// Labels are the option markers in display order.
var Labels = [OptionCount]string{"A", "B", "C", "D"}

// Question is an immutable multiple-choice question.
type Question struct {
	Text        string
	Options     [OptionCount]string
	Correct     int
	Explanation string
}

// New validates the parts and builds a Question.
func New(text string, options []string, correct int, explanation string) (Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Question{}, &ParseError{Kind: MissingQuestion}
	}
	if len(options) != OptionCount {
		return Question{}, &ParseError{Kind: WrongOptionCount, Detail: fmt.Sprintf("got %d options", len(options))}
	}
	var q Question
	for i, o := range options {
		o = strings.TrimSpace(o)
		if o == "" {
			return Question{}, &ParseError{Kind: WrongOptionCount, Detail: fmt.Sprintf("option %s is empty", Labels[i])}
		}
		q.Options[i] = o
	}
	if correct < 0 || correct >= OptionCount {
		return Question{}, &ParseError{Kind: InvalidAnswerLabel, Detail: fmt.Sprintf("index %d", correct)}
	}
	q.Text = text
	q.Correct = correct
	q.Explanation = strings.TrimSpace(explanation)
	return q, nil
}

// CorrectOption returns the text of the correct option.
func (q Question) CorrectOption() string {
	return q.Options[q.Correct]
}

// CorrectLabel returns the letter of the correct option.
func (q Question) CorrectLabel() string {
	return Labels[q.Correct]
}

// OptionList returns the options as a slice for transports that need one.
func (q Question) OptionList() []string {
	out := make([]string, OptionCount)
	copy(out, q.Options[:])
	return out
}
