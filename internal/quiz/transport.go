package quiz

import (
	"context"
	"errors"
	"fmt"

	"github.com/m3rciful/quizbot/internal/question"
)

// Poll is a quiz-type poll as the engine asks the transport to post it.
type Poll struct {
	Question  string
	Options   []string
	Correct   int
	Reveal    string
	Anonymous bool
}

// PollRef identifies a posted poll.
type PollRef struct {
	PollID    string
	MessageID int
}

// Transport is the chat side of the engine.
type Transport interface {
	SendText(ctx context.Context, chatID int64, text string) (int, error)
	SendPoll(ctx context.Context, chatID int64, poll Poll) (PollRef, error)
	EditText(ctx context.Context, chatID int64, messageID int, text string) error
	Delete(ctx context.Context, chatID int64, messageID int) error
}

// Source produces the next question for a session.
type Source interface {
	Fetch(ctx context.Context) (question.Question, error)
}

// ErrAlreadyRunning is returned by Start for a chat whose session is active.
var ErrAlreadyRunning = errors.New("quiz already running")

// TransportError records a failed chat call. Required failures feed the
// retry path; the rest are dropped after logging.
type TransportError struct {
	Op       string
	Required bool
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Code satisfies the router's error code lookup.
func (e *TransportError) Code() string { return "transport_" + e.Op }
