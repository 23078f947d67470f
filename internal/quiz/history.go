package quiz

import (
	"time"

	"github.com/m3rciful/quizbot/internal/question"
)

// DefaultHistorySize is the number of posted questions a session remembers.
const DefaultHistorySize = 5

// Posted is a question that reached the chat as a poll.
type Posted struct {
	Question  question.Question
	PollID    string
	MessageID int
	SentAt    time.Time
	Answered  bool

	// advanced is set once this question has scheduled the next one.
	advanced bool
}

// History is a fixed-capacity ring buffer; pushing past capacity evicts the
// oldest entry. It is not safe for concurrent use; Session guards it.
type History struct {
	buf   []*Posted
	start int
	n     int
}

// NewHistory creates a ring buffer. Capacity below one falls back to the default.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = DefaultHistorySize
	}
	return &History{buf: make([]*Posted, capacity)}
}

// Push appends p, evicting the oldest entry when full.
func (h *History) Push(p *Posted) {
	if h.n < len(h.buf) {
		h.buf[(h.start+h.n)%len(h.buf)] = p
		h.n++
		return
	}
	h.buf[h.start] = p
	h.start = (h.start + 1) % len(h.buf)
}

func (h *History) Len() int { return h.n }

func (h *History) Cap() int { return len(h.buf) }

// Latest returns the most recently pushed entry or nil.
func (h *History) Latest() *Posted {
	if h.n == 0 {
		return nil
	}
	return h.buf[(h.start+h.n-1)%len(h.buf)]
}

// Find returns the newest entry with the given poll id. An empty id means Latest.
func (h *History) Find(pollID string) *Posted {
	if pollID == "" {
		return h.Latest()
	}
	for i := h.n - 1; i >= 0; i-- {
		if p := h.buf[(h.start+i)%len(h.buf)]; p.PollID == pollID {
			return p
		}
	}
	return nil
}

// Items returns the entries oldest first.
func (h *History) Items() []*Posted {
	out := make([]*Posted, 0, h.n)
	for i := 0; i < h.n; i++ {
		out = append(out, h.buf[(h.start+i)%len(h.buf)])
	}
	return out
}

// Clear drops every entry and keeps the capacity.
func (h *History) Clear() {
	clear(h.buf)
	h.start = 0
	h.n = 0
}
