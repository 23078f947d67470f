package quiz

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/quizbot/internal/question"
)

// manualClock fires timers only from Advance, in deadline order, on the
// calling goroutine.
type manualClock struct {
	mu     sync.Mutex
	base   time.Time
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	c       *manualClock
	at      time.Duration
	seq     int
	fn      func()
	done    bool
	stopped bool
}

func newManualClock() *manualClock {
	return &manualClock{base: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.base.Add(c.now)
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{c: c, at: c.now + d, seq: c.seq, fn: f}
	c.seq++
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if t.done || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward by d, running every timer that comes due,
// including timers armed by callbacks within the window.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()
	for {
		c.mu.Lock()
		var next *manualTimer
		for _, t := range c.timers {
			if t.done || t.stopped || t.at > target {
				continue
			}
			if next == nil || t.at < next.at || (t.at == next.at && t.seq < next.seq) {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = next.at
		next.done = true
		c.mu.Unlock()
		next.fn()
	}
}

type sentText struct {
	chatID int64
	msgID  int
	text   string
}

type recordingTransport struct {
	mu       sync.Mutex
	nextID   int
	texts    []sentText
	polls    []Poll
	edits    []string
	deleted  []int
	pollErrs []error
}

func (t *recordingTransport) SendText(_ context.Context, chatID int64, text string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	t.texts = append(t.texts, sentText{chatID: chatID, msgID: t.nextID, text: text})
	return t.nextID, nil
}

func (t *recordingTransport) SendPoll(_ context.Context, _ int64, poll Poll) (PollRef, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.pollErrs) > 0 {
		err := t.pollErrs[0]
		t.pollErrs = t.pollErrs[1:]
		if err != nil {
			return PollRef{}, err
		}
	}
	t.nextID++
	t.polls = append(t.polls, poll)
	return PollRef{PollID: fmt.Sprintf("poll-%d", len(t.polls)), MessageID: t.nextID}, nil
}

func (t *recordingTransport) EditText(_ context.Context, _ int64, _ int, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.edits = append(t.edits, text)
	return nil
}

func (t *recordingTransport) Delete(_ context.Context, _ int64, messageID int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deleted = append(t.deleted, messageID)
	return nil
}

func (t *recordingTransport) pollCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.polls)
}

func (t *recordingTransport) textsContaining(sub string) []sentText {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []sentText
	for _, m := range t.texts {
		if strings.Contains(m.text, sub) {
			out = append(out, m)
		}
	}
	return out
}

type fetchResult struct {
	q   question.Question
	err error
}

// scriptedSource serves queued results, then numbered questions.
type scriptedSource struct {
	mu      sync.Mutex
	results []fetchResult
	calls   int
}

func (s *scriptedSource) Fetch(context.Context) (question.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.results) > 0 {
		r := s.results[0]
		s.results = s.results[1:]
		return r.q, r.err
	}
	return question.New(fmt.Sprintf("Q%d", s.calls), []string{"o1", "o2", "o3", "o4"}, 0, "")
}

func (s *scriptedSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func mustQuestion(t *testing.T, text string, correct int, explanation string) question.Question {
	t.Helper()
	q, err := question.New(text, []string{"o1", "o2", "o3", "o4"}, correct, explanation)
	require.NoError(t, err)
	return q
}

type harness struct {
	engine    *Engine
	clock     *manualClock
	transport *recordingTransport
	source    *scriptedSource
}

func newHarness(t *testing.T, mutate func(*Config), results ...fetchResult) *harness {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	h := &harness{
		clock:     newManualClock(),
		transport: &recordingTransport{},
		source:    &scriptedSource{results: results},
	}
	e, err := NewEngine(h.source, h.transport, cfg, WithClock(h.clock))
	require.NoError(t, err)
	t.Cleanup(e.Close)
	h.engine = e
	return h
}

func (h *harness) snapshot(t *testing.T, chatID int64) Snapshot {
	t.Helper()
	snap, ok := h.engine.Snapshot(chatID)
	require.True(t, ok, "no session for chat %d", chatID)
	return snap
}
