package state

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/quizbot/core/logger"
	tghelpers "github.com/m3rciful/quizbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// DefaultTTL closes dialogs nobody answered for this long.
const DefaultTTL = 30 * time.Minute

type dialog struct {
	state   State
	temp    map[string]string
	touched time.Time
}

type memoryManager struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	dialogs  map[int64]*dialog
	handlers map[State]tele.HandlerFunc
}

// Option configures NewMemoryManager.
type Option func(*memoryManager)

// WithTTL sets how long an idle dialog stays open. Zero keeps it forever.
func WithTTL(ttl time.Duration) Option {
	return func(m *memoryManager) { m.ttl = ttl }
}

func withClock(now func() time.Time) Option {
	return func(m *memoryManager) { m.now = now }
}

// NewMemoryManager keeps dialogs in memory; a restart closes them all.
func NewMemoryManager(opts ...Option) Manager {
	m := &memoryManager{
		ttl:      DefaultTTL,
		now:      time.Now,
		dialogs:  make(map[int64]*dialog),
		handlers: make(map[State]tele.HandlerFunc),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *memoryManager) Handle(st State, h tele.HandlerFunc) {
	if h == nil || st == StateIdle {
		return
	}
	m.mu.Lock()
	m.handlers[st] = h
	m.mu.Unlock()
}

// live returns the user's dialog, dropping it when expired. Callers hold m.mu.
func (m *memoryManager) live(userID int64) *dialog {
	d, ok := m.dialogs[userID]
	if !ok {
		return nil
	}
	if m.ttl > 0 && m.now().Sub(d.touched) > m.ttl {
		delete(m.dialogs, userID)
		return nil
	}
	return d
}

// open returns the user's dialog, creating it. Callers hold m.mu.
func (m *memoryManager) open(userID int64) *dialog {
	d := m.live(userID)
	if d == nil {
		d = &dialog{temp: make(map[string]string)}
		m.dialogs[userID] = d
	}
	d.touched = m.now()
	return d
}

func (m *memoryManager) SetState(userID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open(userID).state = st
}

func (m *memoryManager) Current(userID int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d := m.live(userID); d != nil {
		return d.state
	}
	return StateIdle
}

func (m *memoryManager) InProgress(userID int64) bool {
	return m.Current(userID) != StateIdle
}

func (m *memoryManager) SetTemp(userID int64, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open(userID).temp[key] = value
}

func (m *memoryManager) GetTemp(userID int64, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.live(userID)
	if d == nil {
		return "", false
	}
	v, ok := d.temp[key]
	return v, ok
}

func (m *memoryManager) Clear(userID int64) {
	m.mu.Lock()
	delete(m.dialogs, userID)
	m.mu.Unlock()
}

// ManagerHandler runs the handler bound to the sender's current state.
func (m *memoryManager) ManagerHandler(c tele.Context) error {
	u := c.Sender()
	if u == nil {
		return nil
	}
	st := m.Current(u.ID)
	m.mu.Lock()
	h := m.handlers[st]
	m.mu.Unlock()

	logger.Debug(tghelpers.BuildContext(c), "tg", "fsm.dispatch",
		slog.String("state", string(st)),
		slog.Bool("handled", h != nil),
	)
	if h == nil {
		return nil
	}
	return h(c)
}
