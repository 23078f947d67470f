package quiz

import (
	"sync"

	"github.com/m3rciful/quizbot/internal/question"
)

// Session is the quiz state of one chat. The engine owns every mutation;
// all fields are guarded by mu.
type Session struct {
	mu sync.Mutex

	chatID       int64
	runID        string
	active       bool
	epoch        uint64
	advancing    bool
	history      *History
	silentStreak int
	statusMsg    int

	timers    map[uint64]Timer
	nextTimer uint64
}

func newSession(chatID int64, historySize int) *Session {
	return &Session{
		chatID:  chatID,
		history: NewHistory(historySize),
		timers:  make(map[uint64]Timer),
	}
}

// live reports whether callbacks armed in epoch may still act.
func (s *Session) live(epoch uint64) bool {
	return s.active && s.epoch == epoch
}

func (s *Session) cancelTimersLocked() {
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// Snapshot is a read-only copy of a session.
type Snapshot struct {
	ChatID        int64
	SessionID     string
	Active        bool
	SilentStreak  int
	History       []question.Question
	PendingTimers int
}

func (s *Session) snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ChatID:        s.chatID,
		SessionID:     s.runID,
		Active:        s.active,
		SilentStreak:  s.silentStreak,
		PendingTimers: len(s.timers),
	}
	for _, p := range s.history.Items() {
		snap.History = append(snap.History, p.Question)
	}
	return snap
}

// Store maps chat ids to sessions.
type Store struct {
	mu          sync.RWMutex
	sessions    map[int64]*Session
	historySize int
}

// NewStore creates an empty Store whose sessions keep historySize questions.
func NewStore(historySize int) *Store {
	return &Store{
		sessions:    make(map[int64]*Session),
		historySize: historySize,
	}
}

// Get returns the session for chatID if one was ever created.
func (st *Store) Get(chatID int64) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[chatID]
	return s, ok
}

// GetOrCreate returns the session for chatID, creating an idle one if needed.
func (st *Store) GetOrCreate(chatID int64) *Session {
	if s, ok := st.Get(chatID); ok {
		return s
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[chatID]; ok {
		return s
	}
	s := newSession(chatID, st.historySize)
	st.sessions[chatID] = s
	return s
}

// Clear forgets every session. Sessions are otherwise kept for the life of
// the process, one per chat that ever started a quiz.
func (st *Store) Clear() {
	st.mu.Lock()
	st.sessions = make(map[int64]*Session)
	st.mu.Unlock()
}

// Len returns the number of known sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Each calls fn for every session until fn returns false.
func (st *Store) Each(fn func(*Session) bool) {
	st.mu.RLock()
	list := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		list = append(list, s)
	}
	st.mu.RUnlock()
	for _, s := range list {
		if !fn(s) {
			return
		}
	}
}
