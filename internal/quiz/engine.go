// Package quiz runs per-chat quiz sessions: it posts generated questions as
// quiz polls, watches for answers and paces the session with timers.
package quiz

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/quizbot/core/logger"
)

const component = "quiz"

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("quiz engine closed")

// Engine is the session state machine. Every timer it arms is stored on the
// session it belongs to and cancelled when that session stops; callbacks
// re-check the session's active flag and epoch before acting.
type Engine struct {
	cfg       Config
	source    Source
	transport Transport
	clock     Clock
	store     *Store

	ctx    context.Context
	cancel context.CancelFunc
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock replaces the real clock.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithStore shares an existing session store.
func WithStore(st *Store) Option {
	return func(e *Engine) {
		if st != nil {
			e.store = st
		}
	}
}

// NewEngine validates cfg and builds an Engine.
func NewEngine(source Source, transport Transport, cfg Config, opts ...Option) (*Engine, error) {
	if source == nil {
		return nil, errors.New("quiz: nil question source")
	}
	if transport == nil {
		return nil, errors.New("quiz: nil transport")
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		cfg:       cfg,
		source:    source,
		transport: transport,
		clock:     RealClock(),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = NewStore(cfg.HistorySize)
	}
	return e, nil
}

// Config returns the normalized configuration.
func (e *Engine) Config() Config { return e.cfg }

// Start activates the chat's session and schedules its first question.
// An active session is left untouched and ErrAlreadyRunning is returned.
func (e *Engine) Start(ctx context.Context, chatID int64) error {
	if e.ctx.Err() != nil {
		return ErrClosed
	}
	s := e.store.GetOrCreate(chatID)

	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.cancelTimersLocked()
	s.active = true
	s.epoch++
	s.advancing = false
	s.silentStreak = 0
	s.history.Clear()
	s.statusMsg = 0
	s.runID = uuid.NewString()
	runID := s.runID
	e.armLocked(s, s.epoch, 0, e.advance)
	s.mu.Unlock()

	logger.Info(ctx, component, "session.started",
		slog.Int64("chat_id", chatID),
		slog.String("session_id", runID),
		slog.String("mode", string(e.cfg.Pacing)),
	)
	return nil
}

// Stop makes the chat's session idle and cancels its timers. It reports
// whether a session was running.
func (e *Engine) Stop(ctx context.Context, chatID int64) bool {
	s, ok := e.store.Get(chatID)
	if !ok {
		return false
	}
	s.mu.Lock()
	wasActive := s.active
	runID := s.runID
	status := s.haltLocked()
	s.mu.Unlock()

	e.deleteStatus(ctx, chatID, status)
	if wasActive {
		logger.Info(ctx, component, "session.stopped",
			slog.Int64("chat_id", chatID),
			slog.String("session_id", runID),
		)
	}
	return wasActive
}

// OnAnswer records an answer to pollID (the latest poll when empty). It is
// ignored unless the session is active with a non-empty history.
func (e *Engine) OnAnswer(ctx context.Context, chatID int64, pollID string) bool {
	s, ok := e.store.Get(chatID)
	if !ok {
		return false
	}

	s.mu.Lock()
	if !s.active || s.history.Len() == 0 {
		s.mu.Unlock()
		return false
	}
	s.silentStreak = 0
	p := s.history.Find(pollID)
	if p == nil || p.Answered {
		s.mu.Unlock()
		return true
	}
	p.Answered = true
	var explanation string
	if p.Question.Explanation != "" {
		explanation = explanationText(p)
	}
	if e.cfg.Pacing == PacingAnswer && !p.advanced && p == s.history.Latest() {
		p.advanced = true
		e.armLocked(s, s.epoch, e.cfg.AnswerAdvanceDelay, e.advance)
	}
	runID := s.runID
	s.mu.Unlock()

	logger.Debug(ctx, component, "question.answered",
		slog.Int64("chat_id", chatID),
		slog.String("session_id", runID),
		slog.String("poll_id", p.PollID),
	)
	if explanation != "" {
		e.sendBestEffort(ctx, chatID, "send_explanation", explanation)
	}
	return true
}

// Snapshot returns a copy of the chat's session state.
func (e *Engine) Snapshot(chatID int64) (Snapshot, bool) {
	s, ok := e.store.Get(chatID)
	if !ok {
		return Snapshot{}, false
	}
	return s.snapshot(), true
}

// Stats summarises all sessions.
type Stats struct {
	Sessions      int `json:"sessions"`
	Active        int `json:"active"`
	PendingTimers int `json:"pending_timers"`
}

// Stats counts sessions and their pending timers.
func (e *Engine) Stats() Stats {
	var st Stats
	e.store.Each(func(s *Session) bool {
		s.mu.Lock()
		st.Sessions++
		if s.active {
			st.Active++
		}
		st.PendingTimers += len(s.timers)
		s.mu.Unlock()
		return true
	})
	return st
}

// Close stops every session, cancels in-flight work and drops the sessions.
// The engine cannot be restarted.
func (e *Engine) Close() {
	e.cancel()
	e.store.Each(func(s *Session) bool {
		s.mu.Lock()
		s.haltLocked()
		s.mu.Unlock()
		return true
	})
	e.store.Clear()
}

// haltLocked makes the session idle and returns the countdown message id
// that the caller should delete.
func (s *Session) haltLocked() int {
	s.active = false
	s.epoch++
	s.advancing = false
	s.cancelTimersLocked()
	s.history.Clear()
	status := s.statusMsg
	s.statusMsg = 0
	return status
}

// armLocked schedules fn on s; it fires only while s is active in epoch.
// The caller holds s.mu.
func (e *Engine) armLocked(s *Session, epoch uint64, d time.Duration, fn func(context.Context, *Session, uint64)) {
	e.armWhenLocked(s, d,
		func() bool { return s.live(epoch) },
		func(ctx context.Context) { fn(ctx, s, epoch) },
	)
}

// armWhenLocked schedules fn on s; guard runs under s.mu at fire time.
func (e *Engine) armWhenLocked(s *Session, d time.Duration, guard func() bool, fn func(context.Context)) {
	id := s.nextTimer
	s.nextTimer++
	s.timers[id] = e.clock.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.timers, id)
		ok := guard()
		s.mu.Unlock()
		if !ok || e.ctx.Err() != nil {
			return
		}
		fn(e.ctx)
	})
}

// advance fetches the next question and posts it.
func (e *Engine) advance(ctx context.Context, s *Session, epoch uint64) {
	s.mu.Lock()
	if !s.live(epoch) || s.advancing {
		s.mu.Unlock()
		return
	}
	s.advancing = true
	runID := s.runID
	s.mu.Unlock()

	q, err := e.source.Fetch(ctx)
	if err != nil {
		e.retry(ctx, s, epoch, err)
		return
	}

	s.mu.Lock()
	live := s.live(epoch)
	if !live && s.epoch == epoch {
		s.advancing = false
	}
	s.mu.Unlock()
	if !live {
		return
	}

	ref, err := e.transport.SendPoll(ctx, s.chatID, pollFor(q))
	if err != nil {
		e.retry(ctx, s, epoch, &TransportError{Op: "send_poll", Required: true, Err: err})
		return
	}

	s.mu.Lock()
	if s.epoch == epoch {
		s.advancing = false
	}
	if !s.live(epoch) {
		s.mu.Unlock()
		// the chat was stopped or restarted while the poll was in flight
		e.deleteStatus(ctx, s.chatID, ref.MessageID)
		return
	}
	p := &Posted{
		Question:  q,
		PollID:    ref.PollID,
		MessageID: ref.MessageID,
		SentAt:    e.clock.Now(),
	}
	s.history.Push(p)
	e.armLocked(s, epoch, e.cfg.Inactivity, func(ctx context.Context, s *Session, epoch uint64) {
		e.inactive(ctx, s, epoch, p)
	})
	if e.cfg.Pacing == PacingCountdown {
		e.armLocked(s, epoch, e.cfg.Inactivity, e.countdown)
	}
	streak := s.silentStreak
	s.mu.Unlock()

	logger.Info(ctx, component, "question.posted",
		slog.Int64("chat_id", s.chatID),
		slog.String("session_id", runID),
		slog.String("poll_id", ref.PollID),
		slog.Int("streak", streak),
	)
}

// retry reports a failed advance to the chat and arms exactly one retry.
// The session's active flag is never changed here.
func (e *Engine) retry(ctx context.Context, s *Session, epoch uint64, cause error) {
	s.mu.Lock()
	if s.epoch == epoch {
		s.advancing = false
	}
	live := s.live(epoch)
	runID := s.runID
	s.mu.Unlock()
	if !live {
		return
	}

	logger.Warn(ctx, component, "advance.failed",
		slog.Int64("chat_id", s.chatID),
		slog.String("session_id", runID),
		slog.String("status", "retry"),
		slog.String("err", logger.SanitizeLimit(cause.Error(), 256)),
		slog.String("err_code", errCode(cause)),
		slog.Duration("backoff", e.cfg.RetryDelay),
	)
	e.sendBestEffort(ctx, s.chatID, "send_retry_notice", retryText(e.cfg.RetryDelay))

	s.mu.Lock()
	if s.live(epoch) {
		e.armLocked(s, epoch, e.cfg.RetryDelay, e.advance)
	}
	s.mu.Unlock()
}

// inactive closes the answer window of p.
func (e *Engine) inactive(ctx context.Context, s *Session, epoch uint64, p *Posted) {
	s.mu.Lock()
	if !s.live(epoch) || p.Answered {
		s.mu.Unlock()
		return
	}
	s.silentStreak++
	streak := s.silentStreak
	runID := s.runID

	if streak >= e.cfg.SilenceThreshold {
		status := s.haltLocked()
		stopped := s.epoch
		s.mu.Unlock()

		logger.Info(ctx, component, "session.silenced",
			slog.Int64("chat_id", s.chatID),
			slog.String("session_id", runID),
			slog.Int("streak", streak),
		)
		e.deleteStatus(ctx, s.chatID, status)
		e.sendBestEffort(ctx, s.chatID, "send_silence_notice", silenceText(e.cfg.SilenceThreshold))

		s.mu.Lock()
		e.armWhenLocked(s, e.cfg.ResumeNoticeDelay,
			func() bool { return !s.active && s.epoch == stopped },
			func(ctx context.Context) { e.sendBestEffort(ctx, s.chatID, "send_resume_notice", resumeNotice) },
		)
		s.mu.Unlock()
		return
	}

	next := e.cfg.Pacing == PacingAnswer && !p.advanced && p == s.history.Latest()
	if next {
		p.advanced = true
	}
	s.mu.Unlock()

	logger.Debug(ctx, component, "question.unanswered",
		slog.Int64("chat_id", s.chatID),
		slog.String("session_id", runID),
		slog.String("poll_id", p.PollID),
		slog.Int("streak", streak),
	)
	if next {
		e.advance(ctx, s, epoch)
	}
}

// countdown posts the status message and starts ticking it down.
func (e *Engine) countdown(ctx context.Context, s *Session, epoch uint64) {
	ticks := e.cfg.CountdownTicks
	msgID, err := e.transport.SendText(ctx, s.chatID, countdownText(time.Duration(ticks)*e.cfg.Tick))
	if err != nil {
		e.dropped(ctx, s.chatID, "send_countdown", err)
		msgID = 0
	}

	s.mu.Lock()
	if !s.live(epoch) {
		s.mu.Unlock()
		e.deleteStatus(ctx, s.chatID, msgID)
		return
	}
	s.statusMsg = msgID
	e.armTickLocked(s, epoch, msgID, ticks-1)
	s.mu.Unlock()
}

func (e *Engine) armTickLocked(s *Session, epoch uint64, msgID, remaining int) {
	e.armLocked(s, epoch, e.cfg.Tick, func(ctx context.Context, s *Session, epoch uint64) {
		if remaining > 0 {
			if msgID != 0 {
				text := countdownText(time.Duration(remaining) * e.cfg.Tick)
				if err := e.transport.EditText(ctx, s.chatID, msgID, text); err != nil {
					e.dropped(ctx, s.chatID, "edit_countdown", err)
				}
			}
			s.mu.Lock()
			if s.live(epoch) {
				e.armTickLocked(s, epoch, msgID, remaining-1)
			}
			s.mu.Unlock()
			return
		}

		s.mu.Lock()
		if s.statusMsg == msgID {
			s.statusMsg = 0
		}
		s.mu.Unlock()
		e.deleteStatus(ctx, s.chatID, msgID)
		e.advance(ctx, s, epoch)
	})
}

func (e *Engine) deleteStatus(ctx context.Context, chatID int64, msgID int) {
	if msgID == 0 {
		return
	}
	if err := e.transport.Delete(ctx, chatID, msgID); err != nil {
		e.dropped(ctx, chatID, "delete_countdown", err)
	}
}

func (e *Engine) sendBestEffort(ctx context.Context, chatID int64, op, text string) {
	if _, err := e.transport.SendText(ctx, chatID, text); err != nil {
		e.dropped(ctx, chatID, op, err)
	}
}

// dropped logs a best-effort transport failure.
func (e *Engine) dropped(ctx context.Context, chatID int64, op string, err error) {
	terr := &TransportError{Op: op, Err: err}
	logger.Debug(ctx, component, "transport.dropped",
		slog.Int64("chat_id", chatID),
		slog.String("op", op),
		slog.String("err", logger.SanitizeLimit(terr.Error(), 256)),
		slog.String("err_code", terr.Code()),
	)
}

func errCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}
