package middleware

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	coreconfig "github.com/m3rciful/quizbot/core/config"
	"github.com/m3rciful/quizbot/core/logger"
	tghelpers "github.com/m3rciful/quizbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures RateLimitMiddleware.
type RateLimitOptions struct {
	// Interval is the minimum gap between two updates of one user.
	Interval time.Duration
	// Exclude holds update kinds that pass unthrottled; see UpdateKind.
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

// UpdateKind names the update for rate limit exclusions: command, message,
// poll_answer or other.
func UpdateKind(u tele.Update) string {
	switch {
	case u.PollAnswer != nil:
		return coreconfig.UpdatePollAnswer
	case u.Message != nil && strings.HasPrefix(u.Message.Text, "/"):
		return coreconfig.UpdateCommand
	case u.Message != nil:
		return coreconfig.UpdateMessage
	}
	return "other"
}

type userLimiter struct {
	lim  *rate.Limiter
	seen time.Time
}

// limiters keeps one token bucket of size one per user. Buckets idle for
// longer than ttl are swept on insert.
type limiters struct {
	mu    sync.Mutex
	every rate.Limit
	ttl   time.Duration
	users map[int64]*userLimiter
	swept time.Time
}

func newLimiters(interval time.Duration) *limiters {
	return &limiters{
		every: rate.Every(interval),
		ttl:   max(10*interval, time.Minute),
		users: make(map[int64]*userLimiter),
	}
}

func (l *limiters) allow(userID int64, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	u, ok := l.users[userID]
	if !ok {
		l.sweep(now)
		u = &userLimiter{lim: rate.NewLimiter(l.every, 1)}
		l.users[userID] = u
	}
	u.seen = now
	return u.lim.AllowN(now, 1)
}

func (l *limiters) sweep(now time.Time) {
	if now.Sub(l.swept) < l.ttl {
		return
	}
	l.swept = now
	for id, u := range l.users {
		if now.Sub(u.seen) > l.ttl {
			delete(l.users, id)
		}
	}
}

// RateLimitMiddleware drops updates that arrive sooner than Interval after
// the previous accepted update of the same user.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	if opts.Interval <= 0 {
		return func(next tele.HandlerFunc) tele.HandlerFunc { return next }
	}
	buckets := newLimiters(opts.Interval)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return next(c)
			}
			kind := UpdateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}
			if buckets.allow(user.ID, time.Now()) {
				return next(c)
			}

			totals.limited.Add(1)
			logger.Warn(tghelpers.BuildContext(c), "tg", "rate_limit",
				slog.String("kind", kind),
				slog.Duration("interval", opts.Interval),
			)
			if opts.OnLimited != nil {
				return opts.OnLimited(c)
			}
			return nil
		}
	}
}
