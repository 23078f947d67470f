package middleware

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

const repliesKey = "replies"

// Totals are process wide update counters.
type Totals struct {
	Updates   int64 `json:"updates"`
	Replies   int64 `json:"replies"`
	Keyboards int64 `json:"keyboards"`
	Limited   int64 `json:"rate_limited"`
	Panics    int64 `json:"panics"`
}

var totals struct {
	updates, replies, keyboards, limited, panics atomic.Int64
}

// Traffic returns the counters collected by the middleware in this package.
func Traffic() Totals {
	return Totals{
		Updates:   totals.updates.Load(),
		Replies:   totals.replies.Load(),
		Keyboards: totals.keyboards.Load(),
		Limited:   totals.limited.Load(),
		Panics:    totals.panics.Load(),
	}
}

// replyStats is written by dispatcher workers when replies are queued.
type replyStats struct {
	sent     atomic.Int32
	keyboard atomic.Bool
}

// countingContext counts the replies a handler sends for one update.
type countingContext struct {
	tele.Context
	stats *replyStats
}

func (c countingContext) record(opts []any) {
	c.stats.sent.Add(1)
	totals.replies.Add(1)
	if withMarkup(opts) {
		c.stats.keyboard.Store(true)
		totals.keyboards.Add(1)
	}
}

func withMarkup(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

func (c countingContext) Send(what any, opts ...any) error {
	err := c.Context.Send(what, opts...)
	if err == nil {
		c.record(opts)
	}
	return err
}

func (c countingContext) Reply(what any, opts ...any) error {
	err := c.Context.Reply(what, opts...)
	if err == nil {
		c.record(opts)
	}
	return err
}

// MessageMetricsMiddleware counts updates and the replies sent for them.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		totals.updates.Add(1)
		st := &replyStats{}
		c.Set(repliesKey, st)
		return next(countingContext{Context: c, stats: st})
	}
}

// GetCounters returns how many replies the current update produced and
// whether any carried a keyboard.
func GetCounters(c tele.Context) (int, bool) {
	if st, ok := c.Get(repliesKey).(*replyStats); ok {
		return int(st.sent.Load()), st.keyboard.Load()
	}
	return 0, false
}
