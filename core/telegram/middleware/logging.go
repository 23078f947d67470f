package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/quizbot/core/logger"
	tghelpers "github.com/m3rciful/quizbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const seenTTL = 10 * time.Second

// seenUpdates remembers recently logged update ids. Telegram redelivers an
// update when the webhook answers slowly; the receipt is written once.
type seenUpdates struct {
	mu   sync.Mutex
	ids  map[int]time.Time
	last time.Time
}

var receipts = &seenUpdates{ids: make(map[int]time.Time)}

func (s *seenUpdates) first(id int, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Sub(s.last) > seenTTL {
		for k, at := range s.ids {
			if now.Sub(at) > seenTTL {
				delete(s.ids, k)
			}
		}
		s.last = now
	}
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = now
	return true
}

// LoggerMiddleware sets the rid and log context for the update and writes a
// sampled debug receipt.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		updateID, chatID, userID := tghelpers.Identify(c)
		rid := logger.BuildRID(updateID, chatID, userID)
		c.Set("rid", rid)

		ctx := logger.WithUpdateMeta(logger.WithRID(context.Background(), rid), updateID, userID, chatID)
		tghelpers.StoreContext(c, ctx)

		if logger.ShouldSampleDebug() && receipts.first(updateID, time.Now()) {
			logger.Debug(ctx, "tg", "update.received", receiptAttrs(c)...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok")}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if u := c.Sender(); u != nil {
		if u.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(u.Username, 64)))
		}
		if u.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", u.LanguageCode))
		}
	}
	upd := c.Update()
	switch {
	case upd.PollAnswer != nil:
		attrs = append(attrs,
			slog.String("poll_id", upd.PollAnswer.PollID),
			slog.Any("options", upd.PollAnswer.Options),
		)
	case upd.Message != nil:
		if t := c.Text(); t != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
		}
	}
	return attrs
}
