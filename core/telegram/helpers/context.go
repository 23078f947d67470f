package helpers

import (
	"context"

	"github.com/m3rciful/quizbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const ctxKey = "log_ctx"

// StoreContext keeps ctx on c for later BuildContext calls.
func StoreContext(c tele.Context, ctx context.Context) {
	if c != nil && ctx != nil {
		c.Set(ctxKey, ctx)
	}
}

// BuildContext returns the context stored on c, or builds one carrying the
// rid and update, user and chat ids.
func BuildContext(c tele.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if ctx, ok := c.Get(ctxKey).(context.Context); ok {
		return ctx
	}

	updateID, chatID, userID := Identify(c)
	rid, _ := c.Get("rid").(string)
	if rid == "" {
		rid = logger.BuildRID(updateID, chatID, userID)
	}
	ctx := logger.WithUpdateMeta(logger.WithRID(context.Background(), rid), updateID, userID, chatID)
	StoreContext(c, ctx)
	return ctx
}

// WithHandler records the serving handler on the stored context.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := logger.WithHandler(BuildContext(c), handler)
	StoreContext(c, ctx)
	return ctx
}

// Identify returns the update id plus chat and sender ids, zero when absent.
// Poll answers carry no chat; the voter id stands in for it.
func Identify(c tele.Context) (updateID int, chatID, userID int64) {
	updateID = c.Update().ID
	if u := c.Sender(); u != nil {
		userID = u.ID
	}
	if ch := c.Chat(); ch != nil {
		chatID = ch.ID
	} else if c.Update().PollAnswer != nil {
		chatID = userID
	}
	return updateID, chatID, userID
}
