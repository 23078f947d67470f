package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/quizbot/core/config"

	tele "gopkg.in/telebot.v4"
)

func offlineBot(t *testing.T) *tele.Bot {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Token: "1:test", Offline: true})
	require.NoError(t, err)
	return b
}

func textUpdate(id int, userID int64, text string) tele.Update {
	user := &tele.User{ID: userID}
	return tele.Update{ID: id, Message: &tele.Message{
		Text:   text,
		Sender: user,
		Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
	}}
}

func pollAnswer(id int, userID int64) tele.Update {
	return tele.Update{ID: id, PollAnswer: &tele.PollAnswer{PollID: "p", Sender: &tele.User{ID: userID}, Options: []int{1}}}
}

func TestUpdateKind(t *testing.T) {
	assert.Equal(t, coreconfig.UpdateCommand, UpdateKind(textUpdate(1, 1, "/quiz")))
	assert.Equal(t, coreconfig.UpdateMessage, UpdateKind(textUpdate(1, 1, "Quiz")))
	assert.Equal(t, coreconfig.UpdatePollAnswer, UpdateKind(pollAnswer(1, 1)))
	assert.Equal(t, "other", UpdateKind(tele.Update{ID: 1}))
}

func TestRateLimitMiddleware(t *testing.T) {
	b := offlineBot(t)
	calls := 0
	h := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Hour,
		Exclude:  map[string]struct{}{coreconfig.UpdatePollAnswer: {}},
	})(func(tele.Context) error {
		calls++
		return nil
	})

	before := Traffic().Limited
	require.NoError(t, h(b.NewContext(textUpdate(1, 42, "/quiz"))))
	require.NoError(t, h(b.NewContext(textUpdate(2, 42, "/stop"))))
	require.NoError(t, h(b.NewContext(pollAnswer(3, 42))))
	require.NoError(t, h(b.NewContext(textUpdate(4, 43, "hello"))))

	assert.Equal(t, 3, calls, "second command of user 42 is dropped")
	assert.Equal(t, before+1, Traffic().Limited)
}

func TestRateLimitOnLimited(t *testing.T) {
	b := offlineBot(t)
	errSlow := errors.New("slow down")
	h := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Hour,
		OnLimited: func(tele.Context) error { return errSlow },
	})(func(tele.Context) error { return nil })

	require.NoError(t, h(b.NewContext(textUpdate(1, 7, "a"))))
	assert.ErrorIs(t, h(b.NewContext(textUpdate(2, 7, "b"))), errSlow)
}

func TestLimitersSweep(t *testing.T) {
	l := newLimiters(time.Second)
	now := time.Now()
	assert.True(t, l.allow(1, now))
	assert.False(t, l.allow(1, now.Add(100*time.Millisecond)))
	assert.True(t, l.allow(1, now.Add(time.Second+time.Millisecond)))

	later := now.Add(2 * time.Hour)
	assert.True(t, l.allow(2, later))
	assert.NotContains(t, l.users, int64(1))
}

func TestRecoverMiddleware(t *testing.T) {
	b := offlineBot(t)
	before := Traffic().Panics
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })

	assert.NotPanics(t, func() { _ = h(b.NewContext(textUpdate(1, 5, "x"))) })
	assert.Equal(t, before+1, Traffic().Panics)
}

func TestAdminOnlyMiddleware(t *testing.T) {
	b := offlineBot(t)
	rejected := 0
	h := AdminOnlyMiddleware(AdminOptions{
		AdminID:  900,
		OnReject: func(tele.Context) error { rejected++; return nil },
	})(func(tele.Context) error { return errors.New("ran") })

	assert.EqualError(t, h(b.NewContext(textUpdate(1, 900, "/users"))), "ran")
	assert.NoError(t, h(b.NewContext(textUpdate(2, 901, "/users"))))
	assert.Equal(t, 1, rejected)
	assert.False(t, AdminOptions{}.Allowed(&tele.User{ID: 0}))
}

func TestMessageMetricsCountsUpdates(t *testing.T) {
	b := offlineBot(t)
	before := Traffic().Updates
	var sent int
	var kb bool
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		sent, kb = GetCounters(c)
		return nil
	})
	require.NoError(t, h(b.NewContext(textUpdate(1, 5, "x"))))
	assert.Equal(t, before+1, Traffic().Updates)
	assert.Zero(t, sent)
	assert.False(t, kb)
}
