package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tg "github.com/m3rciful/quizbot/core/telegram"
	"github.com/m3rciful/quizbot/core/telegram/state"
	"github.com/m3rciful/quizbot/internal/users"

	tele "gopkg.in/telebot.v4"
)

const (
	adminID = int64(900)
	userID  = int64(42)
)

type botHarness struct {
	h      *Handlers
	quiz   *fakeQuiz
	users  *users.MemoryStore
	fsm    state.Manager
	routes map[any]tele.HandlerFunc
}

func newBotHarness(t *testing.T) *botHarness {
	t.Helper()
	b := &botHarness{
		quiz:   newFakeQuiz(),
		users:  users.NewMemoryStore(),
		fsm:    state.NewMemoryManager(),
		routes: make(map[any]tele.HandlerFunc),
	}
	b.h = NewHandlers(b.quiz, b.users, b.fsm, adminID)
	reg := tg.NewRegistry()
	b.h.Register(reg)
	for _, r := range b.h.Routes(reg) {
		b.routes[r.Endpoint] = r.Handler
	}
	return b
}

func (b *botHarness) text(t *testing.T, uid int64, text string) *fakeContext {
	t.Helper()
	c := newTextContext(uid, text)
	h, ok := b.routes[tele.OnText]
	require.True(t, ok)
	require.NoError(t, h(c))
	return c
}

func (b *botHarness) command(t *testing.T, cmd string, uid int64) *fakeContext {
	t.Helper()
	c := newTextContext(uid, cmd)
	h, ok := b.routes[cmd]
	require.True(t, ok, "route %s", cmd)
	require.NoError(t, h(c))
	return c
}

func (b *botHarness) register(t *testing.T, uid int64, name string) {
	t.Helper()
	_, err := b.users.Create(context.Background(), uid, name, "Haryana")
	require.NoError(t, err)
}

func TestStartOnboardsUnknownUser(t *testing.T) {
	b := newBotHarness(t)

	c := b.command(t, "/start", userID)

	assert.Equal(t, []string{msgWelcome}, c.texts())
	assert.Equal(t, StateAskName, b.fsm.Current(userID))
	assert.Empty(t, b.quiz.started)
}

func TestStartGreetsKnownUser(t *testing.T) {
	b := newBotHarness(t)
	b.register(t, userID, "Asha_Devi")

	c := b.command(t, "/start", userID)

	require.Len(t, c.sent, 1)
	assert.Equal(t, `👋 Welcome back *Asha\_Devi*!`, c.sent[0].text())
	assert.Equal(t, tele.ModeMarkdown, c.sent[0].parseMode())
	assert.False(t, b.fsm.InProgress(userID))
}

func TestOnboardingCompletesAndStartsQuiz(t *testing.T) {
	b := newBotHarness(t)
	b.command(t, "/start", userID)

	c := b.text(t, userID, "  Asha  ")
	assert.Equal(t, []string{msgAskState}, c.texts())
	assert.Equal(t, StateAskState, b.fsm.Current(userID))

	c = b.text(t, userID, ButtonStart)
	assert.Equal(t, []string{msgAskState}, c.texts(), "button labels are not a region")
	assert.Empty(t, b.quiz.started)

	c = b.text(t, userID, "Haryana")
	assert.Equal(t, []string{msgRegistered, msgStarted}, c.texts())
	assert.Equal(t, []int64{userID}, b.quiz.started)
	assert.False(t, b.fsm.InProgress(userID))

	u, err := b.users.FindByTelegramID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", u.Name)
	assert.Equal(t, "Haryana", u.Region)
}

func TestOnboardingRejectsButtonAsName(t *testing.T) {
	b := newBotHarness(t)
	b.command(t, "/start", userID)

	c := b.text(t, userID, ButtonStop)

	assert.Equal(t, []string{msgWelcome}, c.texts())
	assert.Equal(t, StateAskName, b.fsm.Current(userID))
	assert.Empty(t, b.quiz.stopped)
}

func TestStartButton(t *testing.T) {
	b := newBotHarness(t)
	b.register(t, userID, "Ravi")

	c := b.text(t, userID, ButtonStart)
	assert.Equal(t, []string{msgStarted}, c.texts())

	c = b.text(t, userID, ButtonStart)
	assert.Equal(t, []string{msgAlreadyRunning}, c.texts())
	assert.Equal(t, []int64{userID}, b.quiz.started)
}

func TestStartButtonOnboardsUnregistered(t *testing.T) {
	b := newBotHarness(t)

	c := b.text(t, userID, ButtonStart)

	assert.Equal(t, []string{msgWelcome}, c.texts())
	assert.Equal(t, StateAskName, b.fsm.Current(userID))
	assert.Empty(t, b.quiz.started)
}

func TestStartFailureIsReported(t *testing.T) {
	b := newBotHarness(t)
	b.register(t, userID, "Ravi")
	b.quiz.startErr = errors.New("closed")

	c := newTextContext(userID, "/quiz")
	err := b.routes["/quiz"](c)

	assert.Error(t, err)
	assert.Equal(t, []string{msgStartFailed}, c.texts())
}

func TestStopButton(t *testing.T) {
	b := newBotHarness(t)
	b.register(t, userID, "Ravi")
	b.text(t, userID, ButtonStart)

	c := b.text(t, userID, ButtonStop)

	assert.Equal(t, []string{msgStopped}, c.texts())
	assert.Equal(t, []int64{userID}, b.quiz.stopped)
	assert.False(t, b.quiz.active[userID])
}

func TestPollAnswerRoutesToVoter(t *testing.T) {
	b := newBotHarness(t)

	c := newPollAnswerContext(userID, "poll-7")
	require.NoError(t, b.routes[tele.OnPollAnswer](c))

	assert.Equal(t, []string{"poll-7"}, b.quiz.answers)
	assert.Empty(t, c.sent)
}

func TestUsersCommandIsAdminOnly(t *testing.T) {
	b := newBotHarness(t)
	b.register(t, userID, "Ravi")

	c := b.command(t, "/users", userID)
	assert.Equal(t, []string{msgUnauthorized}, c.texts())

	c = b.text(t, userID, "admin")
	assert.Equal(t, []string{msgUnauthorized}, c.texts(), "aliases keep the admin guard")

	c = b.command(t, "/users", adminID)
	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0].text(), "Registered Users (1)")
	assert.Contains(t, c.sent[0].text(), "`42`")
	assert.Equal(t, tele.ModeMarkdown, c.sent[0].parseMode())
}

func TestUnknownTextGetsKeyboardHint(t *testing.T) {
	b := newBotHarness(t)

	c := b.text(t, userID, "hello there")

	require.Len(t, c.sent, 1)
	assert.Equal(t, msgUseKeyboard, c.sent[0].text())
}

func TestRenderUsers(t *testing.T) {
	assert.Equal(t, []string{msgNoUsers}, renderUsers(nil, time.UTC))

	joined := time.Date(2026, 3, 4, 5, 6, 0, 0, time.UTC)
	list := make([]users.User, 0, 60)
	for i := 0; i < 60; i++ {
		list = append(list, users.User{
			ID: int64(i + 1), TelegramID: int64(1000 + i),
			Name: "Name [x]", Region: "", CreatedAt: joined,
		})
	}

	chunks := renderUsers(list, time.UTC)
	require.Greater(t, len(chunks), 1)
	assert.Contains(t, chunks[0], "Registered Users (60)")
	assert.Contains(t, chunks[0], `Name \[x]`)
	assert.Contains(t, chunks[0], "🌐 State: —")
	assert.Contains(t, chunks[0], "04 Mar 2026 05:06 UTC")
	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch), maxMessageLen)
	}
	assert.Contains(t, chunks[len(chunks)-1], "*User 60*")
}
