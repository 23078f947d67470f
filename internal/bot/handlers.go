// Package bot maps Telegram updates onto the quiz engine and the user store.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/quizbot/core/logger"
	tg "github.com/m3rciful/quizbot/core/telegram"
	"github.com/m3rciful/quizbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/quizbot/core/telegram/helpers"
	"github.com/m3rciful/quizbot/core/telegram/middleware"
	"github.com/m3rciful/quizbot/core/telegram/router"
	"github.com/m3rciful/quizbot/core/telegram/state"
	"github.com/m3rciful/quizbot/internal/quiz"
	"github.com/m3rciful/quizbot/internal/users"

	tele "gopkg.in/telebot.v4"
)

// Onboarding steps.
const (
	StateAskName  state.State = "ask_name"
	StateAskState state.State = "ask_state"

	tempName = "name"
)

// Quiz is the engine surface the handlers drive.
type Quiz interface {
	Start(ctx context.Context, chatID int64) error
	Stop(ctx context.Context, chatID int64) bool
	OnAnswer(ctx context.Context, chatID int64, pollID string) bool
}

// Handlers holds the bot's update handlers.
type Handlers struct {
	quiz    Quiz
	users   users.Store
	fsm     state.Manager
	adminID int64
	loc     *time.Location
}

// NewHandlers wires handlers to their collaborators. A nil fsm gets an
// in-memory manager.
func NewHandlers(q Quiz, store users.Store, fsm state.Manager, adminID int64) *Handlers {
	if fsm == nil {
		fsm = state.NewMemoryManager()
	}
	return &Handlers{quiz: q, users: store, fsm: fsm, adminID: adminID, loc: time.Local}
}

// Register adds commands, the text fallback and onboarding steps.
func (h *Handlers) Register(reg *tg.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.Start,
		Description: "Register or say hello",
	})
	reg.RegisterCommand("/quiz", commands.Command{
		Handler:     h.StartQuiz,
		Description: "Start the quiz",
		Button:      ButtonStart,
	})
	reg.RegisterCommand("/stop", commands.Command{
		Handler:     h.StopQuiz,
		Description: "Stop the quiz",
		Button:      ButtonStop,
	})
	reg.RegisterCommand("/users", commands.Command{
		Handler:     h.ListUsers,
		Description: "List registered users",
		AdminOnly:   true,
		Aliases:     []string{"admin"},
	})
	reg.SetTextFallback(h.Fallback)

	h.fsm.Handle(StateAskName, h.askName)
	h.fsm.Handle(StateAskState, h.askState)
}

// Routes builds every bot route from reg.
func (h *Handlers) Routes(reg *tg.Registry) []tg.Route {
	return router.Build(reg, router.Options{
		Admin:      middleware.AdminOptions{AdminID: h.adminID, OnReject: h.Unauthorized},
		FSM:        h.fsm,
		PollAnswer: h.PollAnswer,
	})
}

// Start greets known users and onboards new ones.
func (h *Handlers) Start(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	u, err := h.users.FindByTelegramID(ctx, c.Sender().ID)
	if errors.Is(err, users.ErrNotFound) {
		return h.beginOnboarding(c)
	}
	if err != nil {
		_ = h.reply(c, msgStoreFailed)
		return fmt.Errorf("start: %w", err)
	}
	return tghelpers.SendMD(c, fmt.Sprintf(msgWelcomeBack, md(u.Name)), Keyboard())
}

// StartQuiz starts the chat's session, onboarding unregistered users first.
func (h *Handlers) StartQuiz(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	_, err := h.users.FindByTelegramID(ctx, c.Sender().ID)
	if errors.Is(err, users.ErrNotFound) {
		return h.beginOnboarding(c)
	}
	if err != nil {
		_ = h.reply(c, msgStoreFailed)
		return fmt.Errorf("start quiz: %w", err)
	}
	return h.startQuiz(ctx, c)
}

func (h *Handlers) startQuiz(ctx context.Context, c tele.Context) error {
	err := h.quiz.Start(ctx, c.Chat().ID)
	switch {
	case errors.Is(err, quiz.ErrAlreadyRunning):
		return h.reply(c, msgAlreadyRunning)
	case err != nil:
		_ = h.reply(c, msgStartFailed)
		return fmt.Errorf("start quiz: %w", err)
	}
	return h.reply(c, msgStarted)
}

// StopQuiz stops the chat's session. Stopping an idle chat is not an error.
func (h *Handlers) StopQuiz(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	wasRunning := h.quiz.Stop(ctx, c.Chat().ID)
	logger.Debug(ctx, "tg", "quiz.stop", slog.Bool("was_running", wasRunning))
	return h.reply(c, msgStopped)
}

// PollAnswer forwards an answer to the voter's session.
func (h *Handlers) PollAnswer(c tele.Context, answer *tele.PollAnswer) error {
	ctx := tghelpers.BuildContext(c)
	h.quiz.OnAnswer(ctx, c.Sender().ID, answer.PollID)
	return nil
}

// ListUsers sends the registered users to the admin.
func (h *Handlers) ListUsers(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	list, err := h.users.List(ctx)
	if err != nil {
		_ = tghelpers.SendText(c, msgUsersFailed)
		return fmt.Errorf("list users: %w", err)
	}
	for _, chunk := range renderUsers(list, h.loc) {
		if err := tghelpers.SendMD(c, chunk); err != nil {
			return err
		}
	}
	return nil
}

// Unauthorized answers admin commands from everyone else.
func (h *Handlers) Unauthorized(c tele.Context) error {
	return tghelpers.SendText(c, msgUnauthorized)
}

// Fallback points users at the keyboard.
func (h *Handlers) Fallback(c tele.Context) error {
	return h.reply(c, msgUseKeyboard)
}

func (h *Handlers) beginOnboarding(c tele.Context) error {
	uid := c.Sender().ID
	h.fsm.Clear(uid)
	h.fsm.SetState(uid, StateAskName)
	return h.reply(c, msgWelcome)
}

func (h *Handlers) askName(c tele.Context) error {
	uid := c.Sender().ID
	if isButton(c.Text()) {
		return h.reply(c, msgWelcome)
	}
	name, err := users.CleanField("name", c.Text())
	if err != nil {
		return h.reply(c, msgInvalidInput)
	}
	h.fsm.SetTemp(uid, tempName, name)
	h.fsm.SetState(uid, StateAskState)
	return h.reply(c, msgAskState)
}

func (h *Handlers) askState(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	uid := c.Sender().ID
	if isButton(c.Text()) {
		return h.reply(c, msgAskState)
	}
	region, err := users.CleanField("region", c.Text())
	if err != nil {
		return h.reply(c, msgInvalidInput)
	}
	name, ok := h.fsm.GetTemp(uid, tempName)
	if !ok {
		return h.beginOnboarding(c)
	}

	if _, err := h.users.Create(ctx, uid, name, region); err != nil {
		_ = h.reply(c, msgStoreFailed)
		return fmt.Errorf("onboarding: %w", err)
	}
	h.fsm.Clear(uid)
	logger.Info(ctx, "tg", "onboarding.complete", slog.Int64("user_id", uid))

	if err := h.reply(c, msgRegistered); err != nil {
		return err
	}
	return h.startQuiz(ctx, c)
}

func (h *Handlers) reply(c tele.Context, text string) error {
	return tghelpers.SendText(c, text, &tele.SendOptions{ReplyMarkup: Keyboard()})
}
