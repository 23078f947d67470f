package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/core/telegram/sender"
	"github.com/m3rciful/quizbot/internal/quiz"

	tele "gopkg.in/telebot.v4"
)

// Telegram limits for quiz polls, in characters.
const (
	maxPollQuestion    = 300
	maxPollOption      = 100
	maxPollExplanation = 200
)

// API is the part of *tele.Bot the transport calls.
type API interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
	Delete(msg tele.Editable) error
}

// ErrNotBound is returned by a Transport used before Bind.
var ErrNotBound = errors.New("telegram transport not bound")

// Transport posts quiz traffic through Telegram. Sends are synchronous so
// the engine learns message and poll ids; edits and deletes are best-effort
// and go through the outbound dispatcher when one is set.
type Transport struct {
	mu     sync.RWMutex
	api    API
	queue  *sender.Dispatcher
	markup *tele.ReplyMarkup
}

var _ quiz.Transport = (*Transport)(nil)

// NewTransport wraps api. Both arguments may be nil and supplied later
// through Bind, once the bot exists.
func NewTransport(api API, queue *sender.Dispatcher) *Transport {
	return &Transport{api: api, queue: queue, markup: Keyboard()}
}

// Bind sets the bot and dispatcher.
func (t *Transport) Bind(api API, queue *sender.Dispatcher) {
	t.mu.Lock()
	t.api, t.queue = api, queue
	t.mu.Unlock()
}

func (t *Transport) bound() (API, *sender.Dispatcher, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.api == nil {
		return nil, nil, ErrNotBound
	}
	return t.api, t.queue, nil
}

func (t *Transport) SendText(_ context.Context, chatID int64, text string) (int, error) {
	api, _, err := t.bound()
	if err != nil {
		return 0, err
	}
	msg, err := api.Send(tele.ChatID(chatID), text, &tele.SendOptions{ReplyMarkup: t.markup})
	if err != nil {
		return 0, fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return msg.ID, nil
}

func (t *Transport) SendPoll(_ context.Context, chatID int64, p quiz.Poll) (quiz.PollRef, error) {
	api, _, err := t.bound()
	if err != nil {
		return quiz.PollRef{}, err
	}
	poll := &tele.Poll{
		Type:          tele.PollQuiz,
		Question:      truncate(p.Question, maxPollQuestion),
		CorrectOption: p.Correct,
		Explanation:   truncate(p.Reveal, maxPollExplanation),
		Anonymous:     p.Anonymous,
	}
	for _, opt := range p.Options {
		poll.Options = append(poll.Options, tele.PollOption{Text: truncate(opt, maxPollOption)})
	}

	msg, err := api.Send(tele.ChatID(chatID), poll, &tele.SendOptions{ReplyMarkup: t.markup})
	if err != nil {
		return quiz.PollRef{}, fmt.Errorf("send poll to %d: %w", chatID, err)
	}
	if msg == nil || msg.Poll == nil || msg.Poll.ID == "" {
		return quiz.PollRef{}, errors.New("send poll: response carries no poll")
	}
	return quiz.PollRef{PollID: msg.Poll.ID, MessageID: msg.ID}, nil
}

func (t *Transport) EditText(ctx context.Context, chatID int64, messageID int, text string) error {
	api, queue, err := t.bound()
	if err != nil {
		return err
	}
	ref := stored(chatID, messageID)
	// countdown ticks on one message collapse while they wait in the queue
	key := fmt.Sprintf("edit:%d:%d", chatID, messageID)
	return enqueue(ctx, queue, key, "edit.text", "editMessageText", func() error {
		_, err := api.Edit(ref, text)
		return err
	})
}

func (t *Transport) Delete(ctx context.Context, chatID int64, messageID int) error {
	api, queue, err := t.bound()
	if err != nil {
		return err
	}
	ref := stored(chatID, messageID)
	return enqueue(ctx, queue, "", "delete", "deleteMessage", func() error {
		return api.Delete(ref)
	})
}

// enqueue hands run to the dispatcher and falls back to a direct call when
// there is none or it refuses the job.
func enqueue(ctx context.Context, queue *sender.Dispatcher, key, action, endpoint string, run func() error) error {
	if queue == nil {
		return run()
	}
	err := queue.EnqueueKeyed(ctx, key, action, endpoint, run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("endpoint", endpoint),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

func stored(chatID int64, messageID int) tele.StoredMessage {
	return tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID}
}

// truncate cuts s to max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
