package bot

import (
	"context"
	"sync"

	"github.com/m3rciful/quizbot/internal/quiz"

	tele "gopkg.in/telebot.v4"
)

type sent struct {
	what interface{}
	opts []interface{}
}

func (s sent) text() string {
	t, _ := s.what.(string)
	return t
}

func (s sent) parseMode() tele.ParseMode {
	for _, o := range s.opts {
		if so, ok := o.(*tele.SendOptions); ok && so != nil {
			return so.ParseMode
		}
	}
	return tele.ModeDefault
}

// fakeContext implements the parts of tele.Context the handlers touch.
// Anything else panics through the nil embedded interface.
type fakeContext struct {
	tele.Context

	update tele.Update
	sender *tele.User
	chat   *tele.Chat
	text   string
	values map[string]interface{}
	sent   []sent
}

func newTextContext(userID int64, text string) *fakeContext {
	u := &tele.User{ID: userID, FirstName: "t"}
	ch := &tele.Chat{ID: userID, Type: tele.ChatPrivate}
	return &fakeContext{
		update: tele.Update{ID: 1, Message: &tele.Message{ID: 1, Sender: u, Chat: ch, Text: text}},
		sender: u,
		chat:   ch,
		text:   text,
		values: make(map[string]interface{}),
	}
}

func newPollAnswerContext(userID int64, pollID string) *fakeContext {
	u := &tele.User{ID: userID}
	return &fakeContext{
		update: tele.Update{ID: 2, PollAnswer: &tele.PollAnswer{PollID: pollID, Sender: u, Options: []int{1}}},
		sender: u,
		values: make(map[string]interface{}),
	}
}

func (c *fakeContext) Update() tele.Update          { return c.update }
func (c *fakeContext) Sender() *tele.User           { return c.sender }
func (c *fakeContext) Chat() *tele.Chat             { return c.chat }
func (c *fakeContext) Text() string                 { return c.text }
func (c *fakeContext) PollAnswer() *tele.PollAnswer { return c.update.PollAnswer }
func (c *fakeContext) Get(key string) interface{}   { return c.values[key] }
func (c *fakeContext) Set(key string, v interface{}) {
	c.values[key] = v
}

func (c *fakeContext) Send(what interface{}, opts ...interface{}) error {
	c.sent = append(c.sent, sent{what: what, opts: opts})
	return nil
}

func (c *fakeContext) texts() []string {
	out := make([]string, 0, len(c.sent))
	for _, s := range c.sent {
		out = append(out, s.text())
	}
	return out
}

type fakeQuiz struct {
	mu       sync.Mutex
	active   map[int64]bool
	started  []int64
	stopped  []int64
	answers  []string
	startErr error
}

func newFakeQuiz() *fakeQuiz {
	return &fakeQuiz{active: make(map[int64]bool)}
}

func (q *fakeQuiz) Start(_ context.Context, chatID int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.startErr != nil {
		return q.startErr
	}
	if q.active[chatID] {
		return quiz.ErrAlreadyRunning
	}
	q.active[chatID] = true
	q.started = append(q.started, chatID)
	return nil
}

func (q *fakeQuiz) Stop(_ context.Context, chatID int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	was := q.active[chatID]
	q.active[chatID] = false
	q.stopped = append(q.stopped, chatID)
	return was
}

func (q *fakeQuiz) OnAnswer(_ context.Context, chatID int64, pollID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.answers = append(q.answers, pollID)
	return q.active[chatID]
}

// fakeAPI records Telegram calls made by the transport.
type fakeAPI struct {
	mu      sync.Mutex
	nextID  int
	sent    []interface{}
	edits   []string
	deletes []tele.StoredMessage
	sendErr error
	noPoll  bool
}

func (a *fakeAPI) Send(_ tele.Recipient, what interface{}, _ ...interface{}) (*tele.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sendErr != nil {
		return nil, a.sendErr
	}
	a.nextID++
	a.sent = append(a.sent, what)
	msg := &tele.Message{ID: a.nextID}
	if p, ok := what.(*tele.Poll); ok && !a.noPoll {
		cp := *p
		cp.ID = "poll-1"
		msg.Poll = &cp
	}
	return msg, nil
}

func (a *fakeAPI) Edit(_ tele.Editable, what interface{}, _ ...interface{}) (*tele.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.edits = append(a.edits, what.(string))
	return &tele.Message{}, nil
}

func (a *fakeAPI) Delete(msg tele.Editable) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deletes = append(a.deletes, msg.(tele.StoredMessage))
	return nil
}
