package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/quizbot/core/telegram/sender"
	"github.com/m3rciful/quizbot/internal/quiz"

	tele "gopkg.in/telebot.v4"
)

func TestTransportSendPoll(t *testing.T) {
	api := &fakeAPI{}
	tr := NewTransport(api, nil)

	ref, err := tr.SendPoll(context.Background(), 5, quiz.Poll{
		Question: "🧠 " + strings.Repeat("प", 400),
		Options:  []string{"a", "b", strings.Repeat("c", 150), "d"},
		Correct:  2,
		Reveal:   "✅ सही उत्तर: c",
	})
	require.NoError(t, err)
	assert.Equal(t, quiz.PollRef{PollID: "poll-1", MessageID: 1}, ref)

	require.Len(t, api.sent, 1)
	poll, ok := api.sent[0].(*tele.Poll)
	require.True(t, ok)
	assert.Equal(t, tele.PollQuiz, poll.Type)
	assert.Equal(t, 2, poll.CorrectOption)
	assert.False(t, poll.Anonymous)
	assert.Equal(t, "✅ सही उत्तर: c", poll.Explanation)
	assert.Equal(t, maxPollQuestion, utf8.RuneCountInString(poll.Question))
	require.Len(t, poll.Options, 4)
	assert.Equal(t, maxPollOption, utf8.RuneCountInString(poll.Options[2].Text))
	assert.True(t, strings.HasSuffix(poll.Options[2].Text, "…"))
}

func TestTransportSendPollErrors(t *testing.T) {
	api := &fakeAPI{sendErr: errors.New("telegram: bad request (400)")}
	tr := NewTransport(api, nil)
	_, err := tr.SendPoll(context.Background(), 5, quiz.Poll{Question: "q", Options: []string{"a", "b", "c", "d"}})
	assert.ErrorIs(t, err, api.sendErr)

	tr = NewTransport(&fakeAPI{noPoll: true}, nil)
	_, err = tr.SendPoll(context.Background(), 5, quiz.Poll{Question: "q", Options: []string{"a", "b", "c", "d"}})
	assert.Error(t, err)
}

func TestTransportTextEditDelete(t *testing.T) {
	api := &fakeAPI{}
	tr := NewTransport(api, nil)
	ctx := context.Background()

	id, err := tr.SendText(ctx, 5, "⏳ 5")
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	require.NoError(t, tr.EditText(ctx, 5, id, "⏳ 4"))
	require.NoError(t, tr.Delete(ctx, 5, id))

	assert.Equal(t, []string{"⏳ 4"}, api.edits)
	assert.Equal(t, []tele.StoredMessage{{MessageID: "1", ChatID: 5}}, api.deletes)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab…", truncate("abcd", 3))
	assert.Equal(t, "नई…", truncate("नईदिल्ली", 3))
}

func TestTransportBind(t *testing.T) {
	tr := NewTransport(nil, nil)
	_, err := tr.SendText(context.Background(), 5, "hi")
	assert.ErrorIs(t, err, ErrNotBound)
	assert.ErrorIs(t, tr.Delete(context.Background(), 5, 1), ErrNotBound)

	api := &fakeAPI{}
	queue := sender.NewDispatcher(sender.Options{Workers: 1})
	tr.Bind(api, queue)

	require.NoError(t, tr.Delete(context.Background(), 5, 9))
	queue.Close()

	assert.Equal(t, []tele.StoredMessage{{MessageID: "9", ChatID: 5}}, api.deletes)
}
