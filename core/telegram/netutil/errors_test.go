package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	tele "gopkg.in/telebot.v4"
)

// wrapped nests an error without formatting it; FloodError built in a test
// has no message to render.
type wrapped struct{ err error }

func (w wrapped) Error() string { return "wrapped" }
func (w wrapped) Unwrap() error { return w.err }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindNone},
		{"canceled", fmt.Errorf("send: %w", context.Canceled), KindCanceled},
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"flood", wrapped{tele.FloodError{RetryAfter: 3}}, KindFlood},
		{"server", tele.NewError(502, "Bad Gateway"), KindHTTP5xx},
		{"bad request", tele.NewError(400, "Bad Request: message is not modified"), KindHTTP4xx},
		{"dns", &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: &net.DNSError{Err: "no such host"}}, KindDNS},
		{"dial", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, KindDial},
		{"plain", errors.New("boom"), KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(tele.FloodError{RetryAfter: 1}))
	assert.True(t, Retryable(&net.OpError{Op: "dial", Err: errors.New("refused")}))
	assert.False(t, Retryable(tele.NewError(403, "Forbidden: bot was blocked by the user")))
	assert.False(t, Retryable(context.Canceled))
	assert.False(t, Retryable(nil))
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 7*time.Second, RetryAfter(wrapped{tele.FloodError{RetryAfter: 7}}))
	assert.Zero(t, RetryAfter(errors.New("boom")))
}

func TestRedact(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:AAH-x_y/sendPoll": timeout`)
	assert.Equal(t, `Post "https://api.telegram.org/bot<redacted>/sendPoll": timeout`, Redact(err))
	assert.Empty(t, Redact(nil))
}
