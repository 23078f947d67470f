package telegram

import (
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/quizbot/core/telegram/netutil"
)

// HTTPOptions tunes the API client. Zero values get defaults.
type HTTPOptions struct {
	// LongPoll is the getUpdates timeout. Response deadlines are stretched
	// past it so an idle poll is not mistaken for a dead connection.
	LongPoll     time.Duration
	DialRetries  int
	RetryBackoff time.Duration
}

const pollMargin = 10 * time.Second

// NewHTTPClient returns the client handed to telebot.
func NewHTTPClient(opts HTTPOptions) *http.Client {
	if opts.LongPoll <= 0 {
		opts.LongPoll = defaultLongPollSeconds * time.Second
	}
	if opts.DialRetries <= 0 {
		opts.DialRetries = 2
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 500 * time.Millisecond
	}

	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: opts.LongPoll + pollMargin,
	}
	return &http.Client{
		Timeout: opts.LongPoll + 2*pollMargin,
		Transport: &dialRetry{
			base:    base,
			retries: opts.DialRetries,
			backoff: opts.RetryBackoff,
		},
	}
}

// dialRetry repeats a request only when the connection could not be
// established. Once bytes reached Telegram a retry could post a message twice.
type dialRetry struct {
	base    http.RoundTripper
	retries int
	backoff time.Duration
}

func (t *dialRetry) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	for attempt := 1; err != nil && attempt <= t.retries && unsent(err); attempt++ {
		next, cerr := rewind(req)
		if cerr != nil {
			return nil, err
		}
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(t.backoff * time.Duration(attempt)):
		}
		resp, err = t.base.RoundTrip(next)
	}
	return resp, err
}

func unsent(err error) bool {
	switch netutil.Classify(err) {
	case netutil.KindDial, netutil.KindDNS:
		return true
	}
	return false
}

func rewind(req *http.Request) (*http.Request, error) {
	next := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return next, nil
	}
	if req.GetBody == nil {
		return nil, http.ErrBodyReadAfterClose
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	next.Body = body
	return next, nil
}
