// Package netutil classifies failures of Telegram API calls.
package netutil

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/url"
	"regexp"
	"time"

	tele "gopkg.in/telebot.v4"
)

// Kind buckets an error for logs and retry decisions.
type Kind string

const (
	KindNone     Kind = ""
	KindTimeout  Kind = "timeout"
	KindCanceled Kind = "canceled"
	KindDNS      Kind = "dns"
	KindDial     Kind = "dial"
	KindTLS      Kind = "tls"
	KindFlood    Kind = "flood"
	KindHTTP4xx  Kind = "http_4xx"
	KindHTTP5xx  Kind = "http_5xx"
	KindUnknown  Kind = "unknown"
)

// Classify maps err to a Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var flood tele.FloodError
	if errors.As(err, &flood) {
		return KindFlood
	}
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		return httpKind(apiErr.Code)
	}
	var groupErr tele.GroupError
	if errors.As(err, &groupErr) {
		return KindHTTP4xx
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return KindTimeout
		}
		return KindDNS
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return KindDial
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return KindTimeout
	}
	var alert tls.AlertError
	if errors.As(err, &alert) {
		return KindTLS
	}
	return KindUnknown
}

func httpKind(code int) Kind {
	switch {
	case code == 429:
		return KindFlood
	case code >= 500:
		return KindHTTP5xx
	case code >= 400:
		return KindHTTP4xx
	}
	return KindUnknown
}

// Retryable reports whether repeating the call may succeed: timeouts,
// connection failures, flood waits and server errors.
func Retryable(err error) bool {
	switch Classify(err) {
	case KindTimeout, KindDNS, KindDial, KindFlood, KindHTTP5xx:
		return true
	}
	return false
}

// RetryAfter returns the wait Telegram asked for on a flood error, or zero.
func RetryAfter(err error) time.Duration {
	var flood tele.FloodError
	if errors.As(err, &flood) && flood.RetryAfter > 0 {
		return time.Duration(flood.RetryAfter) * time.Second
	}
	return 0
}

var tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)

// Redact hides bot tokens that net/http embeds in request URLs.
func Redact(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}
