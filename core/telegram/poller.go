package telegram

import (
	"net"
	"strconv"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/quizbot/core/config"

	tele "gopkg.in/telebot.v4"
)

const defaultLongPollSeconds = 10

// AllowedUpdates are the update kinds requested from Telegram. Poll answers
// only arrive when listed.
var AllowedUpdates = []string{"message", "poll_answer"}

type WebhookOptions struct {
	Listen string
	Port   int
	URL    string
}

type PollerOptions struct {
	RunMode                string
	LongPollTimeoutSeconds int
	Webhook                WebhookOptions
	// AllowedUpdates overrides the package default when set.
	AllowedUpdates []string
}

// BuildPoller returns a webhook listener for run mode "webhook" and a long
// poller otherwise.
func BuildPoller(opts PollerOptions) tele.Poller {
	allowed := opts.AllowedUpdates
	if len(allowed) == 0 {
		allowed = AllowedUpdates
	}

	if strings.EqualFold(strings.TrimSpace(opts.RunMode), coreconfig.RunModeWebhook) {
		return &tele.Webhook{
			Listen:         net.JoinHostPort(opts.Webhook.Listen, strconv.Itoa(opts.Webhook.Port)),
			Endpoint:       &tele.WebhookEndpoint{PublicURL: opts.Webhook.URL},
			AllowedUpdates: allowed,
		}
	}

	sec := opts.LongPollTimeoutSeconds
	if sec <= 0 {
		sec = defaultLongPollSeconds
	}
	return &tele.LongPoller{
		Timeout:        time.Duration(sec) * time.Second,
		AllowedUpdates: allowed,
	}
}
