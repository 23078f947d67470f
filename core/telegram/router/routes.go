// Package router turns a command registry into telebot routes. Each route
// logs one handler.handled line; recover and request logging come from the
// bot wide middleware chain.
package router

import (
	"log/slog"

	"github.com/m3rciful/quizbot/core/logger"
	tg "github.com/m3rciful/quizbot/core/telegram"
	"github.com/m3rciful/quizbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// FSM is the dialog manager consulted before text is matched to commands.
type FSM interface {
	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

// PollAnswerFunc handles a vote on a poll the bot sent.
type PollAnswerFunc func(c tele.Context, answer *tele.PollAnswer) error

type Options struct {
	// Admin guards commands registered with AdminOnly, however they are reached.
	Admin       middleware.AdminOptions
	FSM         FSM
	UnknownText tele.HandlerFunc
	PollAnswer  PollAnswerFunc
}

// Build returns the command routes, the text route and, when set, the poll
// answer route.
func Build(reg *tg.Registry, opts Options) []tg.Route {
	routes := Commands(reg, opts.Admin)
	routes = append(routes, Text(reg, opts))
	if opts.PollAnswer != nil {
		routes = append(routes, PollAnswers(opts.PollAnswer))
	}
	logger.Info(logger.Background(), "tg.wire", "routes",
		slog.Int("count", len(routes)),
	)
	return routes
}

func guard(cmd tele.HandlerFunc, adminOnly bool, admin middleware.AdminOptions) tele.HandlerFunc {
	if adminOnly {
		return middleware.AdminOnlyMiddleware(admin)(cmd)
	}
	return cmd
}

// Commands maps every registered /command to its handler.
func Commands(reg *tg.Registry, admin middleware.AdminOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	names := reg.Names()
	routes := make([]tg.Route, 0, len(names))
	for _, name := range names {
		def, _ := reg.Command(name)
		h := guard(def.Handler, def.AdminOnly, admin)
		label := "command." + handlerName(name)
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler: func(c tele.Context) error {
				return summarize(c, label, func() error { return h(c) })
			},
		})
	}
	return routes
}

// Text routes plain text. An open dialog wins, then button labels and
// command aliases, then the registry fallback and finally opts.UnknownText.
func Text(reg *tg.Registry, opts Options) tg.Route {
	handle := func(c tele.Context) error {
		if u := c.Sender(); opts.FSM != nil && u != nil && opts.FSM.InProgress(u.ID) {
			return summarize(c, "fsm", func() error { return opts.FSM.ManagerHandler(c) })
		}
		if reg != nil {
			if name, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
				h := guard(cmd.Handler, cmd.AdminOnly, opts.Admin)
				return summarize(c, handlerName(name), func() error { return h(c) })
			}
			if fb := reg.TextFallback(); fb != nil {
				return summarize(c, "fallback", func() error { return fb(c) })
			}
		}
		if opts.UnknownText != nil {
			return summarize(c, "unknown_text", func() error { return opts.UnknownText(c) })
		}
		skipped(c, "unknown_text", "unhandled")
		return nil
	}
	return tg.Route{Endpoint: tele.OnText, Handler: handle}
}

// PollAnswers routes votes. Retracted votes and answers without a voter
// are skipped.
func PollAnswers(h PollAnswerFunc) tg.Route {
	return tg.Route{
		Endpoint: tele.OnPollAnswer,
		Handler: func(c tele.Context) error {
			answer := c.PollAnswer()
			switch {
			case answer == nil || c.Sender() == nil:
				skipped(c, "poll_answer", "no_voter")
				return nil
			case len(answer.Options) == 0:
				skipped(c, "poll_answer", "retracted", slog.String("poll_id", answer.PollID))
				return nil
			}
			return summarize(c, "poll_answer", func() error { return h(c, answer) },
				slog.String("poll_id", answer.PollID))
		},
	}
}
