// Package commands describes bot commands as the registry stores them.
package commands

import tele "gopkg.in/telebot.v4"

// Command is one /command. Aliases and the Button label reach the same
// handler through plain text.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	Aliases     []string
	Button      string
	// AdminOnly commands are guarded by middleware.AdminOnlyMiddleware.
	AdminOnly bool
	Hidden    bool
}

// InMenu reports whether the command belongs in the Telegram command menu.
func (c Command) InMenu() bool {
	return !c.Hidden && !c.AdminOnly
}
