package telegram

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// Registry holds the bot commands, the text spellings that reach them and
// the fallback for any other text.
type Registry struct {
	commands map[string]commands.Command
	// spellings maps button labels and aliases to a command name.
	spellings    map[string]string
	textFallback tele.HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		spellings: make(map[string]string),
	}
}

// RegisterCommand adds cmd under name, which must start with a slash.
// Invalid and duplicate registrations are logged and ignored.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) {
	skip := func(reason string) {
		logger.Warn(logger.Background(), "tg.wire", "command.skip",
			slog.String("name", name),
			slog.String("cause", reason),
		)
	}
	switch {
	case !strings.HasPrefix(name, "/") || len(name) < 2:
		skip("no_slash_prefix")
		return
	case cmd.Handler == nil || cmd.Description == "":
		skip("invalid")
		return
	}
	if _, dup := r.commands[name]; dup {
		skip("duplicate")
		return
	}
	r.commands[name] = cmd

	if cmd.Button != "" {
		r.spell(cmd.Button, name)
	}
	for _, alias := range cmd.Aliases {
		alias = strings.TrimPrefix(strings.TrimSpace(alias), "/")
		if alias != "" {
			r.spell("/"+alias, name)
			r.spell(alias, name)
		}
	}
}

func (r *Registry) spell(text, name string) {
	if owner, taken := r.spellings[text]; taken && owner != name {
		logger.Warn(logger.Background(), "tg.wire", "command.spelling.taken",
			slog.String("name", name),
			slog.String("text", text),
			slog.String("owner", owner),
		)
		return
	}
	r.spellings[text] = name
}

// Names returns the registered command names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Command returns the command registered under name.
func (r *Registry) Command(name string) (commands.Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// LookupCommand resolves text typed by a user: a button label, a command
// with or without its slash, or an alias. It returns the command name.
func (r *Registry) LookupCommand(text string) (string, commands.Command, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", commands.Command{}, false
	}
	name, ok := r.spellings[text]
	if !ok {
		name = "/" + strings.TrimPrefix(text, "/")
	}
	cmd, ok := r.commands[name]
	if !ok {
		return "", commands.Command{}, false
	}
	return name, cmd, true
}

// MenuCommands lists the commands shown in the Telegram menu.
func (r *Registry) MenuCommands() []tele.Command {
	var list []tele.Command
	for _, name := range r.Names() {
		if cmd := r.commands[name]; cmd.InMenu() {
			list = append(list, tele.Command{Text: name, Description: cmd.Description})
		}
	}
	return list
}

func (r *Registry) SetTextFallback(h tele.HandlerFunc) { r.textFallback = h }

func (r *Registry) TextFallback() tele.HandlerFunc { return r.textFallback }

// InitBotCommands publishes MenuCommands through setMyCommands.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	if bot == nil || reg == nil {
		return
	}
	menu := reg.MenuCommands()
	if err := bot.SetCommands(menu); err != nil {
		logger.Error(logger.Background(), "tg.wire", "commands.publish",
			slog.Int("count", len(menu)),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.Debug(logger.Background(), "tg.wire", "commands.publish", slog.Int("count", len(menu)))
}
