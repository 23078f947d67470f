// Package format escapes user supplied text for Telegram parse modes.
package format

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

var (
	markdownV1 = strings.NewReplacer(`_`, `\_`, `*`, `\*`, "`", "\\`", `[`, `\[`)
	markdownV2 = func() *strings.Replacer {
		const specials = "\\_*[]()~`>#+-=|{}.!"
		pairs := make([]string, 0, 2*len(specials))
		for _, r := range specials {
			pairs = append(pairs, string(r), `\`+string(r))
		}
		return strings.NewReplacer(pairs...)
	}()
)

// Escape makes text literal under mode. Modes without escaping rules,
// HTML included, return text unchanged.
func Escape(mode tele.ParseMode, text string) string {
	switch mode {
	case tele.ModeMarkdown:
		return markdownV1.Replace(text)
	case tele.ModeMarkdownV2:
		return markdownV2.Replace(text)
	}
	return text
}
