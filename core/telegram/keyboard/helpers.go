package keyboard

import tele "gopkg.in/telebot.v4"

// ReplyButtons builds a resized reply keyboard from rows of text.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	keyboard := make([]tele.Row, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tele.Btn, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, markup.Text(label))
		}
		keyboard = append(keyboard, markup.Row(buttons...))
	}
	markup.Reply(keyboard...)
	return markup
}

// PersistentReply is ReplyButtons kept visible between messages, with an
// input placeholder.
func PersistentReply(placeholder string, rows ...[]string) *tele.ReplyMarkup {
	markup := ReplyButtons(rows...)
	markup.IsPersistent = true
	markup.Placeholder = placeholder
	return markup
}
