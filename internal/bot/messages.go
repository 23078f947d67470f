package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/m3rciful/quizbot/core/telegram/format"
	"github.com/m3rciful/quizbot/core/telegram/keyboard"
	"github.com/m3rciful/quizbot/internal/users"

	tele "gopkg.in/telebot.v4"
)

// Reply keyboard labels. They route to /quiz and /stop.
const (
	ButtonStart = "▶️ Start Quiz"
	ButtonStop  = "⏹ Stop Quiz"

	keyboardPlaceholder = "Start or Stop Quiz"
)

const (
	msgWelcomeBack    = "👋 Welcome back *%s*!"
	msgWelcome        = "👋 Welcome! पहले अपना नाम बताएं:"
	msgAskState       = "🏞️ आप किस राज्य से हैं?"
	msgRegistered     = "✅ धन्यवाद! अब आप क्विज़ शुरू कर सकते हैं।"
	msgInvalidInput   = "⚠️ कृपया 1 से 64 अक्षरों का सही उत्तर लिखें।"
	msgStarted        = "✅ Quiz started!"
	msgAlreadyRunning = "⚠️ Quiz already running."
	msgStopped        = "🛑 Quiz stopped."
	msgStartFailed    = "⚠️ Quiz could not be started. Please try again."
	msgUseKeyboard    = "👇 Quiz शुरू या बंद करने के लिए नीचे दिए बटन दबाएं।"
	msgUnauthorized   = "❌ Unauthorized access."
	msgNoUsers        = "📭 कोई यूज़र नहीं मिला।"
	msgUsersFailed    = "⚠️ Error fetching users."
	msgStoreFailed    = "⚠️ Something went wrong. Please try again later."
)

// joinedLayout renders registration times in the admin listing.
const joinedLayout = "02 Jan 2006 15:04 MST"

// maxMessageLen keeps listing chunks under Telegram's 4096 character limit.
const maxMessageLen = 4000

// Keyboard is the persistent Start/Stop reply keyboard.
func Keyboard() *tele.ReplyMarkup {
	return keyboard.PersistentReply(keyboardPlaceholder, []string{ButtonStart, ButtonStop})
}

func isButton(text string) bool {
	text = strings.TrimSpace(text)
	return strings.EqualFold(text, ButtonStart) || strings.EqualFold(text, ButtonStop)
}

func md(s string) string {
	if s == "" {
		return "—"
	}
	return format.Escape(tele.ModeMarkdown, s)
}

// renderUsers formats the admin listing as Markdown, split into messages
// that fit the Telegram limit. Entries are never split across messages.
func renderUsers(list []users.User, loc *time.Location) []string {
	if len(list) == 0 {
		return []string{msgNoUsers}
	}
	if loc == nil {
		loc = time.UTC
	}

	var (
		out []string
		b   strings.Builder
	)
	fmt.Fprintf(&b, "📋 *Registered Users (%d)*\n\n", len(list))
	for i, u := range list {
		entry := fmt.Sprintf("👤 *User %d*\n🆔 ID: `%d`\n👨‍💼 Name: %s\n🌐 State: %s\n🕒 Joined: %s\n\n",
			i+1, u.TelegramID, md(u.Name), md(u.Region), u.CreatedAt.In(loc).Format(joinedLayout))
		if b.Len() > 0 && b.Len()+len(entry) > maxMessageLen {
			out = append(out, strings.TrimRight(b.String(), "\n"))
			b.Reset()
		}
		b.WriteString(entry)
	}
	if b.Len() > 0 {
		out = append(out, strings.TrimRight(b.String(), "\n"))
	}
	return out
}
