package quiz

import (
	"fmt"
	"time"

	"github.com/m3rciful/quizbot/internal/question"
)

const (
	questionPrefix = "🧠 "
	resumeNotice   = "▶️ Quiz को फिर से शुरू करने के लिए 'Start Quiz' दबाएं।"
)

func pollFor(q question.Question) Poll {
	return Poll{
		Question: questionPrefix + q.Text,
		Options:  q.OptionList(),
		Correct:  q.Correct,
		Reveal:   "✅ सही उत्तर: " + q.CorrectOption(),
	}
}

func countdownText(remaining time.Duration) string {
	return fmt.Sprintf("⏳ अगले सवाल तक %d सेकंड...", int(remaining.Round(time.Second)/time.Second))
}

func retryText(delay time.Duration) string {
	return fmt.Sprintf("⚠️ Question service error. Retrying in %ds...", int(delay.Round(time.Second)/time.Second))
}

func silenceText(threshold int) string {
	return fmt.Sprintf("⚠️ आपने लगातार %d सवालों का जवाब नहीं दिया। Quiz रोक दिया गया।", threshold)
}

func explanationText(p *Posted) string {
	return fmt.Sprintf("📘 %s\n%s", p.Question.CorrectOption(), p.Question.Explanation)
}
