package question

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	questionLine = regexp.MustCompile(`(?i)^(?:प्रश्न|question|q)\s*(?:\d+\s*)?[:：.)\-]\s*(.*)$`)
	answerLine   = regexp.MustCompile(`(?i)^(?:उत्तर|correct\s+answer|answer|ans)\s*[:：.\-]\s*(.*)$`)
	optionLine   = regexp.MustCompile(`^\(?([A-D])(?:\s*[.\-:：)]\s*|\s+)(.+)$`)

	answerIndex = map[string]int{"A": 0, "B": 1, "C": 2, "D": 3}

	bulletMarkers = []string{"•", "-", "*", "–", "▪", "👉"}
)

// ParseOptions tunes Parse for the prompt variant that produced the text.
type ParseOptions struct {
	RequireExplanation bool
}

// Parse converts generated text into a Question. It never returns a partial
// result: on failure the Question is zero and the error is a *ParseError.
func Parse(raw string, opts ParseOptions) (Question, error) {
	lines := splitLines(raw)

	qIdx, text := findLabeled(lines, questionLine)
	if qIdx < 0 || text == "" {
		return Question{}, &ParseError{Kind: MissingQuestion}
	}

	aIdx, answer := findLabeled(lines, answerLine)

	var (
		options []string
		labels  []string
	)
	for i, l := range lines {
		if i == qIdx || i == aIdx {
			continue
		}
		m := optionLine.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		labels = append(labels, m[1])
		options = append(options, strings.TrimSpace(m[2]))
	}
	if len(options) != OptionCount {
		return Question{}, &ParseError{Kind: WrongOptionCount, Detail: fmt.Sprintf("got %d option lines", len(options))}
	}
	for i, l := range labels {
		if l != Labels[i] {
			return Question{}, &ParseError{Kind: WrongOptionCount, Detail: "options out of order: " + strings.Join(labels, ",")}
		}
	}

	if aIdx < 0 {
		return Question{}, &ParseError{Kind: InvalidAnswerLabel, Detail: "no answer line"}
	}
	correct, ok := answerIndex[strings.ToUpper(strings.TrimSpace(answer))]
	if !ok {
		return Question{}, &ParseError{Kind: InvalidAnswerLabel, Detail: fmt.Sprintf("%q", answer)}
	}

	var explanation string
	if opts.RequireExplanation {
		// bullets above the answer belong to the question
		start := -1
		for i := aIdx + 1; i < len(lines); i++ {
			if isBullet(lines[i]) {
				start = i
				break
			}
		}
		if start < 0 {
			return Question{}, &ParseError{Kind: MissingExplanation}
		}
		explanation = strings.Join(lines[start:], "\n")
	}

	return New(text, options, correct, explanation)
}

// splitLines returns trimmed non-empty lines with markdown bold markers removed.
func splitLines(raw string) []string {
	parts := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.ReplaceAll(p, "**", ""))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func findLabeled(lines []string, re *regexp.Regexp) (int, string) {
	for i, l := range lines {
		if m := re.FindStringSubmatch(l); m != nil {
			return i, strings.TrimSpace(m[1])
		}
	}
	return -1, ""
}

func isBullet(line string) bool {
	for _, b := range bulletMarkers {
		if strings.HasPrefix(line, b) {
			return true
		}
	}
	return false
}
