package question

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/internal/llm"
)

// Source produces one question per Fetch call from a generation provider.
type Source struct {
	provider  llm.Provider
	variant   Variant
	subtopics []string
	maxTokens int
	temp      float64

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// SourceOption customises a Source.
type SourceOption func(*Source)

// WithSubtopics replaces the default catalog. Empty input is ignored.
func WithSubtopics(topics []string) SourceOption {
	return func(s *Source) {
		cleaned := make([]string, 0, len(topics))
		for _, t := range topics {
			if t = strings.TrimSpace(t); t != "" {
				cleaned = append(cleaned, t)
			}
		}
		if len(cleaned) > 0 {
			s.subtopics = cleaned
		}
	}
}

// WithRand sets the random source used to pick subtopics.
func WithRand(r *rand.Rand) SourceOption {
	return func(s *Source) {
		if r != nil {
			s.rnd = r
		}
	}
}

// WithGeneration sets the token budget and temperature sent upstream.
func WithGeneration(maxTokens int, temperature float64) SourceOption {
	return func(s *Source) {
		s.maxTokens = maxTokens
		s.temp = temperature
	}
}

// NewSource builds a Source for the given prompt variant.
func NewSource(provider llm.Provider, variant Variant, opts ...SourceOption) (*Source, error) {
	if provider == nil {
		return nil, errors.New("question source: nil provider")
	}
	if _, ok := prompts[variant]; !ok {
		return nil, fmt.Errorf("question source: unknown variant %q", variant)
	}
	s := &Source{
		provider:  provider,
		variant:   variant,
		subtopics: DefaultSubtopics,
		rnd:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Variant returns the configured prompt variant.
func (s *Source) Variant() Variant { return s.variant }

func (s *Source) pickSubtopic() string {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return s.subtopics[s.rnd.IntN(len(s.subtopics))]
}

// Fetch makes exactly one upstream call. Failures are *FetchError: provider
// errors and empty payloads are UpstreamError, unparseable text is
// MalformedContent wrapping the *ParseError.
func (s *Source) Fetch(ctx context.Context) (Question, error) {
	subtopic := s.pickSubtopic()
	prompt, err := s.variant.Render(subtopic)
	if err != nil {
		return Question{}, &FetchError{Kind: UpstreamError, Err: err}
	}

	resp, err := s.provider.Generate(ctx, llm.Request{
		Prompt:      prompt,
		MaxTokens:   s.maxTokens,
		Temperature: s.temp,
	})
	if err != nil {
		return Question{}, &FetchError{Kind: UpstreamError, Err: err}
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return Question{}, &FetchError{Kind: UpstreamError, Err: &llm.ErrEmptyResponse{Provider: s.provider.ModelID()}}
	}

	q, err := Parse(resp.Text, ParseOptions{RequireExplanation: s.variant.RequiresExplanation()})
	if err != nil {
		logger.Warn(ctx, "quiz.source", "question.malformed",
			slog.String("subtopic", subtopic),
			slog.String("variant", string(s.variant)),
			slog.String("err", err.Error()),
			slog.String("payload", logger.SanitizeLimit(resp.Text, 256)),
		)
		return Question{}, &FetchError{Kind: MalformedContent, Err: err}
	}
	logger.Debug(ctx, "quiz.source", "question.fetched",
		slog.String("subtopic", subtopic),
		slog.String("variant", string(s.variant)),
	)
	return q, nil
}
