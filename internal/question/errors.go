package question

import "fmt"

// ParseFailure identifies why generated text could not be parsed.
type ParseFailure string

const (
	MissingQuestion    ParseFailure = "missing_question"
	WrongOptionCount   ParseFailure = "wrong_option_count"
	InvalidAnswerLabel ParseFailure = "invalid_answer_label"
	MissingExplanation ParseFailure = "missing_explanation"
)

// ParseError is returned by Parse. No question is constructed alongside it.
type ParseError struct {
	Kind   ParseFailure
	Detail string
}

func (e *ParseError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("parse question: %s (%s)", e.Kind, e.Detail)
	}
	return fmt.Sprintf("parse question: %s", e.Kind)
}

// Code satisfies the router's error code lookup.
func (e *ParseError) Code() string { return string(e.Kind) }

// FetchFailure identifies why a Source could not produce a question.
type FetchFailure string

const (
	UpstreamError    FetchFailure = "upstream_error"
	MalformedContent FetchFailure = "malformed_content"
)

// FetchError is returned by Source.Fetch.
type FetchError struct {
	Kind FetchFailure
	Err  error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch question: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch question: %s", e.Kind)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Code satisfies the router's error code lookup.
func (e *FetchError) Code() string { return string(e.Kind) }
