package transcript

import (
	"errors"
	"fmt"
)

// Strategy tags, in default priority order.
const (
	StrategyAPI    = "api"    // structured captions listing via the Innertube player endpoint
	StrategyScrape = "scrape" // watch-page HTML / direct timedtext endpoint
	StrategyPanel  = "panel"  // engagement panel /next + /get_transcript
)

// attemptResolve is the synthetic strategy tag used when identifier
// resolution itself fails, before any strategy runs.
const attemptResolve = "identifier_resolution"

// ErrorKind classifies a failed attempt. Only transient_network is ever
// retried; every other kind is permanent for its strategy.
type ErrorKind string

const (
	KindInvalidURL ErrorKind = "invalid_url"
	KindNotFound   ErrorKind = "not_found"
	KindDisabled   ErrorKind = "disabled"
	KindTransient  ErrorKind = "transient_network"
	KindMalformed  ErrorKind = "malformed"
)

// StrategyError is the error type every strategy and the resolver return.
// Kind drives retry and attempt logging; Err carries the underlying cause.
type StrategyError struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *StrategyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *StrategyError) Unwrap() error { return e.Err }

func kindErr(kind ErrorKind, format string, args ...any) *StrategyError {
	return &StrategyError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// transportErr wraps an HTTP-level failure (timeout, refused connection,
// non-success status) as transient_network.
func transportErr(err error, format string, args ...any) *StrategyError {
	return &StrategyError{Kind: KindTransient, Detail: fmt.Sprintf(format, args...), Err: err}
}

// Format tags the wire shape of a caption payload.
type Format string

const (
	FormatTimedText Format = "timed_text_xml"
	FormatTrackJSON Format = "track_json"
	FormatSRT       Format = "srt"
)

// Payload is raw caption data produced by one strategy and consumed exactly
// once by Normalize.
type Payload struct {
	Format   Format
	Data     []byte
	Language string // source language when the strategy knows it
	Title    string // video title when the strategy saw the watch page
}

// Request carries everything a strategy needs for one retrieval. Built once
// per Retrieve call, never mutated.
type Request struct {
	VideoID     string
	Languages   []string          // preference order, never empty
	Credentials map[string]string // opaque header values forwarded verbatim
}

// Attempt records one failed strategy invocation for the caller's diagnostics.
type Attempt struct {
	Strategy string    `json:"strategy"`
	Kind     ErrorKind `json:"kind"`
	Detail   string    `json:"detail"`
}

// Result is the only artifact returned to callers: either a transcript or
// the full ordered attempt log explaining why there is none.
type Result struct {
	Success  bool      `json:"success"`
	VideoID  string    `json:"video_id,omitempty"`
	Text     string    `json:"text,omitempty"`
	Language string    `json:"language,omitempty"`
	Title    string    `json:"title,omitempty"`
	Attempts []Attempt `json:"attempts,omitempty"`
}

func attemptFrom(tag string, err error) Attempt {
	var se *StrategyError
	if errors.As(err, &se) {
		detail := se.Detail
		if se.Err != nil {
			detail = fmt.Sprintf("%s: %v", se.Detail, se.Err)
		}
		return Attempt{Strategy: tag, Kind: se.Kind, Detail: detail}
	}
	return Attempt{Strategy: tag, Kind: errKind(err), Detail: err.Error()}
}
