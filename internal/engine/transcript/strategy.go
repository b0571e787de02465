package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/captext/captext/internal/engine"
)

// Strategy is one self-contained technique for retrieving caption data.
// Implementations do a single attempt per Fetch call; retry lives in
// runStrategy so every strategy gets the same policy.
type Strategy interface {
	Tag() string
	Fetch(ctx context.Context, req *Request) (*Payload, error)
}

var ErrUnknownStrategy = errors.New("unknown strategy")

// strategyFactories maps tags to constructors. Adding a retrieval technique
// means adding an entry here; the orchestrator never changes.
var strategyFactories = map[string]func() Strategy{
	StrategyAPI:    func() Strategy { return apiStrategy{} },
	StrategyScrape: func() Strategy { return scrapeStrategy{} },
	StrategyPanel:  func() Strategy { return panelStrategy{} },
}

func newStrategy(tag string) (Strategy, error) {
	factory, ok := strategyFactories[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, tag)
	}
	return factory(), nil
}

const maxAttempts = 3

// backoffUnit is the initial retry wait, doubling each attempt. A variable so
// tests do not sleep for real.
var backoffUnit = time.Second

// runStrategy executes one strategy with the engine retry policy: up to
// maxAttempts total, exponential backoff, transient_network errors only.
// not_found, disabled, and malformed are permanent and short-circuit.
func runStrategy(ctx context.Context, s Strategy, req *Request) (*Payload, error) {
	attempt := 0
	operation := func() (*Payload, error) {
		attempt++
		payload, err := s.Fetch(ctx, req)
		if err == nil {
			return payload, nil
		}
		if errKind(err) != KindTransient {
			return nil, backoff.Permanent(err)
		}
		if attempt < maxAttempts {
			engine.IncrRetry()
			slog.Debug("transient strategy failure, retrying",
				slog.String("strategy", s.Tag()),
				slog.String("video_id", req.VideoID),
				slog.Int("attempt", attempt),
				slog.Any("error", err))
		}
		return nil, err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = backoffUnit
	bo.Multiplier = 2
	bo.RandomizationFactor = 0

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(maxAttempts))
}

// errKind maps any error a strategy produced to its ErrorKind. Errors that
// escaped without a StrategyError wrapper came out of the HTTP stack
// (url.Error, net.OpError, timeouts, status errors); anything there that is
// not a retryable network failure counts as malformed.
func errKind(err error) ErrorKind {
	var se *StrategyError
	if errors.As(err, &se) {
		return se.Kind
	}
	if engine.IsTransient(err) {
		return KindTransient
	}
	return KindMalformed
}

// selectTrack picks a caption track by the documented preference ladder:
// exact preferred code, in order → any auto-generated track → any manual
// track → first available. Callers guarantee tracks is non-empty.
func selectTrack(tracks []captionTrack, langs []string) captionTrack {
	for _, lang := range langs {
		for _, t := range tracks {
			if t.LanguageCode == lang {
				return t
			}
		}
	}
	for _, t := range tracks {
		if t.Kind == "asr" {
			return t
		}
	}
	for _, t := range tracks {
		if t.Kind != "asr" {
			return t
		}
	}
	return tracks[0]
}
