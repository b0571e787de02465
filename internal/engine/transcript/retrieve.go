package transcript

import (
	"context"
	"errors"
	"log/slog"

	"github.com/captext/captext/internal/engine"
)

// Options configures one retrieval. Zero values fall back to the engine
// configuration defaults.
type Options struct {
	Languages   []string          // preference order; default from config
	Strategies  []string          // ordered strategy tags; default [api, scrape]
	Credentials map[string]string // opaque headers forwarded to every request
}

// defaultStrategies is the order used when neither the caller nor the
// configuration names one.
var defaultStrategies = []string{StrategyAPI, StrategyScrape}

// Retrieve resolves rawURL to a video identifier and runs the configured
// strategies in order until one yields a normalized transcript. Every
// retrieval outcome — including total failure — is a Result value; the error
// return fires only for caller misuse (an unknown strategy tag or an
// explicitly empty strategy list).
func Retrieve(ctx context.Context, rawURL string, opts Options) (*Result, error) {
	engine.IncrRetrieval()

	strategies, err := buildStrategies(opts.Strategies)
	if err != nil {
		return nil, err
	}

	langs := opts.Languages
	if len(langs) == 0 {
		langs = engine.Cfg.DefaultLanguages
	}

	videoID, err := ResolveVideoID(rawURL)
	if err != nil {
		engine.IncrRetrievalFailure()
		return &Result{Attempts: []Attempt{attemptFrom(attemptResolve, err)}}, nil
	}

	req := &Request{VideoID: videoID, Languages: langs, Credentials: opts.Credentials}

	var attempts []Attempt
	for _, s := range strategies {
		payload, err := runStrategy(ctx, s, req)
		if err != nil {
			attempts = append(attempts, attemptFrom(s.Tag(), err))
			slog.Warn("strategy failed",
				slog.String("strategy", s.Tag()),
				slog.String("video_id", videoID),
				slog.Any("error", err))
			continue
		}

		text, nerr := Normalize(payload)
		if nerr != nil {
			// A payload that will not parse does not block the next
			// strategy, only this one.
			attempts = append(attempts, attemptFrom(s.Tag(), nerr))
			slog.Warn("payload failed normalization",
				slog.String("strategy", s.Tag()),
				slog.String("video_id", videoID),
				slog.Any("error", nerr))
			continue
		}

		return &Result{
			Success:  true,
			VideoID:  videoID,
			Text:     text,
			Language: payload.Language,
			Title:    payload.Title,
			Attempts: attempts,
		}, nil
	}

	engine.IncrRetrievalFailure()
	return &Result{VideoID: videoID, Attempts: attempts}, nil
}

// buildStrategies resolves tags into strategy values, falling back to the
// configured then built-in default order. Misconfiguration fails fast here
// rather than degrading mid-retrieval.
func buildStrategies(tags []string) ([]Strategy, error) {
	if len(tags) == 0 {
		tags = engine.Cfg.DefaultStrategies
	}
	if len(tags) == 0 {
		tags = defaultStrategies
	}

	strategies := make([]Strategy, 0, len(tags))
	for _, tag := range tags {
		s, err := newStrategy(tag)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, s)
	}
	if len(strategies) == 0 {
		return nil, errors.New("no strategies enabled")
	}
	return strategies, nil
}
