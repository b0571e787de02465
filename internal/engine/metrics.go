package engine

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	Retrievals          atomic.Int64
	RetrievalFailures   atomic.Int64
	APIStrategyCalls    atomic.Int64
	ScrapeStrategyCalls atomic.Int64
	PanelStrategyCalls  atomic.Int64
	FetchErrors         atomic.Int64
	Retries             atomic.Int64
}

// GetMetrics returns a snapshot of all metrics.
func GetMetrics() map[string]int64 {
	return map[string]int64{
		"retrievals":            metrics.Retrievals.Load(),
		"retrieval_failures":    metrics.RetrievalFailures.Load(),
		"api_strategy_calls":    metrics.APIStrategyCalls.Load(),
		"scrape_strategy_calls": metrics.ScrapeStrategyCalls.Load(),
		"panel_strategy_calls":  metrics.PanelStrategyCalls.Load(),
		"fetch_errors":          metrics.FetchErrors.Load(),
		"retries":               metrics.Retries.Load(),
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"retrievals", "retrieval_failures",
		"api_strategy_calls", "scrape_strategy_calls", "panel_strategy_calls",
		"fetch_errors", "retries",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the transcript sub-package.
func IncrRetrieval()          { metrics.Retrievals.Add(1) }
func IncrRetrievalFailure()   { metrics.RetrievalFailures.Add(1) }
func IncrAPIStrategyCall()    { metrics.APIStrategyCalls.Add(1) }
func IncrScrapeStrategyCall() { metrics.ScrapeStrategyCalls.Add(1) }
func IncrPanelStrategyCall()  { metrics.PanelStrategyCalls.Add(1) }
func IncrFetchError()         { metrics.FetchErrors.Add(1) }
func IncrRetry()              { metrics.Retries.Add(1) }
