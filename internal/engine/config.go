package engine

import (
	"net/http"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	DefaultLanguages  []string // language preference order when a caller passes none
	DefaultStrategies []string // strategy order when a caller passes none
	FetchTimeout      time.Duration
	MaxPageBytes      int64   // cap on watch-page reads
	MaxCaptionBytes   int64   // cap on caption payload reads
	RequestsPerSecond float64 // host politeness limit, 0 = unlimited
	BatchWorkers      int     // concurrent retrievals in batch tools
	ArchiveChunkSize  int     // entries per ZIP chunk in batch downloads

	HTTPClient    *http.Client
	BrowserClient *stealth.BrowserClient // nil = fingerprinted fetches disabled
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (transcript, server).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.HTTPClient == nil {
		c.HTTPClient = newHTTPClient(c.FetchTimeout)
	}
	if len(c.DefaultLanguages) == 0 {
		c.DefaultLanguages = []string{"en"}
	}
	if c.BatchWorkers <= 0 {
		c.BatchWorkers = 4
	}
	if c.ArchiveChunkSize <= 0 {
		c.ArchiveChunkSize = 50
	}
	cfg = c
	Cfg = &cfg
	initLimiter(c.RequestsPerSecond)
}
