// captext — YouTube transcript extraction MCP server.
//
// Exposes two MCP tools: transcript_fetch and transcript_batch. The engine
// underneath resolves a video identifier out of any URL shape the host uses,
// then tries several independent caption-retrieval strategies in order,
// normalizing whatever payload format comes back into plain text.
package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/captext/captext/internal/engine"
	"github.com/captext/captext/internal/server"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8893")
)

func main() {
	initEngine()

	slog.Info("starting captext",
		slog.String("port", mcpPort),
	)

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "captext",
		Version: version,
	}, nil)

	server.RegisterTools(srv)
	slog.Info("tools registered", slog.Int("count", 2))

	if err := mcpserver.Run(srv, mcpserver.Config{
		Name:         "captext",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 120 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initEngine() {
	c := engine.Config{
		DefaultLanguages:  env.List("TRANSCRIPT_LANGS", "en"),
		DefaultStrategies: env.List("TRANSCRIPT_STRATEGIES", ""),
		FetchTimeout:      env.Duration("FETCH_TIMEOUT", 15*time.Second),
		MaxPageBytes:      int64(env.Int("MAX_PAGE_BYTES", 6*1024*1024)),
		MaxCaptionBytes:   int64(env.Int("MAX_CAPTION_BYTES", 512*1024)),
		RequestsPerSecond: env.Float("REQUESTS_PER_SECOND", 2),
		BatchWorkers:      env.Int("BATCH_WORKERS", 4),
		ArchiveChunkSize:  env.Int("ARCHIVE_CHUNK_SIZE", 50),
		HTTPClient: &http.Client{
			Timeout: env.Duration("FETCH_TIMEOUT", 15*time.Second),
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	// Fingerprinted browser client for watch-page fetches; optional.
	if env.Str("BROWSER_FETCH", "") == "1" {
		bc, err := stealth.NewClient(stealth.WithTimeout(15))
		if err != nil {
			slog.Warn("stealth client init failed, using plain HTTP", slog.Any("error", err))
		} else {
			c.BrowserClient = bc
			slog.Info("stealth browser client initialized")
		}
	}

	engine.Init(c)
}
