// Package server exposes the transcript engine as MCP tools:
// transcript_fetch for a single video, transcript_batch for freeform text
// containing any number of URLs.
package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/captext/captext/internal/download"
	"github.com/captext/captext/internal/engine"
	"github.com/captext/captext/internal/engine/transcript"
)

// RegisterTools registers the transcript tools on the given MCP server.
func RegisterTools(server *mcp.Server) {
	registerFetch(server)
	registerBatch(server)
}

type FetchInput struct {
	URL        string `json:"url" jsonschema:"Video URL or bare 11-character video ID"`
	Languages  string `json:"languages,omitempty" jsonschema:"Comma-separated language preference order, e.g. fr,en (default from server config)"`
	Strategies string `json:"strategies,omitempty" jsonschema:"Comma-separated strategy order from api, scrape, panel (default: api,scrape)"`
}

type FetchOutput struct {
	Success  bool                 `json:"success"`
	VideoID  string               `json:"video_id,omitempty"`
	Title    string               `json:"title,omitempty"`
	Language string               `json:"language,omitempty"`
	Text     string               `json:"text,omitempty"`
	Filename string               `json:"filename,omitempty"` // sanitized suggestion for saving the text
	Attempts []transcript.Attempt `json:"attempts,omitempty"`
}

func registerFetch(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "transcript_fetch",
		Description: "Fetch the transcript (closed captions) of a YouTube video as plain text. Accepts watch, youtu.be, embed, live, and shorts URLs or a bare video ID. Tries several retrieval strategies in order and reports the per-strategy failure log when none succeeds.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input FetchInput) (*mcp.CallToolResult, FetchOutput, error) {
		if strings.TrimSpace(input.URL) == "" {
			return nil, FetchOutput{}, fmt.Errorf("url is required")
		}

		res, err := transcript.Retrieve(ctx, input.URL, transcript.Options{
			Languages:  splitList(input.Languages),
			Strategies: splitList(input.Strategies),
		})
		if err != nil {
			return nil, FetchOutput{}, err
		}
		return nil, fetchOutput(res), nil
	})
}

func fetchOutput(res *transcript.Result) FetchOutput {
	out := FetchOutput{
		Success:  res.Success,
		VideoID:  res.VideoID,
		Title:    res.Title,
		Language: res.Language,
		Text:     strings.TrimSpace(res.Text),
		Attempts: res.Attempts,
	}
	if res.Success {
		base := res.Title
		if base == "" {
			base = res.VideoID
		}
		out.Filename = download.SanitizeFilename(base) + ".txt"
	}
	return out
}

type BatchInput struct {
	Text       string `json:"text" jsonschema:"Freeform text containing one or more video URLs, in any arrangement"`
	Languages  string `json:"languages,omitempty" jsonschema:"Comma-separated language preference order"`
	Strategies string `json:"strategies,omitempty" jsonschema:"Comma-separated strategy order from api, scrape, panel"`
	Filenames  string `json:"filenames,omitempty" jsonschema:"Optional newline-separated output names, matched to URLs by position"`
	Zip        bool   `json:"zip,omitempty" jsonschema:"Also return the successful transcripts as base64 ZIP archives"`
}

type BatchItem struct {
	URL    string      `json:"url"`
	Result FetchOutput `json:"result"`
}

type BatchOutput struct {
	Found     int         `json:"found"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Items     []BatchItem `json:"items,omitempty"`
	Archives  []string    `json:"archives,omitempty"` // base64 ZIP chunks when zip was requested
}

func registerBatch(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "transcript_batch",
		Description: "Extract every video URL from a block of text (even URLs pasted with no separator) and fetch all their transcripts. Returns per-URL results with failure diagnostics, and optionally the transcripts zipped in fixed-size chunks.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input BatchInput) (*mcp.CallToolResult, BatchOutput, error) {
		urls := transcript.SplitURLs(input.Text)
		if len(urls) == 0 {
			// Zero matches is a reportable outcome, not an error.
			return nil, BatchOutput{Found: 0}, nil
		}

		opts := transcript.Options{
			Languages:  splitList(input.Languages),
			Strategies: splitList(input.Strategies),
		}

		// Each URL is an independent unit of work; run a bounded number of
		// retrievals concurrently.
		items := make([]BatchItem, len(urls))
		sem := make(chan struct{}, engine.Cfg.BatchWorkers)
		var wg sync.WaitGroup
		for i, u := range urls {
			wg.Add(1)
			go func(i int, u string) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				res, err := transcript.Retrieve(ctx, u, opts)
				if err != nil {
					// Strategy misconfiguration; identical for every URL.
					items[i] = BatchItem{URL: u, Result: FetchOutput{Attempts: []transcript.Attempt{{
						Strategy: "configuration",
						Kind:     transcript.KindMalformed,
						Detail:   err.Error(),
					}}}}
					return
				}
				items[i] = BatchItem{URL: u, Result: fetchOutput(res)}
			}(i, u)
		}
		wg.Wait()

		names := splitLines(input.Filenames)
		out := BatchOutput{Found: len(urls), Items: items}
		var entries []download.Entry
		for i, item := range items {
			if !item.Result.Success {
				out.Failed++
				continue
			}
			out.Succeeded++

			base := download.DefaultName
			switch {
			case i < len(names) && strings.TrimSpace(names[i]) != "":
				base = download.SanitizeFilename(names[i])
			case item.Result.Title != "":
				base = download.SanitizeFilename(item.Result.Title)
			case item.Result.VideoID != "":
				base = item.Result.VideoID
			}
			entries = append(entries, download.Entry{
				Name: download.UniqueName(base, i),
				Text: item.Result.Text,
			})
		}

		if input.Zip && len(entries) > 0 {
			chunks, err := download.ChunkArchives(entries, engine.Cfg.ArchiveChunkSize)
			if err != nil {
				slog.Warn("archive packaging failed", slog.Any("error", err))
			} else {
				for _, c := range chunks {
					out.Archives = append(out.Archives, base64.StdEncoding.EncodeToString(c))
				}
			}
		}

		return nil, out, nil
	})
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitLines(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}
