package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	stealth "github.com/anatolykoptev/go-stealth"
	"golang.org/x/net/html"

	"github.com/captext/captext/internal/engine"
)

// scrapeStrategy retrieves captions without the structured API, in two steps:
//  1. the well-known timedtext endpoint, parameterized by id and language
//  2. the watch page HTML, mining the embedded player JSON for a track URL
//
// The embedded JSON is undocumented and changes shape without notice; all of
// that fragility is contained here.
type scrapeStrategy struct{}

func (scrapeStrategy) Tag() string { return StrategyScrape }

const (
	watchURLFormat     = "https://www.youtube.com/watch?v=%s"
	timedTextURLFormat = "https://www.youtube.com/api/timedtext?v=%s&lang=%s"

	playerResponseMarker = "ytInitialPlayerResponse = "
	captionsMarker       = `"captions":`
)

func (s scrapeStrategy) Fetch(ctx context.Context, req *Request) (*Payload, error) {
	engine.IncrScrapeStrategyCall()

	// Direct timedtext endpoint first: one cheap GET per preferred language.
	// An empty 200 body means the language is not there; fall through to the
	// watch page rather than failing.
	for _, lang := range req.Languages {
		data, err := fetchCaptionURL(ctx, req, fmt.Sprintf(timedTextURLFormat, req.VideoID, lang))
		if err == nil && looksLikeTimedText(data) {
			return &Payload{Format: FormatTimedText, Data: data, Language: lang}, nil
		}
	}

	body, err := s.fetchWatchPage(ctx, req)
	if err != nil {
		return nil, err
	}

	title := pageTitle(body)

	tracks, err := extractCaptionTracks(body)
	if err != nil {
		return nil, err
	}

	track := firstFetchable(tracks, req.Languages)
	if track == nil {
		return nil, kindErr(KindMalformed, "no caption descriptor with a fetchable url in watch page")
	}

	data, err := fetchCaptionURL(ctx, req, track.BaseURL)
	if err != nil {
		return nil, err
	}
	return &Payload{Format: FormatTimedText, Data: data, Language: track.LanguageCode, Title: title}, nil
}

// fetchWatchPage GETs the viewer page, through the fingerprinted browser
// client when one is configured, plain HTTP otherwise.
func (scrapeStrategy) fetchWatchPage(ctx context.Context, req *Request) ([]byte, error) {
	watchURL := fmt.Sprintf(watchURLFormat, req.VideoID)

	if engine.Cfg.BrowserClient != nil {
		headers := map[string]string{"accept-language": "en-US,en;q=0.9"}
		for k, v := range req.Credentials {
			headers[strings.ToLower(k)] = v
		}
		body, status, err := engine.FetchBrowser(ctx, watchURL, headers)
		if err != nil {
			return nil, transportErr(err, "watch page (browser)")
		}
		if status != http.StatusOK {
			engine.IncrFetchError()
			return nil, transportErr(engine.StatusError(status), "watch page status %d", status)
		}
		return body, nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, watchURL, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("User-Agent", stealth.RandomUserAgent())
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")
	applyCredentials(httpReq, req.Credentials)

	resp, err := engine.DoRequest(httpReq)
	if err != nil {
		return nil, transportErr(err, "watch page")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		engine.IncrFetchError()
		return nil, transportErr(engine.StatusError(resp.StatusCode), "watch page status %d", resp.StatusCode)
	}

	body, err := engine.ReadResponseBody(resp, engine.Cfg.MaxPageBytes)
	if err != nil {
		return nil, transportErr(err, "reading watch page")
	}
	return body, nil
}

// extractCaptionTracks mines the caption track descriptors out of watch-page
// HTML. Two patterns are tried: the full ytInitialPlayerResponse object, then
// the older "captions": fragment bounded by ,"videoDetails". HTML that
// matches neither is malformed from this strategy's point of view.
func extractCaptionTracks(body []byte) ([]captionTrack, error) {
	if idx := bytes.Index(body, []byte(playerResponseMarker)); idx >= 0 {
		raw := extractJSON(body[idx+len(playerResponseMarker):])
		if raw != nil {
			var pr playerResp
			if err := json.Unmarshal(raw, &pr); err == nil && pr.Captions != nil {
				return pr.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks, nil
			}
		}
	}

	if idx := bytes.Index(body, []byte(captionsMarker)); idx >= 0 {
		rest := body[idx+len(captionsMarker):]
		end := bytes.Index(rest, []byte(`,"videoDetails`))
		if end > 0 {
			raw := bytes.ReplaceAll(rest[:end], []byte("\n"), nil)
			var frag struct {
				PlayerCaptionsTracklistRenderer struct {
					CaptionTracks []captionTrack `json:"captionTracks"`
				} `json:"playerCaptionsTracklistRenderer"`
			}
			if err := json.Unmarshal(raw, &frag); err == nil {
				return frag.PlayerCaptionsTracklistRenderer.CaptionTracks, nil
			}
		}
	}

	return nil, kindErr(KindMalformed, "no caption descriptor found in watch page")
}

// firstFetchable applies the language ladder over tracks that actually carry
// a URL. Tracks gated behind browser-only tokens have no usable BaseURL here.
func firstFetchable(tracks []captionTrack, langs []string) *captionTrack {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if t.BaseURL != "" {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return nil
	}
	t := selectTrack(usable, langs)
	return &t
}

// looksLikeTimedText reports whether a body is a non-empty timedtext XML
// document. The timedtext endpoint answers 200 with an empty body when the
// requested language does not exist.
func looksLikeTimedText(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '<' && bytes.Contains(trimmed, []byte("<text"))
}

// extractJSON returns the balanced JSON object at the start of b, tolerating
// braces inside string literals.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	var prev byte
	for i, c := range b {
		if inStr {
			if c == '"' && prev != '\\' {
				inStr = false
			}
		} else {
			switch c {
			case '"':
				inStr = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return b[:i+1]
				}
			}
		}
		prev = c
	}
	return nil
}

// pageTitle pulls the <title> text out of watch-page HTML, with the
// " - YouTube" suffix removed. Best effort; empty string when absent.
func pageTitle(body []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if string(name) == "title" {
				if tokenizer.Next() == html.TextToken {
					title := strings.TrimSpace(string(tokenizer.Text()))
					return strings.TrimSuffix(title, " - YouTube")
				}
				return ""
			}
		}
	}
}
