package transcript

import (
	"context"
	"net/http"
	"strings"

	"github.com/captext/captext/internal/engine"
)

// apiStrategy retrieves captions through the structured Innertube /player
// listing: list the video's caption tracks, select one by language
// preference, fetch its timedtext URL.
type apiStrategy struct{}

func (apiStrategy) Tag() string { return StrategyAPI }

func (apiStrategy) Fetch(ctx context.Context, req *Request) (*Payload, error) {
	engine.IncrAPIStrategyCall()

	pr, err := postPlayer(ctx, req)
	if err != nil {
		return nil, err
	}

	if pr.Captions == nil {
		// The player response omits the captions block entirely when the
		// uploader turned captions off.
		detail := "captions disabled for this video"
		if pr.PlayabilityStatus != nil && pr.PlayabilityStatus.Reason != "" {
			detail = pr.PlayabilityStatus.Reason
		}
		return nil, kindErr(KindDisabled, "%s", detail)
	}

	tracks := pr.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, kindErr(KindNotFound, "no caption tracks in any language")
	}

	track := selectTrack(tracks, req.Languages)
	data, err := fetchCaptionURL(ctx, req, track.BaseURL)
	if err != nil {
		return nil, err
	}
	return &Payload{Format: FormatTimedText, Data: data, Language: track.LanguageCode}, nil
}

// fetchCaptionURL GETs a caption track URL and returns the raw timedtext body.
func fetchCaptionURL(ctx context.Context, r *Request, baseURL string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("User-Agent", engine.UserAgentBot)
	applyCredentials(httpReq, r.Credentials)

	resp, err := engine.DoRequest(httpReq)
	if err != nil {
		return nil, transportErr(err, "caption track request")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		engine.IncrFetchError()
		return nil, transportErr(engine.StatusError(resp.StatusCode), "caption track status %d", resp.StatusCode)
	}

	data, err := engine.ReadResponseBody(resp, engine.Cfg.MaxCaptionBytes)
	if err != nil {
		return nil, transportErr(err, "reading caption track body")
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, kindErr(KindMalformed, "empty caption track body")
	}
	return data, nil
}
