package transcript

import (
	"context"
	"encoding/json"
	"net/url"
	"regexp"

	"github.com/captext/captext/internal/engine"
)

// panelStrategy drives the host's own transcript viewer: POST /next for the
// engagement panel continuation token, then POST /get_transcript for the
// segment list. Works from addresses where the player endpoint demands a
// login, which is why it earns its place next to the other two strategies.
type panelStrategy struct{}

func (panelStrategy) Tag() string { return StrategyPanel }

// transcriptTokenRe extracts the continuation token from a raw /next response.
var transcriptTokenRe = regexp.MustCompile(`"getTranscriptEndpoint":\{"params":"([^"]+)"`)

func (panelStrategy) Fetch(ctx context.Context, req *Request) (*Payload, error) {
	engine.IncrPanelStrategyCall()

	visitorData := generateVisitorData()

	nextData, err := postInnertubeWeb(ctx, req, innertubeNextURL, map[string]any{
		"videoId": req.VideoID,
		"context": webContext(visitorData),
	}, visitorData)
	if err != nil {
		return nil, transportErr(err, "/next")
	}

	token, err := extractTranscriptToken(nextData)
	if err != nil {
		return nil, kindErr(KindNotFound, "no transcript panel for this video")
	}

	transcriptData, err := postInnertubeWeb(ctx, req, innertubeTranscriptURL, map[string]any{
		"params": token,
		"context": map[string]any{
			"client": webClientCtx{
				ClientName:    "WEB",
				ClientVersion: webClientVersion,
				VisitorData:   visitorData,
				Hl:            "en",
				Gl:            "US",
			},
		},
	}, visitorData)
	if err != nil {
		return nil, transportErr(err, "/get_transcript")
	}

	var resp getTranscriptResp
	if err := json.Unmarshal(transcriptData, &resp); err != nil {
		return nil, kindErr(KindMalformed, "decode transcript response: %v", err)
	}

	cues := panelCues(resp)
	if len(cues) == 0 {
		return nil, kindErr(KindNotFound, "transcript panel returned no segments")
	}

	data, err := json.Marshal(cues)
	if err != nil {
		return nil, kindErr(KindMalformed, "encode cue list: %v", err)
	}
	return &Payload{Format: FormatTrackJSON, Data: data}, nil
}

// extractTranscriptToken pulls the continuation token out of a raw /next
// JSON response. The params value is URL-encoded in transit; /get_transcript
// expects the decoded (raw base64) form.
func extractTranscriptToken(data []byte) (string, error) {
	m := transcriptTokenRe.FindSubmatch(data)
	if len(m) < 2 {
		return "", kindErr(KindNotFound, "getTranscriptEndpoint not found in engagement panels")
	}
	decoded, err := url.QueryUnescape(string(m[1]))
	if err != nil {
		return string(m[1]), nil
	}
	return decoded, nil
}

// trackCue is one subtitle cue in the track JSON payload format.
type trackCue struct {
	Text string `json:"text"`
}

// panelCues flattens the renderer tree into plain cues, one per segment.
func panelCues(resp getTranscriptResp) []trackCue {
	var cues []trackCue
	for _, action := range resp.Actions {
		if action.UpdateEngagementPanelAction == nil {
			continue
		}
		segs := action.UpdateEngagementPanelAction.Content.
			TranscriptRenderer.Content.
			TranscriptSearchPanelRenderer.Body.
			TranscriptSegmentListRenderer.InitialSegments
		for _, seg := range segs {
			if seg.TranscriptSegmentRenderer == nil {
				continue
			}
			var cue trackCue
			for _, run := range seg.TranscriptSegmentRenderer.Snippet.Runs {
				if run.Text == "" {
					continue
				}
				if cue.Text != "" {
					cue.Text += " "
				}
				cue.Text += run.Text
			}
			if cue.Text != "" {
				cues = append(cues, cue)
			}
		}
	}
	return cues
}
