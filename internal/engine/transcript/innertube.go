package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"

	"github.com/captext/captext/internal/engine"
)

// Innertube API — low-level constants, types, and HTTP primitives shared by
// the api and panel strategies.

const (
	innertubePlayerURL     = "https://www.youtube.com/youtubei/v1/player"
	innertubeNextURL       = "https://www.youtube.com/youtubei/v1/next"
	innertubeTranscriptURL = "https://www.youtube.com/youtubei/v1/get_transcript"
	webClientVersion       = "2.20250222.10.00"
	androidClientVersion   = "20.10.38"
	androidUserAgent       = "com.google.android.youtube/" + androidClientVersion + " (Linux; U; Android 11) gzip"
)

// --- ANDROID client types (/player endpoint) ---

type playerReq struct {
	VideoID        string    `json:"videoId"`
	Context        clientCtx `json:"context"`
	RacyCheckOk    bool      `json:"racyCheckOk"`
	ContentCheckOk bool      `json:"contentCheckOk"`
}

type clientCtx struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	Hl                string `json:"hl,omitempty"`
	Gl                string `json:"gl,omitempty"`
}

type playerResp struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
	Name         struct {
		SimpleText string `json:"simpleText"`
	} `json:"name"`
}

// --- WEB client types (/next and /get_transcript endpoints) ---

type webClientCtx struct {
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
	VisitorData   string `json:"visitorData,omitempty"`
	Hl            string `json:"hl,omitempty"`
	Gl            string `json:"gl,omitempty"`
}

type webUser struct {
	EnableSafetyMode bool `json:"enableSafetyMode"`
}

type webReqCtx struct {
	UseSsl bool `json:"useSsl"`
}

// --- Timedtext XML types ---

type timedText struct {
	Cues []timedTextCue `xml:"text"`
}

type timedTextCue struct {
	Text string `xml:",chardata"`
}

// --- /get_transcript response ---

type getTranscriptResp struct {
	Actions []struct {
		UpdateEngagementPanelAction *struct {
			Content struct {
				TranscriptRenderer struct {
					Content struct {
						TranscriptSearchPanelRenderer struct {
							Body struct {
								TranscriptSegmentListRenderer struct {
									InitialSegments []struct {
										TranscriptSegmentRenderer *struct {
											Snippet struct {
												Runs []struct {
													Text string `json:"text"`
												} `json:"runs"`
											} `json:"snippet"`
										} `json:"transcriptSegmentRenderer"`
									} `json:"initialSegments"`
								} `json:"transcriptSegmentListRenderer"`
							} `json:"body"`
						} `json:"transcriptSearchPanelRenderer"`
					} `json:"content"`
				} `json:"transcriptRenderer"`
			} `json:"content"`
		} `json:"updateEngagementPanelAction"`
	} `json:"actions"`
}

// generateVisitorData creates a random 11-char visitor ID for Innertube requests.
func generateVisitorData() string {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	b := make([]byte, 11)
	for i := range b {
		b[i] = chars[rand.Intn(len(chars))] //nolint:gosec // non-cryptographic use
	}
	return string(b)
}

// webContext builds the standard WEB client context for Innertube payloads.
func webContext(visitorData string) map[string]any {
	return map[string]any{
		"client": webClientCtx{
			ClientName:    "WEB",
			ClientVersion: webClientVersion,
			VisitorData:   visitorData,
			Hl:            "en",
			Gl:            "US",
		},
		"user":    webUser{EnableSafetyMode: false},
		"request": webReqCtx{UseSsl: true},
	}
}

// applyCredentials copies the caller's opaque credential bag onto a request.
// Values are forwarded verbatim; the engine never inspects them.
func applyCredentials(req *http.Request, creds map[string]string) {
	for k, v := range creds {
		req.Header.Set(k, v)
	}
}

// postInnertubeWeb POSTs to an Innertube endpoint with WEB client headers.
// One attempt, no retry — the strategy executor owns the retry policy.
func postInnertubeWeb(ctx context.Context, r *Request, endpoint string, payload any, visitorData string) ([]byte, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?prettyPrint=false", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("User-Agent", engine.UserAgentChrome)
	req.Header.Set("X-Youtube-Client-Name", "1")
	req.Header.Set("X-Youtube-Client-Version", webClientVersion)
	req.Header.Set("X-Goog-Visitor-Id", visitorData)
	req.Header.Set("Origin", "https://www.youtube.com")
	req.Header.Set("Referer", "https://www.youtube.com/")
	applyCredentials(req, r.Credentials)

	resp, err := engine.DoRequest(req)
	if err != nil {
		return nil, fmt.Errorf("innertube [%s]: %w", endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		engine.IncrFetchError()
		return nil, engine.StatusError(resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 3*1024*1024))
}

// postPlayer calls the ANDROID /player endpoint for a video's caption listing.
func postPlayer(ctx context.Context, r *Request) (*playerResp, error) {
	reqBody, err := json.Marshal(playerReq{
		VideoID: r.VideoID,
		Context: clientCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     androidClientVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, innertubePlayerURL+"?prettyPrint=false", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", androidUserAgent)
	req.Header.Set("X-Youtube-Client-Name", "3")
	req.Header.Set("X-Youtube-Client-Version", androidClientVersion)
	applyCredentials(req, r.Credentials)

	resp, err := engine.DoRequest(req)
	if err != nil {
		return nil, fmt.Errorf("android innertube: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		engine.IncrFetchError()
		return nil, engine.StatusError(resp.StatusCode)
	}

	// Read fully before decoding so a mid-body network failure stays a
	// transport error instead of masquerading as a parse error.
	body, err := engine.ReadResponseBody(resp, 3*1024*1024)
	if err != nil {
		return nil, fmt.Errorf("android innertube read: %w", err)
	}
	return parsePlayerResp(body)
}

func parsePlayerResp(body []byte) (*playerResp, error) {
	var pr playerResp
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, kindErr(KindMalformed, "decode player response: %v", err)
	}
	return &pr, nil
}
