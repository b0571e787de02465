package transcript

import (
	"fmt"
	"net/url"
	"testing"
)

func TestParsePlayerResp(t *testing.T) {
	body := []byte(`{"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[` +
		`{"baseUrl":"https://example.test/tt","languageCode":"en","kind":"asr"}]}},` +
		`"playabilityStatus":{"status":"OK"}}`)

	pr, err := parsePlayerResp(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pr.Captions == nil {
		t.Fatal("captions block not decoded")
	}
	tracks := pr.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) != 1 || tracks[0].LanguageCode != "en" {
		t.Errorf("unexpected tracks: %+v", tracks)
	}
}

func TestParsePlayerRespMalformed(t *testing.T) {
	_, err := parsePlayerResp([]byte(`{"captions":`))
	if err == nil {
		t.Fatal("expected error")
	}
	if errKind(err) != KindMalformed {
		t.Errorf("kind = %v, want malformed", errKind(err))
	}
}

func TestBodyReadFailureStaysTransient(t *testing.T) {
	// A timeout surfacing mid-body must classify as a network failure, not a
	// parse failure, so the strategy executor retries it.
	readErr := fmt.Errorf("android innertube read: %w",
		&url.Error{Op: "Post", URL: innertubePlayerURL, Err: timeoutNetErr{}})
	if errKind(readErr) != KindTransient {
		t.Errorf("kind = %v, want transient_network", errKind(readErr))
	}
}

type timeoutNetErr struct{}

func (timeoutNetErr) Error() string   { return "i/o timeout" }
func (timeoutNetErr) Timeout() bool   { return true }
func (timeoutNetErr) Temporary() bool { return true }
