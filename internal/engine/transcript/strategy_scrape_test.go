package transcript

import (
	"fmt"
	"testing"
)

func TestExtractCaptionTracksPlayerResponse(t *testing.T) {
	pr := `{"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[` +
		`{"baseUrl":"https://example.test/tt?lang=en","languageCode":"en","kind":"asr"},` +
		`{"baseUrl":"https://example.test/tt?lang=fr","languageCode":"fr"}` +
		`]}},"videoDetails":{"title":"x"}}`
	body := []byte(`<html><script>var ytInitialPlayerResponse = ` + pr + `;</script></html>`)

	tracks, err := extractCaptionTracks(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(tracks))
	}
	if tracks[0].LanguageCode != "en" || tracks[0].Kind != "asr" {
		t.Errorf("unexpected first track: %+v", tracks[0])
	}
	if tracks[1].BaseURL != "https://example.test/tt?lang=fr" {
		t.Errorf("unexpected second track url: %q", tracks[1].BaseURL)
	}
}

func TestExtractCaptionTracksFragment(t *testing.T) {
	body := []byte(`<html>junk "captions":{"playerCaptionsTracklistRenderer":` +
		`{"captionTracks":[{"baseUrl":"https://example.test/tt","languageCode":"de"}]}}` +
		`,"videoDetails":{"title":"x"} more junk</html>`)

	tracks, err := extractCaptionTracks(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tracks) != 1 || tracks[0].LanguageCode != "de" {
		t.Errorf("unexpected tracks: %+v", tracks)
	}
}

func TestExtractCaptionTracksAbsent(t *testing.T) {
	_, err := extractCaptionTracks([]byte("<html><body>no player data here</body></html>"))
	if err == nil {
		t.Fatal("expected error")
	}
	if errKind(err) != KindMalformed {
		t.Errorf("kind = %v, want malformed", errKind(err))
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", `{"a":1};rest`, `{"a":1}`},
		{"nested", `{"a":{"b":2}} tail`, `{"a":{"b":2}}`},
		{"brace in string", `{"a":"}{"} tail`, `{"a":"}{"}`},
		{"escaped quote", `{"a":"\"}"} tail`, `{"a":"\"}"}`},
		{"unbalanced", `{"a":1`, ""},
		{"not an object", `[1,2]`, ""},
		{"empty", ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(extractJSON([]byte(tt.input)))
			if got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFirstFetchable(t *testing.T) {
	tracks := []captionTrack{
		{BaseURL: "", LanguageCode: "en"},
		{BaseURL: "https://example.test/fr", LanguageCode: "fr"},
		{BaseURL: "https://example.test/de", LanguageCode: "de", Kind: "asr"},
	}

	if got := firstFetchable(tracks, []string{"en"}); got == nil || got.LanguageCode != "de" {
		t.Errorf("want asr fallback when preferred track has no url, got %+v", got)
	}
	if got := firstFetchable(tracks, []string{"fr"}); got == nil || got.LanguageCode != "fr" {
		t.Errorf("want fr, got %+v", got)
	}
	if got := firstFetchable([]captionTrack{{LanguageCode: "en"}}, []string{"en"}); got != nil {
		t.Errorf("want nil when no track carries a url, got %+v", got)
	}
}

func TestLooksLikeTimedText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"timedtext", `<?xml version="1.0"?><transcript><text start="0">hi</text></transcript>`, true},
		{"leading whitespace", "\n <transcript><text>hi</text></transcript>", true},
		{"empty body", "", false},
		{"whitespace only", "  \n", false},
		{"html error page", "<html><body>error</body></html>", false},
		{"plain text", "not xml", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := looksLikeTimedText([]byte(tt.input)); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPageTitle(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"suffix stripped", `<html><head><title>My Video - YouTube</title></head></html>`, "My Video"},
		{"no suffix", `<html><head><title>Plain</title></head></html>`, "Plain"},
		{"entities", `<html><head><title>A &amp; B - YouTube</title></head></html>`, "A & B"},
		{"missing", `<html><body>nothing</body></html>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pageTitle([]byte(tt.body)); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTimedTextURLFormat(t *testing.T) {
	got := fmt.Sprintf(timedTextURLFormat, "dQw4w9WgXcQ", "en")
	want := "https://www.youtube.com/api/timedtext?v=dQw4w9WgXcQ&lang=en"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
