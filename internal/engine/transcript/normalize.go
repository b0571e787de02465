package transcript

import (
	"encoding/json"
	"encoding/xml"
	"regexp"
	"strings"

	"github.com/captext/captext/internal/engine"
)

// Normalize converts a caption payload into plain text: cue texts in
// document order, joined by single spaces. Pure function of the payload;
// leading/trailing trimming is the caller's business. Fails with a malformed
// StrategyError when the payload does not parse under its declared format.
func Normalize(p *Payload) (string, error) {
	switch p.Format {
	case FormatTimedText:
		return normalizeTimedText(p.Data)
	case FormatTrackJSON:
		return normalizeTrackJSON(p.Data)
	case FormatSRT:
		return normalizeSRT(string(p.Data)), nil
	default:
		return "", kindErr(KindMalformed, "unknown payload format %q", p.Format)
	}
}

func normalizeTimedText(data []byte) (string, error) {
	var tt timedText
	if err := xml.Unmarshal(data, &tt); err != nil {
		return "", kindErr(KindMalformed, "parse timedtext xml: %v", err)
	}

	var sb strings.Builder
	for _, cue := range tt.Cues {
		text := engine.CleanHTML(cue.Text)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

func normalizeTrackJSON(data []byte) (string, error) {
	var cues []trackCue
	if err := json.Unmarshal(data, &cues); err != nil {
		return "", kindErr(KindMalformed, "parse cue list json: %v", err)
	}

	var sb strings.Builder
	for _, cue := range cues {
		text := stripCueTimings(cue.Text)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

// timeRangeRe matches an SRT/subtitle time-range header line such as
// "00:00:00,000 --> 00:00:02,000" (dot separators and trailing cue settings
// tolerated).
var timeRangeRe = regexp.MustCompile(`^\s*\d{2}:\d{2}:\d{2}[,.]\d{3}\s*-->\s*\d{2}:\d{2}:\d{2}[,.]\d{3}.*$`)

var indexLineRe = regexp.MustCompile(`^\s*\d+\s*$`)

// normalizeSRT strips SRT structure down to cue text: the numeric index line
// and the time-range line go, blank-line runs collapse into the single space
// that joins consecutive cues.
func normalizeSRT(data string) string {
	lines := strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n")

	var sb strings.Builder
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if timeRangeRe.MatchString(line) {
			continue
		}
		// An index line only counts as structure when a time range follows.
		if indexLineRe.MatchString(line) && i+1 < len(lines) && timeRangeRe.MatchString(lines[i+1]) {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strings.TrimSpace(line))
	}
	return sb.String()
}

// stripCueTimings applies the SRT stripping rule to a single cue's text,
// which may itself carry embedded header lines.
func stripCueTimings(text string) string {
	if !strings.ContainsRune(text, '\n') {
		return strings.TrimSpace(text)
	}
	return normalizeSRT(text)
}
