package transcript

import (
	"net/url"
	"regexp"
	"strings"
)

// Identifier resolution. The host exposes the same video under many URL
// shapes (watch, youtu.be, embed, /v/, live, shorts); all of them reduce to
// one canonical token.

var idTokenRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var hostDomains = map[string]bool{
	"youtube.com":       true,
	"www.youtube.com":   true,
	"m.youtube.com":     true,
	"music.youtube.com": true,
}

// ResolveVideoID derives the canonical video identifier from a raw URL or a
// bare identifier token. Fails with an invalid_url StrategyError for any
// host or shape it does not recognize.
func ResolveVideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", kindErr(KindInvalidURL, "empty input")
	}

	// Bare 11-char identifier, pasted without a URL.
	if len(raw) == 11 && idTokenRe.MatchString(raw) {
		return raw, nil
	}

	// Strip extraneous query parameters (&list=..., &t=...), but keep the
	// tail when the v= parameter only appears after the first & — that
	// happens when several URLs were concatenated into one string.
	if idx := strings.Index(raw, "&"); idx >= 0 {
		if strings.Contains(raw[:idx], "v=") || !strings.Contains(raw[idx:], "v=") {
			raw = raw[:idx]
		}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", &StrategyError{Kind: KindInvalidURL, Detail: "unparseable url", Err: err}
	}

	host := strings.ToLower(u.Hostname())
	segs := pathSegments(u.Path)

	switch {
	case host == "youtu.be":
		if len(segs) == 0 {
			return "", kindErr(KindInvalidURL, "youtu.be url without a path: %q", raw)
		}
		return validID(segs[0], raw)

	case hostDomains[host]:
		if hasSegment(segs, "watch") {
			id := u.Query().Get("v")
			if id == "" {
				return "", kindErr(KindInvalidURL, "watch url without v parameter: %q", raw)
			}
			return validID(id, raw)
		}
		if i := segmentIndex(segs, "live"); i >= 0 {
			if i+1 >= len(segs) {
				return "", kindErr(KindInvalidURL, "live url without an identifier: %q", raw)
			}
			return validID(segs[i+1], raw)
		}
		if hasSegment(segs, "embed") || hasSegment(segs, "v") {
			return validID(segs[len(segs)-1], raw)
		}
		if hasSegment(segs, "shorts") {
			return validID(segs[len(segs)-1], raw)
		}
		return "", kindErr(KindInvalidURL, "unrecognized url shape: %q", raw)

	default:
		return "", kindErr(KindInvalidURL, "unrecognized host %q", host)
	}
}

func validID(id, raw string) (string, error) {
	if id == "" || !idTokenRe.MatchString(id) {
		return "", kindErr(KindInvalidURL, "no usable identifier in %q", raw)
	}
	return id, nil
}

func pathSegments(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

func hasSegment(segs []string, want string) bool {
	return segmentIndex(segs, want) >= 0
}

func segmentIndex(segs []string, want string) int {
	for i, s := range segs {
		if s == want {
			return i
		}
	}
	return -1
}

var (
	lineBreakRe = regexp.MustCompile(`[\r\n]+`)
	schemeRe    = regexp.MustCompile(`https?://`)
	bareURLRe   = regexp.MustCompile(`https?://[^\s]+`)
)

// SplitURLs recovers individual URLs from freeform text, including the case
// where several URLs were pasted with no separator at all. It never fails;
// an empty slice means no URLs were found.
func SplitURLs(text string) []string {
	var urls []string
	for _, line := range lineBreakRe.Split(strings.TrimSpace(text), -1) {
		locs := schemeRe.FindAllStringIndex(line, -1)
		for i, loc := range locs {
			end := len(line)
			if i+1 < len(locs) {
				end = locs[i+1][0]
			}
			u := strings.TrimSpace(line[loc[0]:end])
			// A candidate ends where the URL text does, not where the user's
			// surrounding prose does.
			if ws := strings.IndexAny(u, " \t"); ws >= 0 {
				u = u[:ws]
			}
			if u != "" && u != "http://" && u != "https://" {
				urls = append(urls, u)
			}
		}
	}
	if len(urls) == 0 {
		urls = bareURLRe.FindAllString(text, -1)
	}
	return urls
}
