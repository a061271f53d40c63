package model

import (
	"fmt"
	"net/url"
	"strings"
)

// LocatorKind distinguishes a single item from a playlist reference
type LocatorKind string

const (
	KindSingleItem LocatorKind = "single"
	KindPlaylist   LocatorKind = "playlist"
)

// Known host suffixes for the source platform
var knownHosts = map[string]bool{
	"youtube.com":       true,
	"www.youtube.com":   true,
	"m.youtube.com":     true,
	"music.youtube.com": true,
	"youtu.be":          true,
}

// Locator is a validated reference to a remote single item or playlist.
// Validation happens exactly once, in ParseLocator, before any network call.
type Locator struct {
	Raw        string
	Kind       LocatorKind
	VideoID    string
	PlaylistID string
}

// ParseLocator validates a raw URL against the source platform's known URL
// shapes and classifies it as a single item or a playlist. It performs no I/O.
func ParseLocator(raw string) (Locator, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Locator{}, &ValidationError{Input: raw, Reason: "empty locator"}
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return Locator{}, &ValidationError{Input: raw, Reason: fmt.Sprintf("not a URL: %v", err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Locator{}, &ValidationError{Input: raw, Reason: "scheme must be http or https"}
	}
	if !knownHosts[strings.ToLower(u.Hostname())] {
		return Locator{}, &ValidationError{Input: raw, Reason: fmt.Sprintf("unsupported host %q", u.Hostname())}
	}

	loc := Locator{Raw: trimmed}
	query := u.Query()

	if id := query.Get("list"); id != "" {
		loc.Kind = KindPlaylist
		loc.PlaylistID = id
		return loc, nil
	}

	switch {
	case strings.EqualFold(u.Hostname(), "youtu.be"):
		loc.VideoID = strings.Trim(u.Path, "/")
	case strings.HasPrefix(u.Path, "/watch"):
		loc.VideoID = query.Get("v")
	case strings.HasPrefix(u.Path, "/shorts/"):
		loc.VideoID = strings.Trim(strings.TrimPrefix(u.Path, "/shorts/"), "/")
	case strings.HasPrefix(u.Path, "/live/"):
		loc.VideoID = strings.Trim(strings.TrimPrefix(u.Path, "/live/"), "/")
	case strings.HasPrefix(u.Path, "/playlist"):
		return Locator{}, &ValidationError{Input: raw, Reason: "playlist URL without list parameter"}
	}

	if loc.VideoID == "" {
		return Locator{}, &ValidationError{Input: raw, Reason: "no video or playlist reference in URL"}
	}
	loc.Kind = KindSingleItem
	return loc, nil
}

// WatchURL returns the canonical single-item URL for a video ID.
func WatchURL(videoID string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
}
