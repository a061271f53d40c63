package model

import (
	"fmt"
	"strconv"
	"strings"
)

// MediaKind selects the kind of artifact a run should produce
type MediaKind string

const (
	MediaVideo     MediaKind = "video"
	MediaAudioOnly MediaKind = "audio"
)

// QualityRequest describes the desired output. Immutable once a job starts.
// MaxHeight is a resolution ceiling in pixels for video; zero means best
// available. It is ignored for audio-only requests.
type QualityRequest struct {
	Kind      MediaKind
	MaxHeight int
}

// String renders the request the way it is shown in logs and reports.
func (q QualityRequest) String() string {
	if q.Kind == MediaAudioOnly {
		return "best audio"
	}
	if q.MaxHeight <= 0 {
		return "best video"
	}
	return fmt.Sprintf("video <=%dp", q.MaxHeight)
}

// ParseQuality converts a user-facing preset ("best", "audio", "1080p", "480")
// into a QualityRequest.
func ParseQuality(preset string) (QualityRequest, error) {
	p := strings.ToLower(strings.TrimSpace(preset))
	switch p {
	case "", "best":
		return QualityRequest{Kind: MediaVideo}, nil
	case "audio":
		return QualityRequest{Kind: MediaAudioOnly}, nil
	}

	height, err := strconv.Atoi(strings.TrimSuffix(p, "p"))
	if err != nil || height <= 0 {
		return QualityRequest{}, &ValidationError{Input: preset, Reason: "unknown quality preset"}
	}
	return QualityRequest{Kind: MediaVideo, MaxHeight: height}, nil
}
