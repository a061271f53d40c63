package catalog

import (
	"testing"
)

const sampleInfoDump = `{
	"id": "dQw4w9WgXcQ",
	"title": "Sample Video",
	"duration": 212.5,
	"formats": [
		{"format_id": "sb0", "ext": "mhtml", "vcodec": "none", "acodec": "none"},
		{"format_id": "140", "ext": "m4a", "vcodec": "none", "acodec": "mp4a.40.2", "abr": 129.5, "filesize": 3400000},
		{"format_id": "18", "ext": "mp4", "height": 360, "vcodec": "avc1.42001E", "acodec": "mp4a.40.2", "filesize_approx": 12000000},
		{"format_id": "137", "ext": "mp4", "height": 1080, "vcodec": "avc1.640028", "acodec": "none", "filesize": 98000000}
	]
}`

func TestParseInfoJSON(t *testing.T) {
	details, err := parseInfoJSON([]byte(sampleInfoDump))
	if err != nil {
		t.Fatalf("parseInfoJSON failed: %v", err)
	}

	if details.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("Expected video id dQw4w9WgXcQ, got %q", details.VideoID)
	}
	if details.Title != "Sample Video" {
		t.Errorf("Expected title 'Sample Video', got %q", details.Title)
	}
	if details.Duration != 212.5 {
		t.Errorf("Expected duration 212.5, got %v", details.Duration)
	}

	// Storyboard entry is dropped
	if len(details.Formats) != 3 {
		t.Fatalf("Expected 3 usable formats, got %d", len(details.Formats))
	}

	// Sorted worst-to-best: audio-only first, then by height
	if details.Formats[0].ID != "140" || !details.Formats[0].IsAudioOnly() {
		t.Errorf("Expected audio-only format 140 first, got %+v", details.Formats[0])
	}
	if details.Formats[2].ID != "137" {
		t.Errorf("Expected 1080p format last, got %+v", details.Formats[2])
	}
	if !details.Formats[2].RequiresMerge {
		t.Error("Expected video-only 137 to require merge")
	}
	if details.Formats[1].RequiresMerge {
		t.Error("Expected combined format 18 to not require merge")
	}

	// filesize_approx used when filesize is absent
	if details.Formats[1].EstimatedSize != 12000000 {
		t.Errorf("Expected approx size fallback, got %d", details.Formats[1].EstimatedSize)
	}
}

func TestParseInfoJSONRejectsGarbage(t *testing.T) {
	if _, err := parseInfoJSON([]byte("not json")); err == nil {
		t.Error("Expected error for invalid JSON")
	}
	if _, err := parseInfoJSON([]byte(`{"title": "no id"}`)); err == nil {
		t.Error("Expected error for dump without id")
	}
}
