package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/fetchtube/fetchtube/internal/model"
)

func videoCatalog() []model.FormatDescriptor {
	return []model.FormatDescriptor{
		{ID: "18", Container: "mp4", Height: 360},
		{ID: "135", Container: "mp4", Height: 480, RequiresMerge: true},
		{ID: "22", Container: "mp4", Height: 720},
		{ID: "137", Container: "mp4", Height: 1080, RequiresMerge: true},
		{ID: "140", Container: "m4a", AudioBitrate: 129},
		{ID: "251", Container: "webm", AudioBitrate: 160},
	}
}

func TestSelectVideoRespectsCeiling(t *testing.T) {
	req := model.QualityRequest{Kind: model.MediaVideo, MaxHeight: 720}
	chosen, err := Select(videoCatalog(), req)
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if chosen.ID != "22" || chosen.Height != 720 {
		t.Errorf("Expected format 22 at 720p, got %s at %dp", chosen.ID, chosen.Height)
	}
	if chosen.Note != "" {
		t.Errorf("Expected no downgrade note, got %q", chosen.Note)
	}
}

func TestSelectVideoBestWhenNoCeiling(t *testing.T) {
	req := model.QualityRequest{Kind: model.MediaVideo}
	chosen, err := Select(videoCatalog(), req)
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if chosen.Height != 1080 {
		t.Errorf("Expected 1080p, got %dp", chosen.Height)
	}
	if !chosen.RequiresMerge {
		t.Error("Expected 1080p descriptor to require a merge")
	}
}

func TestSelectVideoDowngradesInsteadOfFailing(t *testing.T) {
	formats := []model.FormatDescriptor{
		{ID: "a", Height: 480},
		{ID: "b", Height: 360},
	}
	// Requesting below everything available: 240p ceiling over a 360p minimum
	req := model.QualityRequest{Kind: model.MediaVideo, MaxHeight: 240}
	chosen, err := Select(formats, req)
	if err != nil {
		t.Fatalf("Expected downgrade, got error: %v", err)
	}
	if chosen.Height != 360 {
		t.Errorf("Expected lowest available 360p, got %dp", chosen.Height)
	}
	if !strings.Contains(chosen.Note, "downgraded") {
		t.Errorf("Expected downgrade note, got %q", chosen.Note)
	}
}

func TestSelectVideoNotesUnmetCeiling(t *testing.T) {
	formats := []model.FormatDescriptor{
		{ID: "a", Height: 360},
		{ID: "b", Height: 480},
	}
	req := model.QualityRequest{Kind: model.MediaVideo, MaxHeight: 1080}
	chosen, err := Select(formats, req)
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if chosen.Height != 480 {
		t.Errorf("Expected best available 480p, got %dp", chosen.Height)
	}
	if !strings.Contains(chosen.Note, "480p") {
		t.Errorf("Expected downgrade note mentioning 480p, got %q", chosen.Note)
	}
}

func TestSelectVideoNoFormats(t *testing.T) {
	onlyAudio := []model.FormatDescriptor{{ID: "140", AudioBitrate: 129}}
	req := model.QualityRequest{Kind: model.MediaVideo, MaxHeight: 1080}
	_, err := Select(onlyAudio, req)
	if err == nil {
		t.Fatal("Expected NoMatchingFormatError, got nil")
	}
	var noMatch *model.NoMatchingFormatError
	if !errors.As(err, &noMatch) {
		t.Errorf("Expected *NoMatchingFormatError, got %T", err)
	}
}

func TestSelectAudioPrefersHighestBitrate(t *testing.T) {
	req := model.QualityRequest{Kind: model.MediaAudioOnly}
	chosen, err := Select(videoCatalog(), req)
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if chosen.ID != "251" {
		t.Errorf("Expected format 251, got %s", chosen.ID)
	}
	if chosen.AudioExtract {
		t.Error("Audio-only stream should not be marked for extraction")
	}
}

func TestSelectAudioFallsBackToCombined(t *testing.T) {
	formats := []model.FormatDescriptor{
		{ID: "18", Height: 360},
		{ID: "22", Height: 720},
		{ID: "137", Height: 1080, RequiresMerge: true}, // video-only, no track to extract
	}
	req := model.QualityRequest{Kind: model.MediaAudioOnly}
	chosen, err := Select(formats, req)
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if chosen.ID != "22" {
		t.Errorf("Expected best combined format 22, got %s", chosen.ID)
	}
	if !chosen.AudioExtract {
		t.Error("Expected combined fallback to be marked for audio extraction")
	}
}

func TestSelectAudioNoUsableFormats(t *testing.T) {
	videoOnly := []model.FormatDescriptor{{ID: "137", Height: 1080, RequiresMerge: true}}
	req := model.QualityRequest{Kind: model.MediaAudioOnly}
	_, err := Select(videoOnly, req)
	var noMatch *model.NoMatchingFormatError
	if !errors.As(err, &noMatch) {
		t.Errorf("Expected *NoMatchingFormatError, got %v", err)
	}
}
