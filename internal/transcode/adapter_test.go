package transcode

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/fetchtube/fetchtube/internal/model"
)

func stubLookPath(t *testing.T, fn func(string) (string, error)) {
	t.Helper()
	orig := lookPath
	lookPath = fn
	t.Cleanup(func() { lookPath = orig })
}

func stubCommand(t *testing.T, script string) {
	t.Helper()
	orig := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", script)
	}
	t.Cleanup(func() { commandContext = orig })
}

func TestAvailableCachesProbe(t *testing.T) {
	calls := 0
	stubLookPath(t, func(string) (string, error) {
		calls++
		return "/usr/bin/ffmpeg", nil
	})

	a := New(zerolog.Nop())
	if !a.Available() {
		t.Fatal("Expected adapter to be available")
	}
	a.Available()
	a.Available()
	if calls != 1 {
		t.Errorf("Expected 1 probe call, got %d", calls)
	}
}

func TestFinalizeMissingDependency(t *testing.T) {
	stubLookPath(t, func(string) (string, error) {
		return "", errors.New("not found")
	})

	a := New(zerolog.Nop())
	if a.Available() {
		t.Fatal("Expected adapter to be unavailable")
	}

	_, err := a.Finalize(context.Background(), Streams{Video: "/tmp/in.mp4"},
		model.FormatDescriptor{}, model.MediaAudioOnly, nil)
	var missing *model.MissingDependencyError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected *MissingDependencyError, got %v", err)
	}
	if missing.Binary != FFmpegCommand {
		t.Errorf("Expected binary %q in error, got %q", FFmpegCommand, missing.Binary)
	}
}

func TestFinalizePassthroughWithoutConversion(t *testing.T) {
	stubLookPath(t, func(string) (string, error) { return "/usr/bin/ffmpeg", nil })

	a := New(zerolog.Nop())
	out, err := a.Finalize(context.Background(), Streams{Video: "/staging/x.media.mp4"},
		model.FormatDescriptor{ID: "22", Height: 720}, model.MediaVideo, nil)
	if err != nil {
		t.Fatalf("Expected passthrough, got %v", err)
	}
	if out != "/staging/x.media.mp4" {
		t.Errorf("Expected input path back, got %s", out)
	}
}

func TestFinalizeMergeSuccess(t *testing.T) {
	stubLookPath(t, func(string) (string, error) { return "/usr/bin/ffmpeg", nil })
	stubCommand(t, "exit 0")

	a := New(zerolog.Nop())
	out, err := a.Finalize(context.Background(),
		Streams{Video: "/staging/x.video.mp4", Audio: "/staging/x.audio.m4a"},
		model.FormatDescriptor{ID: "137", Height: 1080, RequiresMerge: true},
		model.MediaVideo, nil)
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if out != "/staging/x.video.merged.mp4" {
		t.Errorf("Unexpected merge output path %s", out)
	}
}

func TestFinalizeConversionError(t *testing.T) {
	stubLookPath(t, func(string) (string, error) { return "/usr/bin/ffmpeg", nil })
	stubCommand(t, "exit 1")

	a := New(zerolog.Nop())
	_, err := a.Finalize(context.Background(), Streams{Video: "/staging/x.media.mp4"},
		model.FormatDescriptor{ID: "18"}, model.MediaAudioOnly, nil)
	var conversion *model.ConversionError
	if !errors.As(err, &conversion) {
		t.Fatalf("Expected *ConversionError, got %v", err)
	}
}

func TestBuildMergeArgs(t *testing.T) {
	args := buildMergeArgs("v.mp4", "a.m4a", "out.mp4")
	joined := strings.Join(args, " ")

	for _, want := range []string{"-i v.mp4", "-i a.m4a", "-c:v copy", "-c:a " + MergeAudioCodec, "out.mp4"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Expected merge args to contain %q, got %q", want, joined)
		}
	}
}

func TestBuildAudioExtractArgs(t *testing.T) {
	args := buildAudioExtractArgs("in.mp4", "out.mp3")
	joined := strings.Join(args, " ")

	for _, want := range []string{"-vn", "-acodec " + AudioCodec, "-b:a " + AudioBitrate, "out.mp3"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Expected audio args to contain %q, got %q", want, joined)
		}
	}
}

func TestMonitorProgress(t *testing.T) {
	var got []float64
	input := strings.NewReader(strings.Join([]string{
		"frame=10",
		"out_time_us=5000000",
		"out_time_us=10000000",
		"out_time_us=999000000",
	}, "\n"))

	monitorProgress(input, 10, func(p float64) { got = append(got, p) })

	if len(got) != 3 {
		t.Fatalf("Expected 3 progress samples, got %d", len(got))
	}
	if got[0] != 50 || got[1] != 100 {
		t.Errorf("Expected 50 then 100, got %v", got)
	}
	if got[2] != 100 {
		t.Errorf("Expected overshoot clamped to 100, got %v", got[2])
	}
}
