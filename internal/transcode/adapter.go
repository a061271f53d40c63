package transcode

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/fetchtube/fetchtube/internal/model"
)

// FFmpeg invocation constants
const (
	FFmpegCommand  = "ffmpeg"
	FFprobeCommand = "ffprobe"

	// Audio extraction settings, matching the platform's common mp3 target
	AudioCodec   = "libmp3lame"
	AudioBitrate = "192k"

	// Merge settings: copy the video stream, normalize audio for the mp4
	// container
	MergeAudioCodec = "aac"
	FastStartFlag   = "+faststart"

	// Progress plumbing
	ProgressPipeTarget = "pipe:2"
	ProgressTimePrefix = "out_time_us="

	// ffprobe duration query
	FFprobeLogLevel     = "error"
	FFprobeShowEntries  = "format=duration"
	FFprobeOutputFormat = "csv=p=0"

	MergedSuffix       = ".merged"
	OutputExtensionMP4 = ".mp4"
	OutputExtensionMP3 = ".mp3"
)

// Swappable for tests so no real process is spawned
var (
	commandContext = exec.CommandContext
	lookPath       = exec.LookPath
)

// Streams are the raw downloaded inputs to finalize. Audio is empty unless
// the chosen descriptor required separate video and audio streams.
type Streams struct {
	Video string
	Audio string
}

// Option configures the adapter.
type Option func(*Adapter)

// WithBinary overrides the default ffmpeg binary name.
func WithBinary(binary string) Option {
	return func(a *Adapter) {
		if binary != "" {
			a.binary = binary
		}
	}
}

// Adapter wraps the ffmpeg binary behind the engine's capability interface.
type Adapter struct {
	binary    string
	probeOnce sync.Once
	probeErr  error
	log       zerolog.Logger
}

// New constructs an Adapter using defaults.
func New(log zerolog.Logger, opts ...Option) *Adapter {
	a := &Adapter{binary: FFmpegCommand, log: log}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Available reports whether the external processor can be invoked. The probe
// runs once per adapter and the result is cached for the run's lifetime.
func (a *Adapter) Available() bool {
	return a.probe() == nil
}

func (a *Adapter) probe() error {
	a.probeOnce.Do(func() {
		_, a.probeErr = lookPath(a.binary)
	})
	return a.probeErr
}

// Finalize produces the final local artifact from raw streams: merges split
// video/audio when present, transcodes to mp3 for audio-only requests, and
// passes a single combined video stream through untouched. progress receives
// percentages in [0,100] and may be nil.
func (a *Adapter) Finalize(ctx context.Context, in Streams, desc model.FormatDescriptor, kind model.MediaKind, progress func(percent float64)) (string, error) {
	if err := a.probe(); err != nil {
		return "", &model.MissingDependencyError{Binary: a.binary}
	}
	if in.Video == "" {
		return "", &model.ConversionError{Input: "", Err: fmt.Errorf("no input stream")}
	}

	var outputPath string
	var args []string
	switch {
	case kind == model.MediaAudioOnly:
		outputPath = stem(in.Video) + OutputExtensionMP3
		args = buildAudioExtractArgs(in.Video, outputPath)
	case in.Audio != "":
		outputPath = stem(in.Video) + MergedSuffix + OutputExtensionMP4
		args = buildMergeArgs(in.Video, in.Audio, outputPath)
	default:
		// Combined stream already in its final form
		return in.Video, nil
	}

	// Duration drives percentage progress; without it conversion still runs
	duration, err := a.mediaDuration(ctx, in.Video)
	if err != nil {
		a.log.Debug().Err(err).Msg("duration probe failed, progress will be indeterminate")
		duration = 0
	}

	cmd := commandContext(ctx, a.binary, args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", &model.ConversionError{Input: in.Video, Err: fmt.Errorf("stderr pipe: %w", err)}
	}
	if err := cmd.Start(); err != nil {
		return "", &model.ConversionError{Input: in.Video, Err: fmt.Errorf("start %s: %w", a.binary, err)}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		monitorProgress(stderr, duration, progress)
	}()

	err = cmd.Wait()
	<-done

	if ctx.Err() != nil {
		os.Remove(outputPath)
		return "", ctx.Err()
	}
	if err != nil {
		os.Remove(outputPath)
		return "", &model.ConversionError{Input: in.Video, Err: fmt.Errorf("%s: %w", a.binary, err)}
	}

	if progress != nil {
		progress(100)
	}
	return outputPath, nil
}

// buildMergeArgs merges a video-only and an audio-only stream into one mp4.
func buildMergeArgs(videoPath, audioPath, outputPath string) []string {
	return []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", MergeAudioCodec,
		"-b:a", AudioBitrate,
		"-movflags", FastStartFlag,
		"-progress", ProgressPipeTarget,
		"-nostats",
		outputPath,
	}
}

// buildAudioExtractArgs transcodes any input to the target audio codec.
func buildAudioExtractArgs(inputPath, outputPath string) []string {
	return []string{
		"-y",
		"-i", inputPath,
		"-vn",
		"-acodec", AudioCodec,
		"-b:a", AudioBitrate,
		"-progress", ProgressPipeTarget,
		"-nostats",
		outputPath,
	}
}

// mediaDuration queries the input duration in seconds using ffprobe.
func (a *Adapter) mediaDuration(ctx context.Context, path string) (float64, error) {
	cmd := commandContext(ctx, FFprobeCommand,
		"-v", FFprobeLogLevel,
		"-show_entries", FFprobeShowEntries,
		"-of", FFprobeOutputFormat,
		path)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to run ffprobe: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}
	return duration, nil
}

// monitorProgress parses ffmpeg -progress output (out_time_us=N lines) and
// reports percentages against the known total duration.
func monitorProgress(r io.Reader, totalDuration float64, progress func(float64)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, ProgressTimePrefix) {
			continue
		}
		if progress == nil || totalDuration <= 0 {
			continue
		}

		micros, err := strconv.ParseInt(strings.TrimPrefix(line, ProgressTimePrefix), 10, 64)
		if err != nil {
			continue
		}
		percent := float64(micros) / 1e6 / totalDuration * 100
		if percent > 100 {
			percent = 100
		}
		progress(percent)
	}
}

func stem(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}
