package transcode

// Package transcode wraps the external ffmpeg binary to finalize raw streams:
// merging separate video/audio downloads into one container and extracting
// audio for audio-only requests. Availability is probed once per process and
// cached; a missing binary surfaces as a single structured capability failure.
