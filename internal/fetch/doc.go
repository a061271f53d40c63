package fetch

// Package fetch retrieves raw media streams into the staging directory via
// yt-dlp (github.com/lrstanley/go-ytdlp), reporting incremental progress.
// Scheduling, retries and state transitions live in the orchestrator.
