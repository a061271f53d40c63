package platform

// Package platform contains source-platform and filesystem glue: playlist
// enumeration via the ytdlp library, and the probes the engine runs once at
// startup (writable directories, credential files).
