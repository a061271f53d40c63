package catalog

// Package catalog implements format negotiation: resolving the set of
// available encodings for an item through yt-dlp's metadata dump, and
// selecting one descriptor against a quality request. Each item is resolved
// independently; formats vary per item so nothing is cached across a playlist.
