package output

// Package output decides where finished artifacts land. The destination root
// follows an explicit environment signal (persistent caller directory vs. a
// process-scoped temp root), filenames are sanitized item titles with
// collision suffixes, and playlist items nest under a per-playlist folder.
