package orchestrator

// Package orchestrator implements the download-and-convert engine: it expands
// a locator into an ordered job sequence, drives each job through resolve,
// fetch, convert and place with bounded worker concurrency, isolates per-item
// failures, and folds every outcome into the terminal JobReport.
