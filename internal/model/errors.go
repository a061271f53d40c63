package model

import (
	"errors"
	"fmt"
)

// FailureKind folds the error taxonomy into a reportable category
type FailureKind string

const (
	FailureNone              FailureKind = ""
	FailureValidation        FailureKind = "validation"
	FailureResolution        FailureKind = "resolution"
	FailureNoMatchingFormat  FailureKind = "no_matching_format"
	FailureConversion        FailureKind = "conversion"
	FailureMissingDependency FailureKind = "missing_dependency"
	FailureFetch             FailureKind = "fetch"
	FailureFilesystem        FailureKind = "filesystem"
	FailureCancelled         FailureKind = "cancelled"
	FailureUnknown           FailureKind = "unknown"
)

// ValidationError rejects a bad locator or option before any I/O happens.
type ValidationError struct {
	Input  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input %q: %s", e.Input, e.Reason)
}

// ResolutionError means the remote resolver could not enumerate formats.
type ResolutionError struct {
	URL string
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving %s: %v", e.URL, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// NoMatchingFormatError means no descriptor satisfies the quality request.
type NoMatchingFormatError struct {
	Request string
}

func (e *NoMatchingFormatError) Error() string {
	return fmt.Sprintf("no format matches request %q", e.Request)
}

// ConversionError means the external processor exited with a failure.
type ConversionError struct {
	Input string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("converting %s: %v", e.Input, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// MissingDependencyError means the external processor binary is not installed.
// One instance is shared across every job that needed it in a run.
type MissingDependencyError struct {
	Binary string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("%s is required but was not found; install it and retry", e.Binary)
}

// FetchError wraps a stream download failure. Transient failures (network
// timeouts, interrupted transfers) are eligible for one retry.
type FetchError struct {
	URL       string
	Err       error
	Transient bool
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// FilesystemError wraps a placement failure: permissions, containment
// violations, disk full.
type FilesystemError struct {
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("filesystem error at %s: %v", e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// Classify maps an error onto its FailureKind for reporting.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureNone
	}

	var (
		validation *ValidationError
		resolution *ResolutionError
		noFormat   *NoMatchingFormatError
		conversion *ConversionError
		missing    *MissingDependencyError
		fetch      *FetchError
		filesystem *FilesystemError
	)
	switch {
	case errors.As(err, &validation):
		return FailureValidation
	case errors.As(err, &missing):
		return FailureMissingDependency
	case errors.As(err, &resolution):
		return FailureResolution
	case errors.As(err, &noFormat):
		return FailureNoMatchingFormat
	case errors.As(err, &conversion):
		return FailureConversion
	case errors.As(err, &fetch):
		return FailureFetch
	case errors.As(err, &filesystem):
		return FailureFilesystem
	}
	return FailureUnknown
}

// IsTransientFetch reports whether the error is a fetch failure eligible for
// the bounded retry.
func IsTransientFetch(err error) bool {
	var fetch *FetchError
	return errors.As(err, &fetch) && fetch.Transient
}
