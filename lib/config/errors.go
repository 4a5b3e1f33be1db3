package config

import (
	"errors"
	"fmt"
)

// Sentinel reasons a candidate root configuration is rejected. Callers match
// them with errors.Is; the wrapping PathError carries the offending field
// and value.
var (
	// ErrPathNotFound: the metadata path does not exist as a directory.
	ErrPathNotFound = errors.New("path not found")

	// ErrAccessDenied: the metadata path exists but is not writable.
	ErrAccessDenied = errors.New("access denied")

	// ErrFileNotFound: the certificate path does not exist as a file.
	ErrFileNotFound = errors.New("file not found")
)

// PathError is the structured rejection returned by ReplaceRoot when a
// filesystem rule fails. Field names the configuration field, Path the
// offending value, Reason one of the sentinel errors above.
type PathError struct {
	Field  string
	Path   string
	Reason error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("configuration rejected: %s %q: %v", e.Field, e.Path, e.Reason)
}

func (e *PathError) Unwrap() error {
	return e.Reason
}

// newPathError builds a rejection for the given field and value.
func newPathError(field, path string, reason error) error {
	return &PathError{Field: field, Path: path, Reason: reason}
}
