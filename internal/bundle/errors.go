package bundle

import "fmt"

// ErrorKind classifies update failures. Each kind is itself an error so
// callers can test with errors.Is(err, bundle.ErrArchiveCorrupt).
type ErrorKind string

const (
	ErrFetchFailed      ErrorKind = "fetch failed"
	ErrArchiveCorrupt   ErrorKind = "archive corrupt"
	ErrExtractionFailed ErrorKind = "extraction failed"
	ErrBundleCorrupt    ErrorKind = "bundle corrupt"
	ErrStorageIO        ErrorKind = "storage i/o failed"
	ErrInvalidRequest   ErrorKind = "invalid request"
)

func (k ErrorKind) Error() string { return string(k) }

// Outcome returns the metric/report label for the kind.
func (k ErrorKind) Outcome() string {
	switch k {
	case ErrFetchFailed:
		return "fetch_failed"
	case ErrArchiveCorrupt:
		return "archive_corrupt"
	case ErrExtractionFailed:
		return "extraction_failed"
	case ErrBundleCorrupt:
		return "bundle_corrupt"
	case ErrStorageIO:
		return "storage_io_failed"
	case ErrInvalidRequest:
		return "invalid_request"
	default:
		return "unknown"
	}
}

// Retryable reports whether repeating the same request may succeed.
// Integrity and extraction failures need new inputs.
func (k ErrorKind) Retryable() bool {
	return k == ErrFetchFailed || k == ErrStorageIO
}

// UpdateError is returned by every failed update attempt.
type UpdateError struct {
	Kind    ErrorKind
	Version string
	Op      string
	Err     error
}

// NewUpdateError wraps err as kind for the given version and step.
func NewUpdateError(kind ErrorKind, version, op string, err error) *UpdateError {
	return &UpdateError{Kind: kind, Version: version, Op: op, Err: err}
}

func (e *UpdateError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("update %s: %s: %s", e.Version, e.Op, e.Kind)
	}
	return fmt.Sprintf("update %s: %s: %s: %v", e.Version, e.Op, e.Kind, e.Err)
}

func (e *UpdateError) Unwrap() error { return e.Err }

// Is matches the error's kind.
func (e *UpdateError) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

// Retryable reports whether repeating the same request may succeed.
func (e *UpdateError) Retryable() bool { return e.Kind.Retryable() }
