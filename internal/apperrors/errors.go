package apperrors

import "fmt"

// ErrMetadataUnavailable is returned when title resolution failed or produced no title.
type ErrMetadataUnavailable struct {
	ContentID string
	Cause     error
}

// Error implements the error interface.
func (e *ErrMetadataUnavailable) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("metadata unavailable for %s: %v", e.ContentID, e.Cause)
	}
	return fmt.Sprintf("metadata unavailable for %s", e.ContentID)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *ErrMetadataUnavailable) Unwrap() error { return e.Cause }

// Is allows for error checking with errors.Is().
func (e *ErrMetadataUnavailable) Is(target error) bool {
	_, ok := target.(*ErrMetadataUnavailable)
	return ok
}

// ErrSearchTimeout is returned when a single search strategy exceeded its time limit.
type ErrSearchTimeout struct {
	Query string
}

// Error implements the error interface.
func (e *ErrSearchTimeout) Error() string {
	return fmt.Sprintf("search timed out for query %q", e.Query)
}

// Is allows for error checking with errors.Is().
func (e *ErrSearchTimeout) Is(target error) bool {
	_, ok := target.(*ErrSearchTimeout)
	return ok
}

// ErrNoCandidatesFound is returned when every strategy came back empty.
type ErrNoCandidatesFound struct {
	Title string
}

// Error implements the error interface.
func (e *ErrNoCandidatesFound) Error() string {
	return fmt.Sprintf("no subtitle candidates found for %q", e.Title)
}

// Is allows for error checking with errors.Is().
func (e *ErrNoCandidatesFound) Is(target error) bool {
	_, ok := target.(*ErrNoCandidatesFound)
	return ok
}

// ErrAccessRejected is returned when the site reports the access hash invalid or expired.
type ErrAccessRejected struct {
	SubtitleID string
}

// Error implements the error interface.
func (e *ErrAccessRejected) Error() string {
	return fmt.Sprintf("site rejected access hash for subtitle %s", e.SubtitleID)
}

// Is allows for error checking with errors.Is().
func (e *ErrAccessRejected) Is(target error) bool {
	_, ok := target.(*ErrAccessRejected)
	return ok
}

// ErrArchiveExtraction is returned when both the in-process zip reader and the
// external tool fallback failed to produce a subtitle file.
type ErrArchiveExtraction struct {
	Reason string
}

// Error implements the error interface.
func (e *ErrArchiveExtraction) Error() string {
	return fmt.Sprintf("archive extraction failed: %s", e.Reason)
}

// Is allows for error checking with errors.Is().
func (e *ErrArchiveExtraction) Is(target error) bool {
	_, ok := target.(*ErrArchiveExtraction)
	return ok
}

// ErrConversionFailure is returned when ASS to WebVTT transcoding produced no usable cues.
type ErrConversionFailure struct {
	Reason string
}

// Error implements the error interface.
func (e *ErrConversionFailure) Error() string {
	return fmt.Sprintf("subtitle conversion failed: %s", e.Reason)
}

// Is allows for error checking with errors.Is().
func (e *ErrConversionFailure) Is(target error) bool {
	_, ok := target.(*ErrConversionFailure)
	return ok
}
