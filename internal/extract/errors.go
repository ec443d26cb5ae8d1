package extract

import "errors"

var (
	// ErrUnsupportedFormat is returned when no extractor handles the MIME type.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrExtractionFailed is returned when a supported file cannot be parsed.
	// The underlying cause is joined into the returned error.
	ErrExtractionFailed = errors.New("text extraction failed")
)

func failed(format string, cause error) error {
	return &Error{Format: format, Err: cause}
}

// Error carries the format that failed and the parser's error.
type Error struct {
	Format string
	Err    error
}

func (e *Error) Error() string {
	return "text extraction failed (" + e.Format + "): " + e.Err.Error()
}

// Is reports ErrExtractionFailed so callers can match with errors.Is.
func (e *Error) Is(target error) bool {
	return target == ErrExtractionFailed
}

func (e *Error) Unwrap() error {
	return e.Err
}
