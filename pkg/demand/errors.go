package demand

import (
	"errors"
	"fmt"
)

// TransportError reports that a source document could not be retrieved or
// decoded. It is remembered by the Parser that produced it.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports a line that a Format claims holds a record but which is
// missing, short, or carries a non-numeric amount. Line is zero-based.
type ParseError struct {
	Line   int
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d: %s: %v", e.Line, e.Reason, e.Err)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrUnsupportedEncoding is returned when a Format names an encoding the
// fetcher cannot decode.
var ErrUnsupportedEncoding = errors.New("unsupported encoding")

// ErrDocumentTooLarge is returned when a feed exceeds the download limit.
var ErrDocumentTooLarge = errors.New("document too large")

// ErrInvalidEncoding is returned when the body has bytes the declared
// encoding cannot decode.
var ErrInvalidEncoding = errors.New("invalid encoding")

// IsTransport reports whether err is, or wraps, a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsParse reports whether err is, or wraps, a *ParseError.
func IsParse(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
