package detds

import (
	"fmt"
)

// LoadError reports an image that could not be opened or decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("could not read image %q: %v", e.Path, e.Err)
}

// Unwrap returns the underlying decode or I/O error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// ParseError reports a malformed line in a YOLO label file. Line is 1-based.
type ParseError struct {
	Path string
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: cannot parse %q: %v", e.Path, e.Line, e.Text, e.Err)
}

// Unwrap returns the underlying strconv error, if any.
func (e *ParseError) Unwrap() error {
	return e.Err
}
