// Package docerr holds the failure taxonomy of the document pipeline.
//
// ExtractionError and UpstreamError abort a document run. AnnotationError is
// absorbed at the annotation boundary and only costs the highlighted output.
package docerr

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrNotFound          = errors.New("document not found")
	ErrEmptyDocument     = errors.New("document has no extractable text")
	ErrMalformedResponse = errors.New("malformed model response")
)

type ExtractionError struct {
	Path string
	Op   string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s (%s): %v", e.Path, e.Op, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

type UpstreamError struct {
	Path string
	Op   string
	Err  error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s (%s): %v", e.Path, e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

type AnnotationError struct {
	Path   string
	Format string
	Err    error
}

func (e *AnnotationError) Error() string {
	return fmt.Sprintf("annotate %s %s: %v", e.Format, e.Path, e.Err)
}

func (e *AnnotationError) Unwrap() error { return e.Err }

func IsExtraction(err error) bool {
	var e *ExtractionError
	return errors.As(err, &e)
}

func IsUpstream(err error) bool {
	var e *UpstreamError
	return errors.As(err, &e)
}

func IsAnnotation(err error) bool {
	var e *AnnotationError
	return errors.As(err, &e)
}
