package documents

import (
	"context"
	"errors"
	"io"
)

// ErrUnreadable is returned when the upload cannot be parsed as a PDF.
var ErrUnreadable = errors.New("pdf could not be parsed")

// Extractor port for text extraction libraries.
type Extractor interface {
	Extract(ctx context.Context, r io.ReaderAt, size int64) (*Extraction, error)
}
