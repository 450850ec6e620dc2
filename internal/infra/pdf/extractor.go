package pdf

import (
	"context"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/bryanwahyu/policylens/internal/domain/documents"
)

var spaceRx = regexp.MustCompile(`\s+`)

// CleanText collapses runs of whitespace into single spaces and trims the result.
func CleanText(s string) string {
	return strings.TrimSpace(spaceRx.ReplaceAllString(s, " "))
}

// Extractor pulls plain text out of PDFs with ledongthuc/pdf.
type Extractor struct{}

func New() *Extractor { return &Extractor{} }

// Extract reads every page. The parser panics on some malformed inputs, so panics are
// turned into documents.ErrUnreadable.
func (e *Extractor) Extract(ctx context.Context, r io.ReaderAt, size int64) (out *documents.Extraction, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("pdf parse panic: %v", rec)
			out, err = nil, documents.ErrUnreadable
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", documents.ErrUnreadable, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", documents.ErrUnreadable, err)
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", documents.ErrUnreadable, err)
	}

	return &documents.Extraction{
		Text:     CleanText(string(raw)),
		NumPages: reader.NumPage(),
		Info:     readInfo(reader),
	}, nil
}

func readInfo(r *pdf.Reader) *documents.Info {
	info := r.Trailer().Key("Info")
	if info.IsNull() {
		return nil
	}
	out := &documents.Info{
		Title:   info.Key("Title").Text(),
		Author:  info.Key("Author").Text(),
		Subject: info.Key("Subject").Text(),
	}
	if *out == (documents.Info{}) {
		return nil
	}
	return out
}
