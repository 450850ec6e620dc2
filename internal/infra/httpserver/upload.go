package httpserver

import (
	"errors"
	"mime"
	"net/http"

	"github.com/bryanwahyu/policylens/internal/domain/documents"
	"github.com/bryanwahyu/policylens/internal/middleware"
)

const (
	defaultUploadMax = 50 << 20
	// multipart parts above this spill to temp files
	uploadMemory = 8 << 20
)

type uploadResponse struct {
	Text     string          `json:"text"`
	NumPages int             `json:"numPages"`
	FileName string          `json:"fileName"`
	Info     *documents.Info `json:"info,omitempty"`
}

// POST /api/upload/pdf (multipart, field "pdf")
func (r *Router) handleUploadPDF(w http.ResponseWriter, req *http.Request) error {
	limit := r.Options.UploadMaxBytes
	if limit <= 0 {
		limit = defaultUploadMax
	}
	// headroom for the multipart envelope; the file itself is checked below
	req.Body = http.MaxBytesReader(w, req.Body, limit+1<<20)
	if err := req.ParseMultipartForm(uploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &statusError{code: http.StatusRequestEntityTooLarge, msg: "File too large"}
		}
		return badRequest("No PDF file uploaded")
	}
	defer req.MultipartForm.RemoveAll()

	file, header, err := req.FormFile("pdf")
	if err != nil {
		return badRequest("No PDF file uploaded")
	}
	defer file.Close()

	if header.Size > limit {
		return &statusError{code: http.StatusRequestEntityTooLarge, msg: "File too large"}
	}
	if mt, _, err := mime.ParseMediaType(header.Header.Get("Content-Type")); err != nil || mt != "application/pdf" {
		return badRequest("Only PDF files are allowed")
	}

	ext, err := r.PDF.Extract(req.Context(), file, header.Size)
	if err != nil {
		return err
	}
	middleware.IncrementUploads()

	return writeJSON(w, http.StatusOK, uploadResponse{
		Text:     ext.Text,
		NumPages: ext.NumPages,
		FileName: header.Filename,
		Info:     ext.Info,
	})
}
