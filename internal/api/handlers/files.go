package handlers

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/video-stream/transcript-studio/internal/storage"
	"github.com/video-stream/transcript-studio/internal/subtitle"
)

type FilesHandler struct {
	store *storage.Store
}

func NewFilesHandler(store *storage.Store) *FilesHandler {
	return &FilesHandler{store: store}
}

// Download serves a rendered file as an attachment.
func (h *FilesHandler) Download(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "attachment")
}

// View serves a rendered file inline, so the HTML transcript opens in the
// browser.
func (h *FilesHandler) View(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "inline")
}

func (h *FilesHandler) serve(w http.ResponseWriter, r *http.Request, disposition string) {
	name := urlParam(r, "name")
	f, info, err := h.store.Open(urlParam(r, "jobID"), name)
	if err != nil {
		writeError(w, err)
		return
	}
	defer f.Close()

	ctype, err := contentType(name, f)
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": name}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// contentType prefers the transcript format implied by the extension and
// sniffs anything else. The reader is rewound afterwards.
func contentType(name string, rs io.ReadSeeker) (string, error) {
	if f, err := subtitle.ParseFormat(filepath.Ext(name)); err == nil {
		return f.ContentType(), nil
	}
	mtype, err := mimetype.DetectReader(rs)
	if err != nil {
		return "", err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return mtype.String(), nil
}
