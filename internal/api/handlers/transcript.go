package handlers

import (
	"io"
	"net/http"
	"path/filepath"

	"github.com/video-stream/transcript-studio/internal/pipeline"
	"github.com/video-stream/transcript-studio/internal/storage"
	"github.com/video-stream/transcript-studio/internal/subtitle"
)

// maxTranscriptBytes caps uploaded transcripts for conversion.
const maxTranscriptBytes = 20 << 20

type TranscriptHandler struct {
	pipeline *pipeline.Service
}

func NewTranscriptHandler(p *pipeline.Service) *TranscriptHandler {
	return &TranscriptHandler{pipeline: p}
}

// Convert renders an uploaded TXT, SRT, VTT or HTML transcript into every
// format.
func (h *TranscriptHandler) Convert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxTranscriptBytes)
	if err := r.ParseMultipartForm(maxTranscriptBytes); err != nil {
		if errorStatus(err) == http.StatusRequestEntityTooLarge {
			jsonError(w, "transcript too large", http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("transcript")
	if err != nil {
		jsonError(w, "no transcript file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Filename == "" {
		jsonError(w, "no file selected", http.StatusBadRequest)
		return
	}
	if filepath.Ext(header.Filename) != "" && !storage.IsTranscriptFile(header.Filename) {
		writeError(w, &subtitle.UnsupportedFormatError{Tag: filepath.Ext(header.Filename)})
		return
	}

	var format subtitle.Format
	if tag := r.FormValue("format"); tag != "" {
		if format, err = subtitle.ParseFormat(tag); err != nil {
			writeError(w, err)
			return
		}
	}

	content, err := io.ReadAll(file)
	if err != nil {
		jsonError(w, "failed to read transcript", http.StatusBadRequest)
		return
	}

	result, err := h.pipeline.Convert(r.Context(), pipeline.ConvertRequest{
		Filename:  header.Filename,
		Content:   content,
		Format:    format,
		Title:     r.FormValue("videoTitle"),
		SourceURL: r.FormValue("videoUrl"),
		Author:    r.FormValue("videoAuthor"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, result, http.StatusOK)
}

type editRequest struct {
	JobID       string `json:"job_id" validate:"required,uuid"`
	Text        string `json:"text" validate:"required"`
	Title       string `json:"title"`
	VideoURL    string `json:"video_url" validate:"omitempty,url"`
	VideoAuthor string `json:"video_author"`
}

// Edit applies edited text to a stored transcript. A line count that does
// not match the segments is rejected with 422.
func (h *TranscriptHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.pipeline.Edit(r.Context(), pipeline.EditRequest{
		JobID:     req.JobID,
		Text:      req.Text,
		Title:     req.Title,
		SourceURL: req.VideoURL,
		Author:    req.VideoAuthor,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, result, http.StatusOK)
}

// Files lists the stored artifacts of a job.
func (h *TranscriptHandler) Files(w http.ResponseWriter, r *http.Request) {
	files, err := h.pipeline.Files(urlParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if files == nil {
		files = []storage.FileEntry{}
	}
	jsonResponse(w, files, http.StatusOK)
}
