package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/video-stream/transcript-studio/internal/config"
	"github.com/video-stream/transcript-studio/internal/job"
	"github.com/video-stream/transcript-studio/internal/storage"
	"github.com/video-stream/transcript-studio/internal/subtitle/whisper"
	"github.com/video-stream/transcript-studio/internal/youtube"
)

// multipartMemory is how much of a multipart form is kept in memory
// before parts spill to temporary files.
const multipartMemory = 32 << 20

// EngineCatalog resolves speech engine names.
type EngineCatalog interface {
	Engine(name string) (whisper.Transcriber, error)
	EngineNames() []string
	DefaultEngine() string
}

type TranscribeHandler struct {
	queue     *job.JobQueue
	store     *storage.Store
	engines   EngineCatalog
	defaults  config.WhisperConfig
	maxUpload int64
	logger    *zap.Logger
}

func NewTranscribeHandler(queue *job.JobQueue, store *storage.Store, engines EngineCatalog, cfg *config.Config, logger *zap.Logger) *TranscribeHandler {
	return &TranscribeHandler{
		queue:     queue,
		store:     store,
		engines:   engines,
		defaults:  cfg.Whisper,
		maxUpload: cfg.MaxUploadBytes,
		logger:    logger.Named("transcribe"),
	}
}

// Upload stages an audio or video file and queues its transcription.
func (h *TranscribeHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.formError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("video")
	if err != nil {
		jsonError(w, "no video file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Filename == "" {
		jsonError(w, "no file selected", http.StatusBadRequest)
		return
	}
	if !storage.IsMediaFile(header.Filename) {
		jsonError(w, "unsupported file type: "+filepath.Ext(header.Filename), http.StatusBadRequest)
		return
	}

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		jsonError(w, "failed to read upload", http.StatusBadRequest)
		return
	}
	if !isMediaType(mtype) {
		jsonError(w, "file content is not audio or video: "+mtype.String(), http.StatusBadRequest)
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		jsonError(w, "failed to read upload", http.StatusInternalServerError)
		return
	}

	params := job.TranscribeParams{
		Engine:   r.FormValue("engine"),
		Model:    firstValue(r.FormValue("model"), r.FormValue("model_size"), h.defaults.Model),
		Language: firstValue(r.FormValue("language"), h.defaults.Language),
		Title:    strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename)),
	}
	if _, err := h.engines.Engine(params.Engine); err != nil {
		writeError(w, err)
		return
	}

	path, err := h.store.StageUpload(header.Filename, file)
	if err != nil {
		jsonError(w, "failed to store upload: "+err.Error(), http.StatusInternalServerError)
		return
	}

	j, err := h.queue.Enqueue(job.JobTranscribeMedia, path, params)
	if err != nil {
		if rmErr := h.store.RemoveStaged(path); rmErr != nil {
			h.logger.Warn("failed to remove upload", zap.String("path", path), zap.Error(rmErr))
		}
		jsonError(w, "failed to queue job: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.logger.Info("upload queued",
		zap.String("job", j.ID),
		zap.String("file", header.Filename),
		zap.String("size", humanize.Bytes(uint64(header.Size))),
		zap.String("type", mtype.String()))
	jsonResponse(w, j, http.StatusAccepted)
}

type youtubeRequest struct {
	URL      string `json:"url" validate:"required,url"`
	Engine   string `json:"engine"`
	Model    string `json:"model"`
	Language string `json:"language"`
}

// YouTube queues the transcription of a YouTube video.
func (h *TranscribeHandler) YouTube(w http.ResponseWriter, r *http.Request) {
	var req youtubeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !youtube.IsYouTubeURL(req.URL) {
		jsonError(w, "invalid YouTube URL", http.StatusBadRequest)
		return
	}
	if _, err := h.engines.Engine(req.Engine); err != nil {
		writeError(w, err)
		return
	}

	j, err := h.queue.Enqueue(job.JobTranscribeYouTube, "", job.YouTubeParams{
		URL:      req.URL,
		Engine:   req.Engine,
		Model:    firstValue(req.Model, h.defaults.Model),
		Language: firstValue(req.Language, h.defaults.Language),
	})
	if err != nil {
		jsonError(w, "failed to queue job: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.logger.Info("youtube queued", zap.String("job", j.ID), zap.String("url", req.URL))
	jsonResponse(w, j, http.StatusAccepted)
}

func (h *TranscribeHandler) formError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		jsonError(w, "file too large, limit is "+humanize.Bytes(uint64(h.maxUpload)), http.StatusRequestEntityTooLarge)
		return
	}
	jsonError(w, "invalid multipart form", http.StatusBadRequest)
}

// isMediaType accepts audio and video content. Undetected binary content
// is left for ffprobe to judge.
func isMediaType(m *mimetype.MIME) bool {
	if m.Is("application/octet-stream") || m.Is("application/ogg") {
		return true
	}
	for ; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "audio/") || strings.HasPrefix(m.String(), "video/") {
			return true
		}
	}
	return false
}

func firstValue(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
