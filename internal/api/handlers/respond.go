package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/video-stream/transcript-studio/internal/ffmpeg"
	"github.com/video-stream/transcript-studio/internal/job"
	"github.com/video-stream/transcript-studio/internal/storage"
	"github.com/video-stream/transcript-studio/internal/subtitle"
	"github.com/video-stream/transcript-studio/internal/subtitle/whisper"
	"github.com/video-stream/transcript-studio/internal/youtube"
)

var validate = validator.New()

func jsonResponse(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	jsonResponse(w, map[string]string{"error": msg}, status)
}

// writeError renders err with the status its kind maps to.
func writeError(w http.ResponseWriter, err error) {
	var mismatch *subtitle.EditMismatchError
	if errors.As(err, &mismatch) {
		jsonResponse(w, map[string]any{
			"error":    err.Error(),
			"segments": mismatch.Segments,
			"lines":    mismatch.Lines,
		}, http.StatusUnprocessableEntity)
		return
	}
	jsonError(w, err.Error(), errorStatus(err))
}

func errorStatus(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, subtitle.ErrInvalidSegment),
		errors.Is(err, subtitle.ErrMalformedSubtitle),
		errors.Is(err, subtitle.ErrUnsupportedFormat),
		errors.Is(err, youtube.ErrNotYouTube),
		errors.Is(err, ffmpeg.ErrNoAudio),
		errors.Is(err, whisper.ErrUnknownEngine),
		errors.Is(err, storage.ErrInvalidJobID):
		return http.StatusBadRequest
	case errors.Is(err, subtitle.ErrEditMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, job.ErrNotFound),
		errors.Is(err, youtube.ErrVideoNotFound),
		errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, job.ErrNotCancellable), errors.Is(err, job.ErrNotRetryable):
		return http.StatusConflict
	case errors.Is(err, os.ErrPermission):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// decodeJSON decodes and validates the request body into dst. On failure
// the error response has been written and false is returned.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		jsonError(w, validationMessage(err), http.StatusBadRequest)
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return "invalid request: " + strings.Join(msgs, ", ")
}

// urlParam returns the URL-decoded value of a chi route parameter.
func urlParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	decoded, err := url.PathUnescape(v)
	if err != nil {
		return v
	}
	return decoded
}
