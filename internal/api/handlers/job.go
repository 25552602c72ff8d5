package handlers

import (
	"net/http"

	"github.com/video-stream/transcript-studio/internal/job"
)

type JobHandler struct {
	queue *job.JobQueue
}

func NewJobHandler(queue *job.JobQueue) *JobHandler {
	return &JobHandler{queue: queue}
}

// ListJobs returns all jobs, newest first. ?status= filters by state.
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.queue.ListJobs()
	if err != nil {
		jsonError(w, "failed to list jobs: "+err.Error(), http.StatusInternalServerError)
		return
	}

	status := job.JobStatus(r.URL.Query().Get("status"))
	result := make([]*job.Job, 0, len(jobs))
	for _, j := range jobs {
		if status == "" || j.Status == status {
			result = append(result, j)
		}
	}
	jsonResponse(w, result, http.StatusOK)
}

// GetJob returns a single job by ID, including its result once completed
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	j, err := h.queue.GetJob(urlParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, j, http.StatusOK)
}

// CancelJob cancels a pending or running job
func (h *JobHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	if err := h.queue.CancelJob(urlParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RetryJob re-queues a failed or cancelled job
func (h *JobHandler) RetryJob(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	if err := h.queue.RetryJob(id); err != nil {
		writeError(w, err)
		return
	}

	j, err := h.queue.GetJob(id)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, j, http.StatusAccepted)
}
