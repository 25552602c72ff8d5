package job

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotFound       = errors.New("job not found")
	ErrNotCancellable = errors.New("job is not pending or running")
	ErrNotRetryable   = errors.New("only failed or cancelled jobs can be retried")
)

const jobColumns = `id, type, status, file_path, params, progress, result, error, created_at, started_at, completed_at`

// JobQueue manages job persistence and dispatching
type JobQueue struct {
	db       *sql.DB
	logger   *zap.Logger
	mu       sync.RWMutex
	pending  chan string // job IDs to process
	cancels  map[string]context.CancelFunc
	handlers map[JobType]JobHandler
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewJobQueue creates a job queue. Register handlers, then call Start.
func NewJobQueue(db *sql.DB, logger *zap.Logger) *JobQueue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &JobQueue{
		db:       db,
		logger:   logger.Named("job"),
		pending:  make(chan string, 100),
		cancels:  make(map[string]context.CancelFunc),
		handlers: make(map[JobType]JobHandler),
		ctx:      ctx,
		cancel:   cancel,
	}
	return q
}

// Start resumes jobs left over from a previous run and starts the worker.
func (q *JobQueue) Start() {
	// Resume any pending/running jobs from DB on startup
	q.resumeJobs()

	q.wg.Add(1)
	go q.worker()
}

// RegisterHandler registers a handler for a job type
func (q *JobQueue) RegisterHandler(jobType JobType, handler JobHandler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = handler
}

// Enqueue creates a new job and adds it to the queue
func (q *JobQueue) Enqueue(jobType JobType, filePath string, params any) (*Job, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}

	job := &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    StatusPending,
		FilePath:  filePath,
		Params:    paramsJSON,
		Progress:  0,
		CreatedAt: time.Now().UTC(),
	}

	_, err = q.db.Exec(`
		INSERT INTO jobs (id, type, status, file_path, params, progress, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Type, job.Status, job.FilePath, string(job.Params), job.Progress, job.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	q.push(job.ID)
	q.logger.Info("job enqueued", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
	return job, nil
}

func (q *JobQueue) push(id string) {
	select {
	case q.pending <- id:
	default:
		q.logger.Warn("queue full, job will be picked up on restart", zap.String("job_id", id))
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	job := &Job{}
	var params, result sql.NullString
	var startedAt, completedAt sql.NullTime
	var errMsg sql.NullString

	if err := row.Scan(&job.ID, &job.Type, &job.Status, &job.FilePath, &params, &job.Progress,
		&result, &errMsg, &job.CreatedAt, &startedAt, &completedAt); err != nil {
		return nil, err
	}

	if params.Valid {
		job.Params = json.RawMessage(params.String)
	}
	if result.Valid {
		job.Result = json.RawMessage(result.String)
	}
	if errMsg.Valid {
		job.Error = errMsg.String
	}
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}
	return job, nil
}

// GetJob retrieves a job by ID
func (q *JobQueue) GetJob(id string) (*Job, error) {
	job, err := scanJob(q.db.QueryRow(`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// ListJobs returns all jobs ordered by creation time (newest first)
func (q *JobQueue) ListJobs() ([]*Job, error) {
	rows, err := q.db.Query(`SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// CancelJob cancels a pending or running job
func (q *JobQueue) CancelJob(id string) error {
	res, err := q.db.Exec(`
		UPDATE jobs SET status = ?, completed_at = ?
		WHERE id = ? AND status IN (?, ?)`,
		StatusCancelled, time.Now().UTC(), id, StatusPending, StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("cancel job: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := q.GetJob(id); err != nil {
			return err
		}
		return ErrNotCancellable
	}

	q.mu.Lock()
	if cancelFn, ok := q.cancels[id]; ok {
		cancelFn()
		delete(q.cancels, id)
	}
	q.mu.Unlock()

	q.logger.Info("job cancelled", zap.String("job_id", id))
	return nil
}

// RetryJob re-queues a failed or cancelled job
func (q *JobQueue) RetryJob(id string) error {
	res, err := q.db.Exec(`
		UPDATE jobs SET status = ?, progress = 0, result = NULL, error = NULL, started_at = NULL, completed_at = NULL
		WHERE id = ? AND status IN (?, ?)`,
		StatusPending, id, StatusFailed, StatusCancelled,
	)
	if err != nil {
		return fmt.Errorf("retry job: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := q.GetJob(id); err != nil {
			return err
		}
		return ErrNotRetryable
	}

	q.push(id)
	q.logger.Info("job retried", zap.String("job_id", id))
	return nil
}

// UpdateProgress updates the progress of a running job
func (q *JobQueue) UpdateProgress(id string, progress float64) {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	if _, err := q.db.Exec("UPDATE jobs SET progress = ? WHERE id = ? AND status = ?", progress, id, StatusRunning); err != nil {
		q.logger.Warn("failed to update progress", zap.String("job_id", id), zap.Error(err))
	}
}

// Stop shuts down the queue and waits for the worker to exit. A job that
// is running is interrupted and stays "running" in the database, so it is
// resumed on the next start.
func (q *JobQueue) Stop() {
	q.cancel()
	q.wg.Wait()
}

// worker processes jobs from the pending channel one at a time
func (q *JobQueue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case jobID := <-q.pending:
			q.processJob(jobID)
		}
	}
}

// processJob runs a single job
func (q *JobQueue) processJob(jobID string) {
	job, err := q.GetJob(jobID)
	if err != nil {
		q.logger.Error("failed to load job", zap.String("job_id", jobID), zap.Error(err))
		return
	}

	// Skip if not pending
	if job.Status != StatusPending {
		return
	}

	q.mu.RLock()
	handler, ok := q.handlers[job.Type]
	q.mu.RUnlock()

	if !ok {
		q.failJob(job, fmt.Sprintf("no handler for job type: %s", job.Type))
		return
	}

	// Create cancellable context before marking as running so that a
	// cancel arriving in between is not lost
	ctx, cancelFn := context.WithCancel(q.ctx)
	q.mu.Lock()
	q.cancels[job.ID] = cancelFn
	q.mu.Unlock()
	defer func() {
		q.mu.Lock()
		delete(q.cancels, job.ID)
		q.mu.Unlock()
		cancelFn()
	}()

	now := time.Now().UTC()
	res, err := q.db.Exec("UPDATE jobs SET status = ?, started_at = ? WHERE id = ? AND status = ?",
		StatusRunning, now, job.ID, StatusPending)
	if err != nil {
		q.logger.Error("failed to start job", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return
	}
	job.StartedAt = &now
	job.Status = StatusRunning
	q.logger.Info("job started", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))

	updateProgress := func(progress float64) {
		q.UpdateProgress(job.ID, progress)
	}

	type outcome struct {
		result any
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("handler panic: %v", r)}
			}
		}()
		result, err := handler(ctx, job, updateProgress)
		done <- outcome{result: result, err: err}
	}()

	select {
	case <-ctx.Done():
		q.logger.Info("job interrupted", zap.String("job_id", job.ID))
	case out := <-done:
		if out.err != nil {
			q.failJob(job, out.err.Error())
		} else {
			q.completeJob(job, out.result)
		}
	}
}

func (q *JobQueue) completeJob(job *Job, result any) {
	var resultJSON sql.NullString
	if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			q.failJob(job, fmt.Sprintf("marshal result: %v", err))
			return
		}
		resultJSON = sql.NullString{String: string(data), Valid: true}
	}

	now := time.Now().UTC()
	if _, err := q.db.Exec("UPDATE jobs SET status = ?, progress = 1.0, result = ?, completed_at = ? WHERE id = ? AND status = ?",
		StatusCompleted, resultJSON, now, job.ID, StatusRunning); err != nil {
		q.logger.Error("failed to complete job", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	q.logger.Info("job completed", zap.String("job_id", job.ID), zap.Duration("elapsed", now.Sub(*job.StartedAt)))
}

func (q *JobQueue) failJob(job *Job, errMsg string) {
	now := time.Now().UTC()
	if _, err := q.db.Exec("UPDATE jobs SET status = ?, error = ?, completed_at = ? WHERE id = ? AND status IN (?, ?)",
		StatusFailed, errMsg, now, job.ID, StatusPending, StatusRunning); err != nil {
		q.logger.Error("failed to mark job failed", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	q.logger.Warn("job failed", zap.String("job_id", job.ID), zap.String("error", errMsg))
}

// resumeJobs re-queues any pending jobs found in DB on startup
func (q *JobQueue) resumeJobs() {
	// Mark any previously "running" jobs as pending (server restarted)
	if _, err := q.db.Exec("UPDATE jobs SET status = ?, started_at = NULL WHERE status = ?", StatusPending, StatusRunning); err != nil {
		q.logger.Error("failed to reset running jobs", zap.Error(err))
	}

	rows, err := q.db.Query("SELECT id FROM jobs WHERE status = ? ORDER BY created_at ASC", StatusPending)
	if err != nil {
		q.logger.Error("failed to resume jobs", zap.Error(err))
		return
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		select {
		case q.pending <- id:
			count++
		default:
		}
	}

	if count > 0 {
		q.logger.Info("resumed pending jobs", zap.Int("count", count))
	}
}
