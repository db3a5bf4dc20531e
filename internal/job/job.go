// Package job implements the job engine: an in-memory registry of tracked
// jobs, a per-job subscriber notifier, and the orchestrator that supervises
// worker processes and folds their output into job state.
package job

import (
	"sync"
	"time"

	"github.com/mlxvideo/api/internal/job/supervisor"
	"github.com/mlxvideo/api/internal/model"
)

// Job is one tracked unit of work wrapping a spawned worker process and its
// derived status. All mutable fields are guarded by mu: fiber handlers, the
// job's own goroutine and websocket delivery can all touch the record.
type Job struct {
	ID   string
	Kind model.JobKind

	GenRequest   *model.GenerationRequest
	TrainRequest *model.TrainingRequest

	mu     sync.Mutex
	status model.JobStatus

	progress    float64
	currentStep string

	downloadProgress *float64
	downloadStep     string
	outputPath       string
	previewPath      string

	step           int
	totalSteps     int
	loss           *float64
	eta            string
	checkpointPath string

	errMsg    string
	createdAt time.Time
	startedAt time.Time

	// proc is owned by the job's goroutine and cleared once a terminal
	// status is reached; it is never used for control after that.
	proc *supervisor.Handle

	done chan struct{}
}

// Snapshot returns a point-in-time copy of the job record.
func (j *Job) Snapshot() model.JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()

	return model.JobSnapshot{
		JobID:            j.ID,
		Kind:             j.Kind,
		Status:           j.status,
		Progress:         j.progress,
		CurrentStep:      j.currentStep,
		DownloadProgress: j.downloadProgress,
		DownloadStep:     j.downloadStep,
		OutputPath:       j.outputPath,
		PreviewPath:      j.previewPath,
		Step:             j.step,
		TotalSteps:       j.totalSteps,
		Loss:             j.loss,
		ETA:              j.eta,
		CheckpointPath:   j.checkpointPath,
		Error:            j.errMsg,
	}
}

// Status returns the current status.
func (j *Job) Status() model.JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// IsTerminal reports whether the job has reached a final status.
func (j *Job) IsTerminal() bool {
	return j.Status().IsTerminal()
}

// Done returns a channel that is closed once the job reaches a terminal
// status.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// setRunning transitions Pending -> Running and records the worker handle.
// It returns false if the job was already terminal (stopped before the
// worker came up), in which case the caller must discard the handle.
func (j *Job) setRunning(h *supervisor.Handle) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status.IsTerminal() {
		return false
	}
	j.status = model.JobStatusRunning
	j.startedAt = time.Now()
	j.proc = h
	return true
}

// finish moves the job into a terminal status. Exactly one finish wins; any
// later attempt is a no-op and returns false.
func (j *Job) finish(status model.JobStatus, errMsg string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status.IsTerminal() {
		return false
	}
	j.status = status
	j.errMsg = errMsg
	if status == model.JobStatusError {
		// A failed job never exposes a partial artifact, even when the
		// worker reported one before dying.
		j.outputPath = ""
		j.previewPath = ""
	}
	j.proc = nil
	close(j.done)
	return true
}

// stop forces the job to Stopped if it is currently Running and hands back
// the worker handle for termination. The eventual exit code of the process
// is discarded and can no longer change the status.
func (j *Job) stop() (*supervisor.Handle, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status != model.JobStatusRunning {
		return nil, false
	}
	h := j.proc
	j.status = model.JobStatusStopped
	j.proc = nil
	close(j.done)
	return h, true
}

// startTime returns when the worker was spawned, used to scope artifact
// resolution to files produced during this run.
func (j *Job) startTime() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.startedAt
}
