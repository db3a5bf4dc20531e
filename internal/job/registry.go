package job

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mlxvideo/api/internal/model"
)

// ErrJobNotFound is returned for lookups of unknown job ids.
var ErrJobNotFound = errors.New("job not found")

// Registry is the in-memory store of jobs, keyed by id. Jobs live for the
// server process's lifetime; there is no durable storage and no eviction.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job)}
}

// CreateGeneration registers a new Pending generation job.
func (r *Registry) CreateGeneration(req *model.GenerationRequest) *Job {
	j := r.newJob(model.JobKindGeneration)
	j.GenRequest = req
	j.currentStep = "Initializing..."
	r.put(j)
	return j
}

// CreateTraining registers a new Pending training job.
func (r *Registry) CreateTraining(req *model.TrainingRequest) *Job {
	j := r.newJob(model.JobKindTraining)
	j.TrainRequest = req
	j.totalSteps = req.Steps
	r.put(j)
	return j
}

// Get looks up a job by id.
func (r *Registry) Get(id string) (*Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	return j, ok
}

func (r *Registry) newJob(kind model.JobKind) *Job {
	return &Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		status:    model.JobStatusPending,
		createdAt: time.Now(),
		done:      make(chan struct{}),
	}
}

func (r *Registry) put(j *Job) {
	r.mu.Lock()
	r.jobs[j.ID] = j
	r.mu.Unlock()
}
