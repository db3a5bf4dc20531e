package job

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/mlxvideo/api/internal/config"
	"github.com/mlxvideo/api/internal/model"
)

// Orchestrator owns the job registry and subscriber notifier and supervises
// one goroutine per job. It is constructed once at server start and threaded
// through the handlers; its lifetime equals the server process.
type Orchestrator struct {
	cfg      *config.Config
	registry *Registry
	notifier *Notifier
	log      zerolog.Logger
}

// NewOrchestrator wires a job engine from configuration.
func NewOrchestrator(cfg *config.Config, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		registry: NewRegistry(),
		notifier: NewNotifier(log),
		log:      log.With().Str("component", "orchestrator").Logger(),
	}
}

// SubmitGeneration creates a Pending generation job and launches its
// background task.
func (o *Orchestrator) SubmitGeneration(req *model.GenerationRequest) string {
	j := o.registry.CreateGeneration(req)
	o.log.Info().Str("job", j.ID).Str("pipeline", string(req.Pipeline)).Msg("generation job submitted")
	go o.runGeneration(j)
	return j.ID
}

// SubmitTraining creates a Pending training job and launches its background
// task.
func (o *Orchestrator) SubmitTraining(req *model.TrainingRequest) string {
	j := o.registry.CreateTraining(req)
	o.log.Info().Str("job", j.ID).Int("steps", req.Steps).Msg("training job submitted")
	go o.runTraining(j)
	return j.ID
}

// Status returns a snapshot of the job, or ErrJobNotFound.
func (o *Orchestrator) Status(id string) (model.JobSnapshot, error) {
	j, ok := o.registry.Get(id)
	if !ok {
		return model.JobSnapshot{}, ErrJobNotFound
	}
	return j.Snapshot(), nil
}

// Stop cancels a Running job. The status flips to Stopped immediately and
// the worker is asked to terminate; whatever exit code the process later
// produces is discarded. Returns false for unknown or non-running jobs.
func (o *Orchestrator) Stop(id string) bool {
	j, ok := o.registry.Get(id)
	if !ok {
		return false
	}

	h, ok := j.stop()
	if !ok {
		return false
	}
	if h != nil {
		h.Terminate()
	}

	o.log.Info().Str("job", id).Msg("job stopped by user")
	o.notifier.Notify(id, j.statusEvent())
	return true
}

// Subscribe installs sink as the job's single subscriber, replacing any
// previous one, and immediately resends the latest full status. The returned
// cancel function detaches this subscription only; a newer one is left
// alone.
func (o *Orchestrator) Subscribe(id string, sink Sink) (func(), error) {
	j, ok := o.registry.Get(id)
	if !ok {
		return nil, ErrJobNotFound
	}

	token := o.notifier.Register(id, sink)
	o.notifier.Notify(id, j.statusEvent())
	return func() { o.notifier.Unregister(id, token) }, nil
}

// fail moves the job to Error with the given message and notifies.
func (o *Orchestrator) fail(j *Job, msg string) {
	if !j.finish(model.JobStatusError, msg) {
		return
	}
	o.log.Error().Str("job", j.ID).Str("error", msg).Msg("job failed")
	o.notifier.Notify(j.ID, model.Event{
		Type:  model.EventError,
		JobID: j.ID,
		Error: msg,
	})
}

// workerEnv builds the environment for worker processes. Unbuffered output
// is required for live line-by-line progress.
func workerEnv() []string {
	return append(os.Environ(), "PYTHONUNBUFFERED=1")
}

func exitMessage(kind model.JobKind, code int) string {
	if kind == model.JobKindTraining {
		return fmt.Sprintf("Training failed with return code %d", code)
	}
	return fmt.Sprintf("Generation failed with return code %d", code)
}
