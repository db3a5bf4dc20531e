package job

import (
	"github.com/mlxvideo/api/internal/model"
	"github.com/mlxvideo/api/internal/progress"
)

// applyGeneration folds one parsed generation signal into the job record and
// returns the progress event to push. Progress is monotonically
// non-decreasing while Running: numeric updates only ever raise it, and a
// stage-label change enforces that stage's floor. Generation pushes one
// event per non-empty line even when nothing changed; the steady stream
// doubles as a liveness signal for subscribers.
func (j *Job) applyGeneration(ev progress.GenerationEvent) model.Event {
	j.mu.Lock()
	defer j.mu.Unlock()

	if ev.DownloadStep != "" {
		j.downloadStep = ev.DownloadStep
		if ev.DownloadProgress != nil {
			j.downloadProgress = ev.DownloadProgress
		}
	}

	if ev.StepLabel != "" && ev.StepLabel != j.currentStep {
		j.currentStep = ev.StepLabel
		if floor := progress.StageFloor(ev.StepLabel); floor > j.progress {
			j.progress = floor
		}
	}

	if ev.Progress != nil && *ev.Progress > j.progress {
		j.progress = *ev.Progress
	}

	if ev.OutputPath != "" && j.outputPath == "" {
		j.outputPath = ev.OutputPath
	}
	if ev.PreviewPath != "" && j.previewPath == "" {
		j.previewPath = ev.PreviewPath
	}

	p := j.progress
	out := model.Event{
		Type:             model.EventProgress,
		JobID:            j.ID,
		Progress:         &p,
		CurrentStep:      j.currentStep,
		DownloadProgress: j.downloadProgress,
		DownloadStep:     j.downloadStep,
	}
	return out
}

// applyTraining folds one parsed trainer signal into the job record. Unlike
// generation, training only notifies when a pattern matched; trainers log
// far too much for a per-line heartbeat.
func (j *Job) applyTraining(ev progress.TrainingEvent) (model.Event, bool) {
	if !ev.Matched() {
		return model.Event{}, false
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	switch {
	case ev.Step != nil:
		j.step = *ev.Step
		j.loss = ev.Loss
		if ev.ETA != "" {
			j.eta = ev.ETA
		}
		step := j.step
		total := j.totalSteps
		return model.Event{
			Type:       model.EventProgress,
			JobID:      j.ID,
			Step:       &step,
			TotalSteps: &total,
			Loss:       j.loss,
			ETA:        j.eta,
		}, true

	case ev.ValidationStep != nil:
		// Validation events do not mutate progress fields.
		return model.Event{
			Type:  model.EventValidation,
			JobID: j.ID,
			Step:  ev.ValidationStep,
		}, true

	default:
		j.checkpointPath = *ev.CheckpointPath
		return model.Event{
			Type:           model.EventCheckpoint,
			JobID:          j.ID,
			CheckpointPath: j.checkpointPath,
		}, true
	}
}

// complete pins progress to 100, records the final artifact and moves the
// job to Completed, unless a stop already won.
func (j *Job) complete(outputPath string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status.IsTerminal() {
		return false
	}
	j.progress = 100
	if outputPath != "" {
		j.outputPath = outputPath
		j.currentStep = "Complete"
	}
	j.status = model.JobStatusCompleted
	j.proc = nil
	close(j.done)
	return true
}

// statusEvent builds the full-snapshot event sent on (re)subscribe and on
// lifecycle transitions.
func (j *Job) statusEvent() model.Event {
	snap := j.Snapshot()
	p := snap.Progress

	ev := model.Event{
		Type:             model.EventStatus,
		JobID:            snap.JobID,
		Status:           snap.Status,
		Progress:         &p,
		CurrentStep:      snap.CurrentStep,
		DownloadProgress: snap.DownloadProgress,
		DownloadStep:     snap.DownloadStep,
		OutputPath:       snap.OutputPath,
		ETA:              snap.ETA,
		CheckpointPath:   snap.CheckpointPath,
		Error:            snap.Error,
	}
	if snap.Kind == model.JobKindTraining {
		step := snap.Step
		total := snap.TotalSteps
		ev.Step = &step
		ev.TotalSteps = &total
		ev.Loss = snap.Loss
	}
	return ev
}
