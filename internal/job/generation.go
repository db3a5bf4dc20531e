package job

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mlxvideo/api/internal/job/supervisor"
	"github.com/mlxvideo/api/internal/model"
	"github.com/mlxvideo/api/internal/progress"
)

// generationArgs builds the worker argv for a generation request.
// explicitOutput is empty when the request asked for automatic naming.
func (o *Orchestrator) generationArgs(req *model.GenerationRequest, explicitOutput string) []string {
	args := []string{
		o.cfg.Worker.Python, "-m", o.cfg.Worker.GenerateModule,
		"--prompt", req.Prompt,
		"--height", strconv.Itoa(req.Height),
		"--width", strconv.Itoa(req.Width),
		"--num-frames", strconv.Itoa(req.NumFrames),
		"--seed", strconv.Itoa(req.Seed),
		"--fps", strconv.FormatFloat(req.FPS, 'f', -1, 64),
		"--pipeline", string(req.Pipeline),
	}

	if explicitOutput != "" {
		args = append(args, "--output", explicitOutput)
	} else {
		args = append(args, "--output-dir", o.cfg.Paths.OutputDir)
	}

	if req.NegativePrompt != "" {
		args = append(args, "--negative-prompt", req.NegativePrompt)
	}
	if req.ModelRepo != "" {
		args = append(args, "--model-repo", req.ModelRepo)
	}
	if req.CheckpointPath != "" {
		args = append(args, "--checkpoint-path", req.CheckpointPath)
	}
	if req.Pipeline == model.PipelineDev {
		if req.Steps != nil {
			args = append(args, "--steps", strconv.Itoa(*req.Steps))
		}
		if req.CFGScale != nil {
			args = append(args, "--cfg-scale", strconv.FormatFloat(*req.CFGScale, 'f', -1, 64))
		}
	}
	if req.EnhancePrompt {
		args = append(args, "--enhance-prompt")
	}
	if req.Tiling != "" {
		args = append(args, "--tiling", string(req.Tiling))
	}
	if req.CacheLimitGB != nil {
		args = append(args, "--cache-limit-gb", strconv.Itoa(*req.CacheLimitGB))
	}
	if req.Audio {
		args = append(args, "--audio")
	}
	if req.Stream {
		args = append(args, "--stream")
	}
	if req.ConditioningImage != "" {
		args = append(args, "--image", req.ConditioningImage)
		if req.ConditioningFrameIdx != nil {
			args = append(args, "--frame-idx", strconv.Itoa(*req.ConditioningFrameIdx))
		}
		if req.ConditioningStrength != nil {
			args = append(args, "--strength", strconv.FormatFloat(*req.ConditioningStrength, 'f', -1, 64))
		}
	}
	if req.VideoConditioning != "" {
		args = append(args, "--video-conditioning", req.VideoConditioning)
		if req.ConditioningMode != "" {
			args = append(args, "--conditioning-mode", string(req.ConditioningMode))
		}
	}

	return args
}

// runGeneration is the background task owning the job's worker process.
func (o *Orchestrator) runGeneration(j *Job) {
	defer func() {
		if r := recover(); r != nil {
			o.fail(j, fmt.Sprintf("internal error: %v", r))
		}
	}()

	req := j.GenRequest

	explicitOutput := ""
	if req.OutputFilename != "" {
		explicitOutput = filepath.Join(o.cfg.Paths.OutputDir, filepath.Base(req.OutputFilename))
	}

	h, err := supervisor.Spawn(o.generationArgs(req, explicitOutput), o.cfg.Worker.Dir, workerEnv())
	if err != nil {
		o.fail(j, fmt.Sprintf("failed to launch worker: %v", err))
		return
	}

	if !j.setRunning(h) {
		// Stopped while still Pending; nothing to track.
		h.Terminate()
		h.Wait()
		return
	}
	o.notifier.Notify(j.ID, j.statusEvent())

	parser := progress.NewGenerationParser(req.Audio)
	for {
		line, ok := h.NextLine()
		if !ok {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		o.log.Debug().Str("job", j.ID).Msg(line)

		if j.IsTerminal() {
			// Keep draining so the worker can't block on a full pipe.
			continue
		}

		ev := parser.Parse(line)
		o.notifier.Notify(j.ID, j.applyGeneration(ev))
	}

	code := h.Wait()
	if j.IsTerminal() {
		return
	}

	if code != 0 {
		o.fail(j, exitMessage(j.Kind, code))
		return
	}

	artifact, err := o.resolveArtifact(j, explicitOutput)
	if err != nil {
		o.fail(j, err.Error())
		return
	}

	if !j.complete(artifact) {
		return
	}
	o.writeMetadata(j, artifact)

	o.log.Info().Str("job", j.ID).Str("output", artifact).Msg("generation completed")
	p := 100.0
	o.notifier.Notify(j.ID, model.Event{
		Type:       model.EventComplete,
		JobID:      j.ID,
		Progress:   &p,
		OutputPath: artifact,
	})
}

// resolveArtifact locates the final output file after a clean exit. The
// parser-captured path wins; an explicitly named output is checked directly;
// otherwise the newest non-preview video in the output directory that was
// modified during this run is taken. A clean exit with no resolvable
// artifact is an error, never a silent success.
func (o *Orchestrator) resolveArtifact(j *Job, explicitOutput string) (string, error) {
	if captured := j.Snapshot().OutputPath; captured != "" {
		if _, err := os.Stat(captured); err == nil {
			return captured, nil
		}
		return "", fmt.Errorf("worker reported output %q but the file does not exist", captured)
	}

	if explicitOutput != "" {
		if _, err := os.Stat(explicitOutput); err == nil {
			return explicitOutput, nil
		}
		return "", fmt.Errorf("no output artifact found at %s", explicitOutput)
	}

	newest, err := newestVideo(o.cfg.Paths.OutputDir, j.startTime())
	if err != nil {
		return "", err
	}
	return newest, nil
}

// newestVideo returns the most recently modified non-preview .mp4 under dir
// that was written after the job started.
func newestVideo(dir string, since time.Time) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read output directory: %w", err)
	}

	var (
		best     string
		bestTime time.Time
	)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".mp4") || strings.HasSuffix(name, progress.PreviewSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(since) {
			continue
		}
		if best == "" || info.ModTime().After(bestTime) {
			best = filepath.Join(dir, name)
			bestTime = info.ModTime()
		}
	}

	if best == "" {
		return "", fmt.Errorf("no output artifact found in %s", dir)
	}
	return best, nil
}

// writeMetadata persists the sidecar record read back by the gallery. A
// failed write never fails the job; the artifact itself is intact.
func (o *Orchestrator) writeMetadata(j *Job, artifact string) {
	req := j.GenRequest
	meta := model.VideoMetadata{
		Prompt: req.Prompt,
		Params: req,
		Width:  req.Width,
		Height: req.Height,
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		o.log.Warn().Str("job", j.ID).Err(err).Msg("marshal metadata sidecar")
		return
	}

	path := strings.TrimSuffix(artifact, filepath.Ext(artifact)) + ".json"
	if err := os.WriteFile(path, data, 0o644); err != nil {
		o.log.Warn().Str("job", j.ID).Err(err).Msg("write metadata sidecar")
	}
}
