package job

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mlxvideo/api/internal/job/supervisor"
	"github.com/mlxvideo/api/internal/model"
	"github.com/mlxvideo/api/internal/progress"
)

// trainerConfig is the YAML document consumed by the trainer process. The
// section layout is the trainer's contract, not ours.
type trainerConfig struct {
	Pipeline  string `yaml:"pipeline"`
	Seed      int    `yaml:"seed"`
	OutputDir string `yaml:"output_dir"`
	LogEvery  int    `yaml:"log_every"`

	Model struct {
		ModelPath    string `yaml:"model_path"`
		TrainingMode string `yaml:"training_mode"`
	} `yaml:"model"`

	TrainingStrategy struct {
		Name                    string  `yaml:"name"`
		WithAudio               bool    `yaml:"with_audio"`
		FirstFrameConditioningP float64 `yaml:"first_frame_conditioning_p"`
	} `yaml:"training_strategy"`

	Lora struct {
		Rank          int      `yaml:"rank"`
		Alpha         int      `yaml:"alpha"`
		Dropout       float64  `yaml:"dropout"`
		TargetModules []string `yaml:"target_modules"`
	} `yaml:"lora"`

	Optimization struct {
		LearningRate                float64        `yaml:"learning_rate"`
		Steps                       int            `yaml:"steps"`
		BatchSize                   int            `yaml:"batch_size"`
		GradientAccumulationSteps   int            `yaml:"gradient_accumulation_steps"`
		MaxGradNorm                 float64        `yaml:"max_grad_norm"`
		OptimizerType               string         `yaml:"optimizer_type"`
		SchedulerType               string         `yaml:"scheduler_type"`
		SchedulerParams             map[string]any `yaml:"scheduler_params"`
		EnableGradientCheckpointing bool           `yaml:"enable_gradient_checkpointing"`
	} `yaml:"optimization"`

	Data struct {
		PreprocessedDataRoot string   `yaml:"preprocessed_data_root"`
		DataSources          []string `yaml:"data_sources"`
		NumDataloaderWorkers int      `yaml:"num_dataloader_workers"`
	} `yaml:"data"`

	Checkpoints struct {
		Interval  int `yaml:"interval"`
		KeepLastN int `yaml:"keep_last_n"`
	} `yaml:"checkpoints"`

	Validation struct {
		Prompts               []string `yaml:"prompts"`
		Interval              int      `yaml:"interval"`
		Width                 int      `yaml:"width"`
		Height                int      `yaml:"height"`
		NumFrames             int      `yaml:"num_frames"`
		Seed                  int      `yaml:"seed"`
		Steps                 int      `yaml:"steps"`
		CFGScale              float64  `yaml:"cfg_scale"`
		FPS                   float64  `yaml:"fps"`
		NegativePrompt        string   `yaml:"negative_prompt"`
		SkipInitialValidation bool     `yaml:"skip_initial_validation"`
	} `yaml:"validation"`

	Acceleration struct {
		MixedPrecisionMode    string `yaml:"mixed_precision_mode"`
		LoadTextEncoderIn8Bit bool   `yaml:"load_text_encoder_in_8bit"`
		Quantization          string `yaml:"quantization"`
	} `yaml:"acceleration"`
}

const validationNegativePrompt = "worst quality, inconsistent motion, blurry, jittery, distorted"

// writeTrainerConfig renders the request into a YAML config file under the
// run's output directory and returns its path.
func writeTrainerConfig(req *model.TrainingRequest, jobID string) (string, error) {
	var cfg trainerConfig
	cfg.Pipeline = req.Pipeline
	cfg.Seed = req.Seed
	cfg.OutputDir = req.OutputDir
	cfg.LogEvery = req.LogEvery

	cfg.Model.ModelPath = req.ModelRepo
	cfg.Model.TrainingMode = req.TrainingMode

	cfg.TrainingStrategy.Name = req.Strategy
	cfg.TrainingStrategy.WithAudio = req.WithAudio
	cfg.TrainingStrategy.FirstFrameConditioningP = req.FirstFrameConditioningP

	cfg.Lora.Rank = req.LoraRank
	cfg.Lora.Alpha = req.LoraAlpha
	cfg.Lora.Dropout = req.LoraDropout
	cfg.Lora.TargetModules = req.LoraTargetModules

	cfg.Optimization.LearningRate = req.LearningRate
	cfg.Optimization.Steps = req.Steps
	cfg.Optimization.BatchSize = req.BatchSize
	cfg.Optimization.GradientAccumulationSteps = req.GradientAccumulationSteps
	cfg.Optimization.MaxGradNorm = req.MaxGradNorm
	cfg.Optimization.OptimizerType = req.OptimizerType
	cfg.Optimization.SchedulerType = req.SchedulerType
	cfg.Optimization.SchedulerParams = req.SchedulerParams
	cfg.Optimization.EnableGradientCheckpointing = req.EnableGradientCheckpointing

	cfg.Data.PreprocessedDataRoot = req.DataRoot
	cfg.Data.DataSources = req.DataSources
	cfg.Data.NumDataloaderWorkers = req.NumDataloaderWorkers

	cfg.Checkpoints.Interval = req.CheckpointInterval
	cfg.Checkpoints.KeepLastN = req.KeepLastNCheckpoints

	cfg.Validation.Prompts = req.ValidationPrompts
	cfg.Validation.Interval = req.ValidationInterval
	cfg.Validation.Width = req.ValidationWidth
	cfg.Validation.Height = req.ValidationHeight
	cfg.Validation.NumFrames = req.ValidationFrames
	cfg.Validation.Seed = req.ValidationSeed
	cfg.Validation.Steps = req.ValidationSteps
	cfg.Validation.CFGScale = req.ValidationGuidanceScale
	cfg.Validation.FPS = req.ValidationFPS
	cfg.Validation.NegativePrompt = validationNegativePrompt
	cfg.Validation.SkipInitialValidation = req.SkipInitialValidation

	cfg.Acceleration.MixedPrecisionMode = req.MixedPrecisionMode
	cfg.Acceleration.LoadTextEncoderIn8Bit = req.LoadTextEncoder8Bit
	cfg.Acceleration.Quantization = req.Quantization

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return "", fmt.Errorf("marshal trainer config: %w", err)
	}

	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create training output dir: %w", err)
	}

	shortID := strings.SplitN(jobID, "-", 2)[0]
	path := filepath.Join(req.OutputDir, fmt.Sprintf("training_config_%s.yaml", shortID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write trainer config: %w", err)
	}
	return path, nil
}

// runTraining is the background task owning the job's trainer process.
func (o *Orchestrator) runTraining(j *Job) {
	defer func() {
		if r := recover(); r != nil {
			o.fail(j, fmt.Sprintf("internal error: %v", r))
		}
	}()

	req := j.TrainRequest

	configPath, err := writeTrainerConfig(req, j.ID)
	if err != nil {
		o.fail(j, err.Error())
		return
	}

	argv := []string{o.cfg.Worker.Python, "-m", o.cfg.Worker.TrainModule, "--config", configPath}
	if req.Debug {
		argv = append(argv, "--debug")
	}

	h, err := supervisor.Spawn(argv, o.cfg.Worker.Dir, workerEnv())
	if err != nil {
		o.fail(j, fmt.Sprintf("failed to launch trainer: %v", err))
		return
	}

	if !j.setRunning(h) {
		h.Terminate()
		h.Wait()
		return
	}
	o.notifier.Notify(j.ID, j.statusEvent())

	parser := progress.NewTrainingParser(req.Steps)
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
			continue
		}

		// Trainers log heavily; only recognized patterns reach the
		// subscriber.
		if ev, ok := j.applyTraining(parser.Parse(line)); ok {
			o.notifier.Notify(j.ID, ev)
		}
	}

	code := h.Wait()
	if j.IsTerminal() {
		return
	}

	if code != 0 {
		o.fail(j, exitMessage(j.Kind, code))
		return
	}

	if !j.complete("") {
		return
	}
	o.log.Info().Str("job", j.ID).Msg("training completed")
	o.notifier.Notify(j.ID, model.Event{
		Type:  model.EventComplete,
		JobID: j.ID,
	})
}
