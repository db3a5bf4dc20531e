package model

// TrainingRequest holds the parameters of a LoRA training run. The request is
// rendered into a YAML config file consumed by the trainer process.
type TrainingRequest struct {
	Pipeline  string `json:"pipeline" validate:"required"`
	Seed      int    `json:"seed" validate:"gte=0"`
	OutputDir string `json:"outputDir" validate:"required"`
	LogEvery  int    `json:"logEvery" validate:"omitempty,gte=1"`

	ModelRepo    string `json:"modelRepo" validate:"required"`
	TrainingMode string `json:"trainingMode,omitempty"`

	Strategy                string  `json:"strategy,omitempty"`
	WithAudio               bool    `json:"withAudio,omitempty"`
	FirstFrameConditioningP float64 `json:"firstFrameConditioningP,omitempty" validate:"omitempty,gte=0,lte=1"`

	LoraRank          int      `json:"loraRank" validate:"omitempty,gte=1,lte=256"`
	LoraAlpha         int      `json:"loraAlpha" validate:"omitempty,gte=1"`
	LoraDropout       float64  `json:"loraDropout" validate:"omitempty,gte=0,lte=1"`
	LoraTargetModules []string `json:"loraTargetModules,omitempty"`

	LearningRate                float64        `json:"learningRate" validate:"omitempty,gt=0"`
	Steps                       int            `json:"steps" validate:"required,gte=1"`
	BatchSize                   int            `json:"batchSize" validate:"omitempty,gte=1"`
	GradientAccumulationSteps   int            `json:"gradientAccumulationSteps" validate:"omitempty,gte=1"`
	MaxGradNorm                 float64        `json:"maxGradNorm,omitempty"`
	OptimizerType               string         `json:"optimizerType,omitempty"`
	SchedulerType               string         `json:"schedulerType,omitempty"`
	SchedulerParams             map[string]any `json:"schedulerParams,omitempty"`
	EnableGradientCheckpointing bool           `json:"enableGradientCheckpointing,omitempty"`

	DataRoot             string   `json:"dataRoot" validate:"required"`
	DataSources          []string `json:"dataSources,omitempty"`
	NumDataloaderWorkers int      `json:"numDataloaderWorkers" validate:"omitempty,gte=0"`

	CheckpointInterval    int `json:"checkpointInterval" validate:"omitempty,gte=1"`
	KeepLastNCheckpoints  int `json:"keepLastNCheckpoints" validate:"omitempty,gte=1"`

	ValidationPrompts       []string `json:"validationPrompts,omitempty"`
	ValidationInterval      int      `json:"validationInterval,omitempty"`
	ValidationWidth         int      `json:"validationWidth,omitempty"`
	ValidationHeight        int      `json:"validationHeight,omitempty"`
	ValidationFrames        int      `json:"validationFrames,omitempty"`
	ValidationSeed          int      `json:"validationSeed,omitempty"`
	ValidationSteps         int      `json:"validationSteps,omitempty"`
	ValidationGuidanceScale float64  `json:"validationGuidanceScale,omitempty"`
	ValidationFPS           float64  `json:"validationFps,omitempty"`
	SkipInitialValidation   bool     `json:"skipInitialValidation,omitempty"`

	MixedPrecisionMode   string `json:"mixedPrecisionMode,omitempty"`
	LoadTextEncoder8Bit  bool   `json:"loadTextEncoderIn8bit,omitempty"`
	Quantization         string `json:"quantization,omitempty"`

	Debug bool `json:"debug,omitempty"`
}

// ApplyDefaults fills zero-valued fields with the trainer defaults.
func (r *TrainingRequest) ApplyDefaults() {
	if r.LogEvery == 0 {
		r.LogEvery = 1
	}
	if r.LoraRank == 0 {
		r.LoraRank = 32
	}
	if r.LoraAlpha == 0 {
		r.LoraAlpha = 32
	}
	if r.LearningRate == 0 {
		r.LearningRate = 1e-4
	}
	if r.BatchSize == 0 {
		r.BatchSize = 1
	}
	if r.GradientAccumulationSteps == 0 {
		r.GradientAccumulationSteps = 1
	}
	if r.CheckpointInterval == 0 {
		r.CheckpointInterval = 250
	}
	if r.KeepLastNCheckpoints == 0 {
		r.KeepLastNCheckpoints = 3
	}
}

// TrainingResponse is returned when a training job is accepted.
type TrainingResponse struct {
	JobID  string    `json:"jobId"`
	Status JobStatus `json:"status"`
}
