package model

// GenerationRequest holds the parameters used to launch the video worker. A
// copy of the request is kept on the job for its whole lifetime, so handlers
// must not mutate it after submission.
type GenerationRequest struct {
	Prompt         string       `json:"prompt" validate:"required,min=1"`
	NegativePrompt string       `json:"negativePrompt,omitempty"`
	Height         int          `json:"height" validate:"omitempty,gte=256,lte=1024"`
	Width          int          `json:"width" validate:"omitempty,gte=256,lte=1024"`
	NumFrames      int          `json:"numFrames" validate:"omitempty,gte=9,lte=97"`
	Seed           int          `json:"seed" validate:"gte=0"`
	FPS            float64      `json:"fps" validate:"omitempty,gte=1,lte=60"`
	Pipeline       PipelineType `json:"pipeline" validate:"omitempty,oneof=distilled dev keyframe ic_lora"`

	// Dev pipeline only.
	Steps    *int     `json:"steps,omitempty" validate:"omitempty,gte=1,lte=100"`
	CFGScale *float64 `json:"cfgScale,omitempty" validate:"omitempty,gte=1,lte=20"`

	ModelRepo      string     `json:"modelRepo,omitempty"`
	CheckpointPath string     `json:"checkpointPath,omitempty"`
	EnhancePrompt  bool       `json:"enhancePrompt,omitempty"`
	Tiling         TilingMode `json:"tiling" validate:"omitempty,oneof=auto on off"`
	CacheLimitGB   *int       `json:"cacheLimitGb,omitempty" validate:"omitempty,gte=4,lte=256"`
	Audio          bool       `json:"audio,omitempty"`
	Stream         bool       `json:"stream,omitempty"`

	ConditioningImage    string           `json:"conditioningImage,omitempty"`
	ConditioningFrameIdx *int             `json:"conditioningFrameIdx,omitempty" validate:"omitempty,gte=0"`
	ConditioningStrength *float64         `json:"conditioningStrength,omitempty" validate:"omitempty,gte=0,lte=1"`
	VideoConditioning    string           `json:"videoConditioning,omitempty"`
	ConditioningMode     ConditioningMode `json:"conditioningMode,omitempty" validate:"omitempty,oneof=replace guide"`

	// OutputFilename pins the artifact name under the output directory.
	// When empty the worker picks its own name and the artifact is resolved
	// from its output after exit.
	OutputFilename string `json:"outputFilename,omitempty" validate:"omitempty,endswith=.mp4"`
}

// ApplyDefaults fills zero-valued fields with the worker defaults.
func (r *GenerationRequest) ApplyDefaults() {
	if r.Height == 0 {
		r.Height = 512
	}
	if r.Width == 0 {
		r.Width = 512
	}
	if r.NumFrames == 0 {
		r.NumFrames = 33
	}
	if r.FPS == 0 {
		r.FPS = 24
	}
	if r.Pipeline == "" {
		r.Pipeline = PipelineDistilled
	}
	if r.Tiling == "" {
		r.Tiling = TilingAuto
	}
}

// GenerationResponse is returned when a generation job is accepted.
type GenerationResponse struct {
	JobID   string    `json:"jobId"`
	Status  JobStatus `json:"status"`
	Message string    `json:"message"`
}

// JobSnapshot is a point-in-time copy of a job record, safe to serialize
// outside the job's own goroutine.
type JobSnapshot struct {
	JobID       string    `json:"jobId"`
	Kind        JobKind   `json:"kind"`
	Status      JobStatus `json:"status"`
	Progress    float64   `json:"progress"`
	CurrentStep string    `json:"currentStep,omitempty"`

	// Generation only.
	DownloadProgress *float64 `json:"downloadProgress,omitempty"`
	DownloadStep     string   `json:"downloadStep,omitempty"`
	OutputPath       string   `json:"outputPath,omitempty"`
	PreviewPath      string   `json:"previewPath,omitempty"`

	// Training only.
	Step           int      `json:"step,omitempty"`
	TotalSteps     int      `json:"totalSteps,omitempty"`
	Loss           *float64 `json:"loss,omitempty"`
	ETA            string   `json:"eta,omitempty"`
	CheckpointPath string   `json:"checkpointPath,omitempty"`

	Error string `json:"error,omitempty"`
}

// VideoMetadata is the sidecar record written beside a finished artifact and
// read back by the gallery.
type VideoMetadata struct {
	Prompt string             `json:"prompt"`
	Params *GenerationRequest `json:"params"`
	Width  int                `json:"width"`
	Height int                `json:"height"`
}
