package model

// Job kinds
type JobKind string

const (
	JobKindGeneration JobKind = "generation"
	JobKindTraining   JobKind = "training"
)

// Job status
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusError     JobStatus = "error"
	JobStatusStopped   JobStatus = "stopped"
)

// IsTerminal reports whether the status is final. A terminal job never
// changes status again.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusError || s == JobStatusStopped
}

// Pipeline types
type PipelineType string

const (
	PipelineDistilled PipelineType = "distilled"
	PipelineDev       PipelineType = "dev"
	PipelineKeyframe  PipelineType = "keyframe"
	PipelineICLora    PipelineType = "ic_lora"
)

// Tiling modes
type TilingMode string

const (
	TilingAuto TilingMode = "auto"
	TilingOn   TilingMode = "on"
	TilingOff  TilingMode = "off"
)

// Conditioning modes
type ConditioningMode string

const (
	ConditioningReplace ConditioningMode = "replace"
	ConditioningGuide   ConditioningMode = "guide"
)

// Enhancer providers
type EnhanceProvider string

const (
	EnhanceOllama   EnhanceProvider = "ollama"
	EnhanceLMStudio EnhanceProvider = "lmstudio"
)
