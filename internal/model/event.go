package model

// Event types pushed to a job subscriber.
const (
	EventStatus     = "status"
	EventProgress   = "progress"
	EventValidation = "validation"
	EventCheckpoint = "checkpoint"
	EventComplete   = "complete"
	EventError      = "error"
	EventPing       = "ping"
)

// Event is a single message pushed over a subscriber connection. Only the
// fields relevant to the event type are set; everything else is omitted from
// the wire format.
type Event struct {
	Type  string `json:"type"`
	JobID string `json:"jobId,omitempty"`

	Status      JobStatus `json:"status,omitempty"`
	Progress    *float64  `json:"progress,omitempty"`
	CurrentStep string    `json:"currentStep,omitempty"`

	DownloadProgress *float64 `json:"downloadProgress,omitempty"`
	DownloadStep     string   `json:"downloadStep,omitempty"`
	OutputPath       string   `json:"outputPath,omitempty"`

	Step           *int     `json:"step,omitempty"`
	TotalSteps     *int     `json:"totalSteps,omitempty"`
	Loss           *float64 `json:"loss,omitempty"`
	ETA            string   `json:"eta,omitempty"`
	CheckpointPath string   `json:"checkpointPath,omitempty"`

	Error string `json:"error,omitempty"`
}
