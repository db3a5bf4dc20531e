package model

// HardwareInfo describes the host the workers will run on.
type HardwareInfo struct {
	Platform     string  `json:"platform"`
	Arch         string  `json:"arch"`
	CPU          string  `json:"cpu"`
	Cores        int     `json:"cores"`
	MemoryGB     float64 `json:"memoryGb"`
	AppleSilicon bool    `json:"appleSilicon"`
	GoVersion    string  `json:"goVersion"`
}

// GenerationDefaults are the recommended generation settings for this host.
type GenerationDefaults struct {
	ModelRepo string       `json:"modelRepo"`
	Pipeline  PipelineType `json:"pipeline"`
	Width     int          `json:"width"`
	Height    int          `json:"height"`
	NumFrames int          `json:"numFrames"`
	Steps     int          `json:"steps"`
	CFGScale  float64      `json:"cfgScale"`
}

// TrainingDefaults are the recommended training settings for this host.
type TrainingDefaults struct {
	LoraRank  int `json:"loraRank"`
	BatchSize int `json:"batchSize"`
	Steps     int `json:"steps"`
}

// DefaultSettings bundles the recommended defaults for both job kinds.
type DefaultSettings struct {
	Generation GenerationDefaults `json:"generation"`
	Training   TrainingDefaults   `json:"training"`
}
