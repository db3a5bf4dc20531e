package model

// GalleryVideo is one finished artifact with its sidecar metadata.
type GalleryVideo struct {
	ID        string             `json:"id"`
	Filename  string             `json:"filename"`
	Path      string             `json:"path"`
	Thumbnail string             `json:"thumbnail,omitempty"`
	Prompt    string             `json:"prompt,omitempty"`
	Params    *GenerationRequest `json:"params,omitempty"`
	CreatedAt string             `json:"createdAt"`
	Duration  *float64           `json:"duration,omitempty"`
	Width     int                `json:"width,omitempty"`
	Height    int                `json:"height,omitempty"`
	Size      int64              `json:"size"`
}
