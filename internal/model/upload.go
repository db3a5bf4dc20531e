package model

// UploadResponse describes a stored conditioning asset.
type UploadResponse struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
}
