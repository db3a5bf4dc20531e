package model

// EnhanceRequest asks a local LLM to rewrite a generation prompt.
type EnhanceRequest struct {
	Prompt         string          `json:"prompt" validate:"required,min=1"`
	NegativePrompt string          `json:"negativePrompt,omitempty"`
	Provider       EnhanceProvider `json:"provider" validate:"omitempty,oneof=ollama lmstudio"`
	Model          string          `json:"model,omitempty"`
	BaseURL        string          `json:"baseUrl,omitempty" validate:"omitempty,url"`
	MaxTokens      int             `json:"maxTokens" validate:"omitempty,gte=1,lte=4096"`
	Temperature    float64         `json:"temperature" validate:"omitempty,gte=0,lte=2"`
	Seed           int             `json:"seed" validate:"gte=0"`
}

// EnhanceResponse carries the rewritten prompt plus a short filename slug
// derived from it.
type EnhanceResponse struct {
	Enhanced       string `json:"enhanced"`
	NegativePrompt string `json:"negativePrompt,omitempty"`
	Filename       string `json:"filename,omitempty"`
}
