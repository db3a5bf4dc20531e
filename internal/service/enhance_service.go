package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mlxvideo/api/internal/config"
	"github.com/mlxvideo/api/internal/model"
)

const enhanceSystemPrompt = `You rewrite prompts for a text-to-video model. ` +
	`Expand the user's prompt into one richly detailed paragraph describing the scene, ` +
	`camera, lighting and motion. Reply with the rewritten prompt only.`

const filenameSystemPrompt = `Summarize the following video prompt as a short ` +
	`lowercase filename slug of at most five words joined by underscores, without extension. ` +
	`Reply with the slug only.`

// EnhanceService rewrites generation prompts through a local
// OpenAI-compatible chat endpoint (ollama or LM Studio).
type EnhanceService struct {
	httpClient *http.Client
	defaults   config.EnhanceConfig
}

func NewEnhanceService(cfg config.EnhanceConfig) *EnhanceService {
	return &EnhanceService{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		defaults:   cfg,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Seed        int           `json:"seed,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Enhance rewrites the prompt and derives a filename slug for it.
func (s *EnhanceService) Enhance(ctx context.Context, req *model.EnhanceRequest) (*model.EnhanceResponse, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 512
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = 0.7
	}

	enhanced, err := s.chat(ctx, req, enhanceSystemPrompt, req.Prompt, maxTokens, temperature)
	if err != nil {
		return nil, err
	}

	// The slug is cosmetic; a failure here never fails the request.
	filename, _ := s.chat(ctx, req, filenameSystemPrompt, enhanced, 64, 0.3)
	filename = slugify(filename)

	return &model.EnhanceResponse{
		Enhanced:       strings.TrimSpace(enhanced),
		NegativePrompt: req.NegativePrompt,
		Filename:       filename,
	}, nil
}

// ListModels queries the provider's model catalog.
func (s *EnhanceService) ListModels(ctx context.Context, baseURL string) ([]string, error) {
	url := s.resolveBaseURL(baseURL) + "/v1/models"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("enhance provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("enhance provider returned status %d", resp.StatusCode)
	}

	var payload struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	models := make([]string, 0, len(payload.Data))
	for _, m := range payload.Data {
		models = append(models, m.ID)
	}
	return models, nil
}

func (s *EnhanceService) chat(ctx context.Context, req *model.EnhanceRequest, system, user string, maxTokens int, temperature float64) (string, error) {
	m := req.Model
	if m == "" {
		m = s.defaults.Model
	}

	body, err := json.Marshal(chatCompletionRequest{
		Model: m,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Seed:        req.Seed,
	})
	if err != nil {
		return "", err
	}

	url := s.resolveBaseURL(req.BaseURL) + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("enhance provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("enhance provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("enhance provider returned no choices")
	}

	return completion.Choices[0].Message.Content, nil
}

func (s *EnhanceService) resolveBaseURL(baseURL string) string {
	if baseURL == "" {
		baseURL = s.defaults.BaseURL
	}
	return strings.TrimRight(baseURL, "/")
}

// slugify normalizes an LLM-produced filename suggestion into a safe slug.
func slugify(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
