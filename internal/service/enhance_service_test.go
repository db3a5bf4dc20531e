package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlxvideo/api/internal/config"
	"github.com/mlxvideo/api/internal/model"
)

func chatServer(t *testing.T, reply func(system string) string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)

		resp := chatCompletionResponse{}
		resp.Choices = append(resp.Choices, struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		}{})
		resp.Choices[0].Message.Content = reply(req.Messages[0].Content)
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":"llama3"},{"id":"qwen"}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestEnhance(t *testing.T) {
	srv := chatServer(t, func(system string) string {
		if system == filenameSystemPrompt {
			return "Cat Surfing Sunset"
		}
		return "A cat surfing at sunset, golden light, slow dolly shot."
	})

	s := NewEnhanceService(config.EnhanceConfig{BaseURL: srv.URL, Model: "llama3"})
	res, err := s.Enhance(context.Background(), &model.EnhanceRequest{Prompt: "cat surfing"})
	require.NoError(t, err)

	assert.Equal(t, "A cat surfing at sunset, golden light, slow dolly shot.", res.Enhanced)
	assert.Equal(t, "cat_surfing_sunset", res.Filename)
}

func TestEnhanceProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	s := NewEnhanceService(config.EnhanceConfig{BaseURL: srv.URL})
	_, err := s.Enhance(context.Background(), &model.EnhanceRequest{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned status 500")
}

func TestEnhanceSlugFailureNonFatal(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"enhanced text"}}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	s := NewEnhanceService(config.EnhanceConfig{BaseURL: srv.URL})
	res, err := s.Enhance(context.Background(), &model.EnhanceRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "enhanced text", res.Enhanced)
	assert.Empty(t, res.Filename)
}

func TestEnhanceRequestOverridesBaseURL(t *testing.T) {
	srv := chatServer(t, func(string) string { return "ok" })

	// Defaults point nowhere; the per-request base URL must win.
	s := NewEnhanceService(config.EnhanceConfig{BaseURL: "http://127.0.0.1:1"})
	res, err := s.Enhance(context.Background(), &model.EnhanceRequest{Prompt: "x", BaseURL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Enhanced)
}

func TestListModels(t *testing.T) {
	srv := chatServer(t, func(string) string { return "" })

	s := NewEnhanceService(config.EnhanceConfig{BaseURL: srv.URL})
	models, err := s.ListModels(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3", "qwen"}, models)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Cat Surfing Sunset":      "cat_surfing_sunset",
		"  spaced  out  ":         "spaced__out",
		"already_a_slug":          "already_a_slug",
		"Weird!@#Chars":           "weirdchars",
		"dash-separated-words":    "dash_separated_words",
		"__leading_and_trailing_": "leading_and_trailing",
		"":                        "",
	}
	for in, want := range cases {
		assert.Equal(t, want, slugify(in), "input %q", in)
	}
}
