package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lingua_backend/internal/config"
	"lingua_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiConfig(baseURL string) config.AIConfig {
	return config.AIConfig{
		Provider:        util.AIProviderGemini,
		BaseURL:         baseURL,
		APIKey:          "test-key",
		Model:           "gemini-2.5-flash",
		Temperature:     0.7,
		MaxOutputTokens: 2048,
		Timeout:         5 * time.Second,
	}
}

func TestGeminiClient_Generate(t *testing.T) {
	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"title\":\"Hola\"}"}]}}]}`))
	}))
	defer srv.Close()

	text, err := NewGeminiClient(geminiConfig(srv.URL)).Generate(context.Background(), "make a lesson")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Hola"}`, text)

	require.Len(t, got.Contents, 1)
	assert.Equal(t, "make a lesson", got.Contents[0].Parts[0].Text)
	assert.InDelta(t, 0.7, got.GenerationConfig.Temperature, 1e-6)
	assert.Equal(t, 2048, got.GenerationConfig.MaxOutputTokens)
}

func TestGeminiClient_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantErr    error
	}{
		{"non 2xx", http.StatusServiceUnavailable, "overloaded", http.StatusServiceUnavailable, nil},
		{"no candidates", http.StatusOK, `{"candidates":[]}`, 0, errInvalidAIResponse},
		{"no parts", http.StatusOK, `{"candidates":[{"content":{"parts":[]}}]}`, 0, errInvalidAIResponse},
		{"not json", http.StatusOK, `<html>`, 0, errInvalidAIResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewGeminiClient(geminiConfig(srv.URL)).Generate(context.Background(), "p")
			var upstream *util.UpstreamError
			require.True(t, errors.As(err, &upstream))
			assert.Equal(t, tt.wantStatus, upstream.Status)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.Equal(t, tt.body, upstream.Body)
			}
		})
	}
}

func TestOpenAIClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req["model"])
		msgs := req["messages"].([]interface{})
		require.Len(t, msgs, 2)
		assert.Equal(t, "make a lesson", msgs[1].(map[string]interface{})["content"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"quiz\":[]}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	cfg := geminiConfig(srv.URL)
	cfg.Provider = util.AIProviderOpenAI
	cfg.Model = "gpt-4o-mini"

	text, err := NewOpenAIClient(cfg).Generate(context.Background(), "make a lesson")
	require.NoError(t, err)
	assert.Equal(t, `{"quiz":[]}`, text)
}

func TestOpenAIClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited","type":"requests","code":"rate_limit"}}`))
	}))
	defer srv.Close()

	cfg := geminiConfig(srv.URL)
	cfg.Provider = util.AIProviderOpenAI

	_, err := NewOpenAIClient(cfg).Generate(context.Background(), "p")
	var upstream *util.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusTooManyRequests, upstream.Status)
	assert.Equal(t, "rate limited", upstream.Body)
}

func TestAIService_MissingKeyAndReload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	defer srv.Close()

	cfg := geminiConfig(srv.URL)
	cfg.APIKey = ""
	s := NewAIService(cfg)

	_, err := s.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, util.ErrAIKeyMissing)

	cfg.APIKey = "now-set"
	s.Reload(cfg)
	text, err := s.Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, util.AIProviderGemini, s.Provider())
}
