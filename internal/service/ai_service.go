package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"lingua_backend/internal/config"
	"lingua_backend/internal/util"
	"lingua_backend/pkg/monitoring"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
)

// TextGenerator 单轮文本生成
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var errInvalidAIResponse = errors.New("Invalid response from AI")

// GeminiClient 调用 generateContent 接口
type GeminiClient struct {
	config config.AIConfig
	http   *http.Client
}

func NewGeminiClient(cfg config.AIConfig) *GeminiClient {
	return &GeminiClient{config: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiGenerationConfig struct {
	Temperature     float32 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     g.config.Temperature,
			MaxOutputTokens: g.config.MaxOutputTokens,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		g.config.BaseURL, url.PathEscape(g.config.Model), url.QueryEscape(g.config.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return "", &util.UpstreamError{Service: "Gemini API", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &util.UpstreamError{Service: "Gemini API", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &util.UpstreamError{Service: "Gemini API", Status: resp.StatusCode, Body: string(body)}
	}

	var result geminiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &util.UpstreamError{Service: "Gemini API", Err: errInvalidAIResponse}
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", &util.UpstreamError{Service: "Gemini API", Err: errInvalidAIResponse}
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}

const openAISystemPrompt = "You write Spanish lessons for English-speaking beginners and always answer with a single JSON object."

// OpenAIClient 兼容 OpenAI Chat Completions 的服务
type OpenAIClient struct {
	client *openai.Client
	config config.AIConfig
}

func NewOpenAIClient(cfg config.AIConfig) *OpenAIClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &OpenAIClient{client: openai.NewClientWithConfig(oc), config: cfg}
}

func (o *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: openAISystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: o.config.Temperature,
		MaxTokens:   o.config.MaxOutputTokens,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &util.UpstreamError{Service: "OpenAI API", Status: apiErr.HTTPStatusCode, Body: apiErr.Message, Err: err}
		}
		return "", &util.UpstreamError{Service: "OpenAI API", Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &util.UpstreamError{Service: "OpenAI API", Err: errInvalidAIResponse}
	}
	return resp.Choices[0].Message.Content, nil
}

// AIService 按配置选择模型提供方，支持热加载
type AIService struct {
	mu        sync.RWMutex
	config    config.AIConfig
	generator TextGenerator
}

func NewAIService(cfg config.AIConfig) *AIService {
	s := &AIService{}
	s.Reload(cfg)
	return s
}

// Reload 替换模型配置，进行中的请求继续使用旧客户端
func (s *AIService) Reload(cfg config.AIConfig) {
	var gen TextGenerator
	switch cfg.Provider {
	case util.AIProviderOpenAI:
		gen = NewOpenAIClient(cfg)
	default:
		gen = NewGeminiClient(cfg)
	}

	s.mu.Lock()
	s.config = cfg
	s.generator = gen
	s.mu.Unlock()
}

func (s *AIService) Provider() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.Provider
}

func (s *AIService) Generate(ctx context.Context, prompt string) (string, error) {
	s.mu.RLock()
	cfg, gen := s.config, s.generator
	s.mu.RUnlock()

	if cfg.APIKey == "" {
		return "", util.ErrAIKeyMissing
	}

	start := time.Now()
	text, err := gen.Generate(ctx, prompt)
	monitoring.AIRequestDuration.WithLabelValues(cfg.Provider).Observe(time.Since(start).Seconds())
	return text, err
}
