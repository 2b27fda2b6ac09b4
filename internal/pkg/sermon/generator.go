package sermon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/preachertools/sermonforge/internal/pkg/env"
)

// ErrTimeout marks a generation that did not complete before the provider
// deadline or because the caller went away. Retryable; callers must not log
// activity or keep a consumed grace unit on this path.
var ErrTimeout = errors.New("generation timed out")

// Generator is the opaque generation boundary: prompt in, text out.
type Generator interface {
	Generate(ctx context.Context, prompt string, cfg PromptConfig) (string, error)
}

// OpenAIClient calls the chat-completions REST endpoint directly.
type OpenAIClient struct {
	apiKey      string
	model       string
	temperature float64
	timeout     time.Duration
	baseURL     string
	httpClient  *http.Client
}

// NewOpenAIClientFromEnv builds a client from the environment.
func NewOpenAIClientFromEnv() *OpenAIClient {
	temperature := 0.7
	if v, err := strconv.ParseFloat(env.GetEnv("OPENAI_TEMPERATURE", ""), 64); err == nil {
		temperature = v
	}
	return &OpenAIClient{
		apiKey:      env.GetEnv("OPENAI_API_KEY", ""),
		model:       env.GetEnv("OPENAI_MODEL", "gpt-4o-mini"),
		temperature: temperature,
		timeout:     time.Duration(env.GetEnvInt("OPENAI_TIMEOUT_SECONDS", 90)) * time.Second,
		baseURL:     env.GetEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		httpClient:  &http.Client{},
	}
}

// Model returns the configured model name, recorded in the activity log.
func (c *OpenAIClient) Model() string {
	return c.model
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate performs one provider call. The request context is the parent, so
// a disconnecting caller cancels the outbound call and no orphaned work keeps
// charging provider quota.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, cfg PromptConfig) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   cfg.MaxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("provider returned status %d: %s", resp.StatusCode, raw)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode provider response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("provider returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
