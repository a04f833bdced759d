package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/greenlean/greenlean/internal/pkg/env"
)

const defaultCompletionPath = "/v1/completions"

// Provider produces generated plan content from an instruction payload.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// HTTPProvider calls a text completion service over HTTP. The service takes
// the instruction payload and returns generated plan content as text.
type HTTPProvider struct {
	BaseURL string
	APIKey  string
	Model   string

	HTTPClient *http.Client
}

type completionRequest struct {
	Model       string  `json:"model,omitempty"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
}

type completionResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// NewHTTPProviderFromEnv builds a provider from GENERATION_* env vars.
func NewHTTPProviderFromEnv() *HTTPProvider {
	return &HTTPProvider{
		BaseURL: strings.TrimRight(strings.TrimSpace(env.GetEnv("GENERATION_API_URL", "")), "/"),
		APIKey:  strings.TrimSpace(env.GetEnv("GENERATION_API_KEY", "")),
		Model:   strings.TrimSpace(env.GetEnv("GENERATION_MODEL", "")),
		HTTPClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Generate sends the instruction payload and returns the generated text.
func (p *HTTPProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(p.BaseURL) == "" {
		return "", errors.New("GENERATION_API_URL is not configured")
	}
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("prompt is required")
	}

	body, err := json.Marshal(completionRequest{
		Model:       p.Model,
		Prompt:      prompt,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+defaultCompletionPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	client := p.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read completion response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("completion service returned %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	var decoded completionResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if decoded.Error != "" {
		return "", fmt.Errorf("completion service error: %s", decoded.Error)
	}
	if strings.TrimSpace(decoded.Text) == "" {
		return "", errors.New("completion service returned empty text")
	}

	return decoded.Text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
