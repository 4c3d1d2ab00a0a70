package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alienxp03/arbiter/internal/config"
	"github.com/alienxp03/arbiter/internal/core"
)

// OpenAIProvider calls the OpenAI Responses API over HTTP. It is the
// API-family adapter; CLI-family providers live in CLIProvider.
type OpenAIProvider struct {
	name       string
	baseURL    string
	apiKeyEnv  string
	defaultMod string
	client     *http.Client
}

// NewOpenAIProvider creates an API provider from config.
func NewOpenAIProvider(name string, cfg config.ProviderConfig) *OpenAIProvider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIProvider{
		name:       name,
		baseURL:    baseURL,
		apiKeyEnv:  cfg.APIKeyEnv,
		defaultMod: cfg.DefaultModel,
		client:     &http.Client{Timeout: timeout},
	}
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string { return p.name }

// Type returns the provider type.
func (p *OpenAIProvider) Type() string { return config.TypeAPI }

// Available reports whether an API key is present.
func (p *OpenAIProvider) Available() bool {
	return p.apiKey() != ""
}

func (p *OpenAIProvider) apiKey() string {
	env := p.apiKeyEnv
	if env == "" {
		env = "OPENAI_API_KEY"
	}
	return strings.TrimSpace(os.Getenv(env))
}

type openAIRequest struct {
	Model           string          `json:"model"`
	Input           []openAIMessage `json:"input"`
	MaxOutputTokens int             `json:"max_output_tokens,omitempty"`
}

type openAIMessage struct {
	Role    string          `json:"role"`
	Content []openAIContent `json:"content"`
}

type openAIContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type openAIResponse struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// Invoke posts the prompt to the Responses endpoint with the per-turn
// timeout and token budget.
func (p *OpenAIProvider) Invoke(ctx context.Context, req InvokeRequest) (string, error) {
	key := p.apiKey()
	if key == "" {
		return "", &InvokeError{
			Provider: p.name,
			Code:     core.ErrCodeProviderHTTP,
			Message:  "missing API key",
		}
	}

	model := req.Model
	if model == "" {
		model = p.defaultMod
	}

	payload := openAIRequest{
		Model: model,
		Input: []openAIMessage{{
			Role:    "user",
			Content: []openAIContent{{Type: "input_text", Text: req.Prompt}},
		}},
		MaxOutputTokens: req.MaxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", &InvokeError{Provider: p.name, Code: core.ErrCodeProviderHTTP, Message: "failed to encode request", Err: err}
	}

	if req.MaxSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.MaxSeconds)*time.Second)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return "", &InvokeError{Provider: p.name, Code: core.ErrCodeProviderHTTP, Message: "failed to build request", Err: err}
	}
	httpReq.Header.Set("Authorization", "Bearer "+key)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		code := core.ErrCodeProviderHTTP
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			code = core.ErrCodeProviderTimeout
		}
		return "", &InvokeError{Provider: p.name, Code: code, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &InvokeError{Provider: p.name, Code: core.ErrCodeProviderHTTP, Message: "failed to read response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &InvokeError{
			Provider: p.name,
			Code:     core.ErrCodeProviderHTTP,
			Message:  fmt.Sprintf("API status %d: %s", resp.StatusCode, core.SummarizeLine(string(data), 160)),
		}
	}

	var parsed openAIResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", &InvokeError{Provider: p.name, Code: core.ErrCodeProviderHTTP, Message: "failed to decode response", Err: err}
	}

	if text := strings.TrimSpace(parsed.OutputText); text != "" {
		return text, nil
	}
	var chunks []string
	for _, item := range parsed.Output {
		for _, block := range item.Content {
			if (block.Type == "output_text" || block.Type == "text") && strings.TrimSpace(block.Text) != "" {
				chunks = append(chunks, strings.TrimSpace(block.Text))
			}
		}
	}
	text := strings.TrimSpace(strings.Join(chunks, "\n"))
	if text == "" {
		return "", &InvokeError{Provider: p.name, Code: core.ErrCodeProviderEmpty, Message: "provider returned no output"}
	}
	return text, nil
}
