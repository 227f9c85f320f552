// Package gemini provides a model provider adapter using the Google
// Generative Language API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.ModelProvider = (*Provider)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.0-flash"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the Gemini provider.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL is the API base URL.
	BaseURL string

	// Model is the model to use (default: gemini-2.0-flash).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// Provider calls the generateContent endpoint.
type Provider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// generateRequest is the :generateContent request format.
type generateRequest struct {
	SystemInstruction *content       `json:"systemInstruction,omitempty"`
	Contents          []content      `json:"contents"`
	Tools             []toolWrapper  `json:"tools,omitempty"`
	GenerationConfig  *generationCfg `json:"generationConfig,omitempty"`
}

// content is one message in Gemini's format.
type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

// part is one piece of a message: text or a function call.
type part struct {
	Text         string        `json:"text,omitempty"`
	FunctionCall *functionCall `json:"functionCall,omitempty"`
}

// functionCall is a model-issued tool invocation.
type functionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// toolWrapper carries function declarations.
type toolWrapper struct {
	FunctionDeclarations []functionDecl `json:"functionDeclarations"`
}

// functionDecl describes one callable function.
type functionDecl struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// generationCfg tunes generation.
type generationCfg struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

// generateResponse is the :generateContent response format.
type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// New creates a new Gemini provider.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Provider{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "gemini"
}

// Complete sends a completion request and returns the reply.
func (p *Provider) Complete(ctx context.Context, req driven.CompletionRequest) (*driven.Completion, error) {
	reqBody := generateRequest{}

	if req.System != "" {
		reqBody.SystemInstruction = &content{Parts: []part{{Text: req.System}}}
	}
	for _, msg := range req.Messages {
		// Gemini uses "model" where the port uses "assistant".
		role := msg.Role
		if role == "assistant" {
			role = "model"
		}
		reqBody.Contents = append(reqBody.Contents, content{
			Role:  role,
			Parts: []part{{Text: msg.Content}},
		})
	}
	if len(req.Tools) > 0 {
		wrapper := toolWrapper{}
		for _, tool := range req.Tools {
			wrapper.FunctionDeclarations = append(wrapper.FunctionDeclarations, functionDecl{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			})
		}
		reqBody.Tools = []toolWrapper{wrapper}
	}
	if req.MaxTokens > 0 || req.Temperature > 0 {
		reqBody.GenerationConfig = &generationCfg{
			MaxOutputTokens: req.MaxTokens,
			Temperature:     req.Temperature,
		}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, p.model, p.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini: read response: %v", domain.ErrProviderUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: gemini: %s", domain.ErrProviderRateLimited, strings.TrimSpace(string(body)))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: gemini status %d: %s", domain.ErrProviderUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return nil, fmt.Errorf("%w: gemini: decode response: %v", domain.ErrProviderUnavailable, err)
	}
	if genResp.Error != nil {
		return nil, fmt.Errorf("%w: gemini: %s", domain.ErrProviderUnavailable, genResp.Error.Message)
	}
	if len(genResp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: gemini: no candidates returned", domain.ErrProviderUnavailable)
	}

	completion := &driven.Completion{
		TokensUsed: genResp.UsageMetadata.TotalTokenCount,
	}

	var text strings.Builder
	for _, prt := range genResp.Candidates[0].Content.Parts {
		if prt.FunctionCall != nil {
			completion.ToolCalls = append(completion.ToolCalls, driven.ToolCall{
				Name:      prt.FunctionCall.Name,
				Arguments: prt.FunctionCall.Args,
			})
			continue
		}
		text.WriteString(prt.Text)
	}
	completion.Text = text.String()

	return completion, nil
}

// Close releases resources.
func (p *Provider) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
