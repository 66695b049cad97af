// Package openai provides a client for OpenAI-compatible chat completion APIs.
// It serves both OpenAI and Perplexity, which share the wire format.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/healthylife/server/internal/domain/assistant"
	"github.com/healthylife/server/internal/infrastructure/config"
	"github.com/healthylife/server/internal/ports/outbound"
)

const maxErrorBody = 2048

// Client implements ChatProvider, TextGenerator and VisionProvider
type Client struct {
	name        string
	apiKey      string
	baseURL     string
	model       string
	visionModel string
	recipeModel string
	temperature float64
	maxTokens   int
	client      *http.Client
	logger      *zap.Logger
}

// NewClient creates a client named name (used as the reply source)
func NewClient(name string, cfg config.ProviderConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	recipeModel := cfg.RecipeModel
	if recipeModel == "" {
		recipeModel = cfg.Model
	}
	visionModel := cfg.VisionModel
	if visionModel == "" {
		visionModel = cfg.Model
	}

	logger.Info("AI provider client initialized",
		zap.String("provider", name),
		zap.String("model", cfg.Model),
		zap.String("base_url", cfg.BaseURL))

	return &Client{
		name:        name,
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		visionModel: visionModel,
		recipeModel: recipeModel,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		client:      httpClient,
		logger:      logger.Named(name),
	}
}

// API structures
type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	TopP        float64   `json:"top_p,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// message content is either a string or a list of parts
type message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Name returns the provider name
func (c *Client) Name() string { return c.name }

// Model returns the model used for recipe generation
func (c *Client) Model() string { return c.recipeModel }

// Chat answers a multi-turn conversation
func (c *Client) Chat(ctx context.Context, req outbound.ChatCompletion) (string, error) {
	messages := make([]message, 0, len(req.Messages)+2)
	if req.System != "" {
		messages = append(messages, message{Role: "system", Content: req.System})
	}
	if req.Context != "" {
		messages = append(messages, message{Role: "system", Content: req.Context})
	}
	for _, m := range req.Messages {
		role := string(m.Role)
		if m.Role != assistant.RoleAssistant {
			role = string(assistant.RoleUser)
		}
		messages = append(messages, message{Role: role, Content: m.Content})
	}

	return c.complete(ctx, c.options(req.Options, c.model), messages)
}

// Generate answers a single prompt
func (c *Client) Generate(ctx context.Context, prompt string, opts outbound.GenerationOptions) (string, error) {
	return c.complete(ctx, c.options(opts, c.recipeModel), []message{{Role: "user", Content: prompt}})
}

// Vision asks about an image sent inline as a data URL
func (c *Client) Vision(ctx context.Context, req outbound.VisionRequest) (string, error) {
	mime := req.Image.MimeType
	if mime == "" {
		mime = "image/jpeg"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(req.Image.Data))

	messages := make([]message, 0, 2)
	if req.System != "" {
		messages = append(messages, message{Role: "system", Content: req.System})
	}
	messages = append(messages, message{Role: "user", Content: []contentPart{
		{Type: "text", Text: req.Prompt},
		{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
	}})

	return c.complete(ctx, c.options(req.Options, c.visionModel), messages)
}

func (c *Client) options(opts outbound.GenerationOptions, model string) outbound.GenerationOptions {
	if opts.Model == "" {
		opts.Model = model
	}
	if opts.Temperature == 0 {
		opts.Temperature = c.temperature
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = c.maxTokens
	}
	return opts
}

// complete makes the API call
func (c *Client) complete(ctx context.Context, opts outbound.GenerationOptions, messages []message) (string, error) {
	reqBody := chatCompletionRequest{
		Model:       opts.Model,
		Messages:    messages,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		MaxTokens:   opts.MaxTokens,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &assistant.StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("Completion received",
		zap.String("model", opts.Model),
		zap.Int("total_tokens", completion.Usage.TotalTokens),
		zap.Duration("duration", time.Since(start)))

	if len(completion.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
