// Package gemini provides a client for the Gemini generateContent REST API
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/healthylife/server/internal/domain/assistant"
	"github.com/healthylife/server/internal/infrastructure/config"
	"github.com/healthylife/server/internal/ports/outbound"
)

// Name is the provider name used as the reply source
const Name = "gemini"

const (
	defaultTopP  = 0.9
	maxErrorBody = 2048
)

// Client implements ChatProvider, TextGenerator and VisionProvider
type Client struct {
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

// NewClient creates a Gemini client
func NewClient(cfg config.ProviderConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	visionModel := cfg.VisionModel
	if visionModel == "" {
		visionModel = cfg.Model
	}
	recipeModel := cfg.RecipeModel
	if recipeModel == "" {
		recipeModel = cfg.Model
	}

	logger.Info("AI provider client initialized",
		zap.String("provider", Name),
		zap.String("model", cfg.Model),
		zap.String("vision_model", visionModel))

	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		visionModel: visionModel,
		recipeModel: recipeModel,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		client:      httpClient,
		logger:      logger.Named(Name),
	}
}

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// Name returns the provider name
func (c *Client) Name() string { return Name }

// Model returns the model used for recipe generation
func (c *Client) Model() string { return c.recipeModel }

// Chat answers a multi-turn conversation. Assistant turns map to the
// "model" role.
func (c *Client) Chat(ctx context.Context, req outbound.ChatCompletion) (string, error) {
	contents := make([]content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := "user"
		if m.Role == assistant.RoleAssistant {
			role = "model"
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: m.Content}}})
	}

	body := generateRequest{
		Contents:          contents,
		SystemInstruction: systemInstruction(req.System, req.Context),
		GenerationConfig:  c.generationConfig(req.Options, defaultTopP),
	}
	return c.generate(ctx, modelOr(req.Options.Model, c.model), body)
}

// Generate answers a single prompt
func (c *Client) Generate(ctx context.Context, prompt string, opts outbound.GenerationOptions) (string, error) {
	body := generateRequest{
		Contents:         []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: c.generationConfig(opts, 0),
	}
	return c.generate(ctx, modelOr(opts.Model, c.recipeModel), body)
}

// Vision asks about an image sent as inline data
func (c *Client) Vision(ctx context.Context, req outbound.VisionRequest) (string, error) {
	mime := req.Image.MimeType
	if mime == "" {
		mime = "image/jpeg"
	}

	body := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{
			{Text: req.Prompt},
			{InlineData: &inlineData{MimeType: mime, Data: base64.StdEncoding.EncodeToString(req.Image.Data)}},
		}}},
		SystemInstruction: systemInstruction(req.System, ""),
	}
	if req.Options != (outbound.GenerationOptions{}) {
		body.GenerationConfig = c.generationConfig(req.Options, 0)
	}
	return c.generate(ctx, modelOr(req.Options.Model, c.visionModel), body)
}

func systemInstruction(system, extra string) *content {
	var parts []part
	if system != "" {
		parts = append(parts, part{Text: system})
	}
	if extra != "" {
		parts = append(parts, part{Text: extra})
	}
	if len(parts) == 0 {
		return nil
	}
	return &content{Parts: parts}
}

func (c *Client) generationConfig(opts outbound.GenerationOptions, topP float64) *generationConfig {
	cfg := &generationConfig{
		Temperature:     opts.Temperature,
		TopP:            opts.TopP,
		MaxOutputTokens: opts.MaxTokens,
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = c.temperature
	}
	if cfg.TopP == 0 {
		cfg.TopP = topP
	}
	if cfg.MaxOutputTokens == 0 {
		cfg.MaxOutputTokens = c.maxTokens
	}
	return cfg
}

func modelOr(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

// generate makes the API call and joins the text parts of the first candidate
func (c *Client) generate(ctx context.Context, model string, body generateRequest) (string, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, url.PathEscape(model), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		// the request URL carries the key
		if uerr, ok := err.(*url.Error); ok {
			err = uerr.Err
		}
		return "", fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &assistant.StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("Content generated",
		zap.String("model", model),
		zap.Int("total_tokens", out.UsageMetadata.TotalTokenCount),
		zap.Duration("duration", time.Since(start)))

	if len(out.Candidates) == 0 {
		return "", nil
	}
	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}
