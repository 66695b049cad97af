package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/healthylife/server/internal/domain/assistant"
	"github.com/healthylife/server/internal/infrastructure/config"
	"github.com/healthylife/server/internal/ports/outbound"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.ProviderConfig{
		APIKey:      "g-key",
		BaseURL:     srv.URL,
		Model:       "gemini-1.5-flash",
		VisionModel: "gemini-1.5-pro",
		Temperature: 0.8,
		MaxTokens:   280,
	}, srv.Client(), zaptest.NewLogger(t))
}

func respond(w http.ResponseWriter, parts ...string) {
	var p []map[string]string
	for _, s := range parts {
		p = append(p, map[string]string{"text": s})
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"candidates": []interface{}{map[string]interface{}{"content": map[string]interface{}{"parts": p}}},
	})
}

func TestChatMapsRolesAndGenerationConfig(t *testing.T) {
	var got generateRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		respond(w, "Try ", "moong dal.")
	})

	out, err := client.Chat(context.Background(), outbound.ChatCompletion{
		System:  "be brief",
		Context: "summary",
		Messages: []assistant.ChatMessage{
			{Role: assistant.RoleUser, Content: "hi"},
			{Role: assistant.RoleAssistant, Content: "hello"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Try moong dal.", out)

	require.Len(t, got.Contents, 2)
	assert.Equal(t, "user", got.Contents[0].Role)
	assert.Equal(t, "model", got.Contents[1].Role)
	require.NotNil(t, got.SystemInstruction)
	assert.Len(t, got.SystemInstruction.Parts, 2)
	require.NotNil(t, got.GenerationConfig)
	assert.Equal(t, 0.8, got.GenerationConfig.Temperature)
	assert.Equal(t, 0.9, got.GenerationConfig.TopP)
	assert.Equal(t, 280, got.GenerationConfig.MaxOutputTokens)
}

func TestVisionUsesVisionModelAndInlineData(t *testing.T) {
	var got generateRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-1.5-pro:generateContent", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		respond(w, "idli")
	})

	out, err := client.Vision(context.Background(), outbound.VisionRequest{
		Prompt: "what?",
		Image:  assistant.ImageRequest{Data: []byte("abc"), MimeType: "image/jpeg"},
	})
	require.NoError(t, err)
	assert.Equal(t, "idli", out)

	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 2)
	require.NotNil(t, got.Contents[0].Parts[1].InlineData)
	assert.Equal(t, "YWJj", got.Contents[0].Parts[1].InlineData.Data)
	assert.Nil(t, got.GenerationConfig)
}

func TestQuotaErrorClassifiesAsRateLimited(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"status":"RESOURCE_EXHAUSTED","message":"quota exceeded"}}`))
	})

	_, err := client.Generate(context.Background(), "x", outbound.GenerationOptions{})
	require.Error(t, err)
	assert.True(t, assistant.IsRateLimited(err))
}

func TestTransportErrorDoesNotLeakKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	client.baseURL = "http://127.0.0.1:1"

	_, err := client.Generate(context.Background(), "x", outbound.GenerationOptions{})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "g-key")
}

func TestEmptyCandidatesReturnEmptyText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	})

	out, err := client.Generate(context.Background(), "x", outbound.GenerationOptions{})
	require.NoError(t, err)
	assert.Empty(t, out)
}
