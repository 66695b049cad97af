// Package assistant defines the value types exchanged with the nutrition coach:
// chat turns, normalized replies, recipe suggestions and the provider error taxonomy.
package assistant

import (
	"strings"

	"github.com/healthylife/server/internal/domain/shared"
)

// Capability identifies a cooldown-gated class of provider call
type Capability string

const (
	CapabilityText   Capability = "text-chat"
	CapabilityVision Capability = "vision-chat"
)

// Role is the speaker of a chat turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Source marks which path produced a reply or recommendation
type Source string

const (
	SourcePerplexity    Source = "perplexity"
	SourceGemini        Source = "gemini"
	SourceGoogle        Source = "google"
	SourceOpenAI        Source = "openai"
	SourceLocal         Source = "local-fallback"
	SourceMock          Source = "mock"
	SourceStatic        Source = "static"
	SourceParseFailed   Source = "google-parse-failed"
	SourceErrorFallback Source = "error-fallback"
)

// RecipeSource is the recommendation marker for a recipe provider. Gemini
// recommendations are reported as google, which is what clients branch on.
func RecipeSource(provider string) Source {
	if provider == string(SourceGemini) {
		return SourceGoogle
	}
	return Source(provider)
}

// ChatMessage is one turn of a conversation
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// LastUserMessage returns the content of the latest user turn, or "" if none
func LastUserMessage(messages []ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != RoleAssistant && messages[i].Role != RoleSystem {
			return messages[i].Content
		}
	}
	return ""
}

// ReplyMeta describes how a reply was produced
type ReplyMeta struct {
	Source      Source `json:"source"`
	RateLimited bool   `json:"rate_limited,omitempty"`
	Cooled      bool   `json:"cooled,omitempty"`
	Vision      bool   `json:"vision,omitempty"`
	Summarized  bool   `json:"summarized,omitempty"`
}

// NormalizedReply is the uniform chat output regardless of provider
type NormalizedReply struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	Meta    ReplyMeta `json:"meta"`
}

// NewReply builds an assistant reply
func NewReply(content string, meta ReplyMeta) NormalizedReply {
	return NormalizedReply{Role: RoleAssistant, Content: content, Meta: meta}
}

// ChatRequest is a text chat turn submitted for a reply
type ChatRequest struct {
	Messages        []ChatMessage
	Diet            shared.DietPreference
	ConversationKey string
}

// ImageRequest is a food photo submitted for analysis
type ImageRequest struct {
	Data     []byte
	MimeType string
}

// IsImage reports whether the mimetype names an image
func (r ImageRequest) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(r.MimeType)), "image/")
}

// CartItem is one grocery cart line
type CartItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity,omitempty"`
}

// RecipeSuggestion is a recipe built from grocery items
type RecipeSuggestion struct {
	Name         string   `json:"name"`
	Items        []string `json:"items"`
	Instructions string   `json:"instructions,omitempty"`
}

// RecommendRequest asks for recipes that use the cart
type RecommendRequest struct {
	Diet shared.DietPreference
	Cart []CartItem
}

// RecommendationMeta describes how recommendations were produced
type RecommendationMeta struct {
	Source  Source `json:"source"`
	Model   string `json:"model,omitempty"`
	Message string `json:"message,omitempty"`
}

// Recommendation is the output of the recipe recommendation path
type Recommendation struct {
	Diet    shared.DietPreference `json:"diet"`
	Recipes []RecipeSuggestion    `json:"recipes"`
	Meta    RecommendationMeta    `json:"meta"`
}
