package llm

import (
	"context"

	"github.com/ternarybob/curator/internal/interfaces"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderOpenAI uses an OpenAI-compatible chat completion endpoint
	ProviderOpenAI ProviderType = "openai"
	// ProviderClaude uses Anthropic Claude API
	ProviderClaude ProviderType = "claude"
)

// ContentRequest represents a provider-agnostic content generation request
type ContentRequest struct {
	Messages    []interfaces.Message
	Model       string
	Temperature float32
	MaxTokens   int
}

// ContentResponse represents a provider-agnostic content generation response
type ContentResponse struct {
	Text     string
	Provider ProviderType
	Model    string
}

// Provider defines the interface for AI content generation
type Provider interface {
	GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error)
	GetProviderType() ProviderType
	Close() error
}
