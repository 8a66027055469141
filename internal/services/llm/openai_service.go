package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/httpclient"
	"github.com/ternarybob/curator/internal/interfaces"
)

// OpenAIService implements the Provider interface against any endpoint
// exposing the OpenAI-compatible chat-completions surface: a hosted
// service or a local server. Streaming is always disabled; answers are
// consumed whole.
type OpenAIService struct {
	config     *common.OpenAIConfig
	logger     arbor.ILogger
	httpClient *http.Client
}

// chatCompletionRequest is the wire request of the compatible surface.
type chatCompletionRequest struct {
	Model       string               `json:"model"`
	Messages    []interfaces.Message `json:"messages"`
	Temperature float32              `json:"temperature,omitempty"`
	Stream      bool                 `json:"stream"`
}

// chatCompletionResponse carries the answer at choices[0].message.content.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewOpenAIService creates an OpenAI-compatible provider from
// configuration.
func NewOpenAIService(cfg *common.OpenAIConfig, logger arbor.ILogger) (*OpenAIService, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("openai base_url is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai model is required")
	}

	timeout := 5 * time.Minute
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout duration '%s': %w", cfg.Timeout, err)
		}
		timeout = d
	}

	service := &OpenAIService{
		config:     cfg,
		logger:     logger,
		httpClient: httpclient.NewDefaultHTTPClient(timeout),
	}

	logger.Debug().
		Str("base_url", cfg.BaseURL).
		Str("model", cfg.Model).
		Dur("timeout", timeout).
		Msg("OpenAI-compatible LLM service initialized")

	return service, nil
}

// GenerateContent invokes the completion endpoint synchronously.
func (s *OpenAIService) GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error) {
	if len(request.Messages) == 0 {
		return nil, fmt.Errorf("messages cannot be empty for chat completion")
	}

	model := request.Model
	if model == "" {
		model = s.config.Model
	}
	temperature := request.Temperature
	if temperature <= 0 {
		temperature = s.config.Temperature
	}

	payload := chatCompletionRequest{
		Model:       model,
		Messages:    request.Messages,
		Temperature: temperature,
		Stream:      false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	endpoint := strings.TrimRight(s.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	}

	startTime := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("completion endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var decoded chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to parse completion response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return nil, fmt.Errorf("no choices in completion response")
	}

	text := decoded.Choices[0].Message.Content
	s.logger.Debug().
		Str("model", model).
		Int("response_length", len(text)).
		Dur("duration", time.Since(startTime)).
		Msg("Chat completion generated")

	return &ContentResponse{
		Text:     text,
		Provider: ProviderOpenAI,
		Model:    model,
	}, nil
}

// GetProviderType returns the provider type.
func (s *OpenAIService) GetProviderType() ProviderType {
	return ProviderOpenAI
}

// Close releases resources held by the provider.
func (s *OpenAIService) Close() error {
	return nil
}
