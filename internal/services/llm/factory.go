package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/curator/internal/common"
)

// NewProvider creates the configured completion provider.
func NewProvider(cfg *common.Config, logger arbor.ILogger) (Provider, error) {
	provider := cfg.LLM.DefaultProvider
	if provider == "" {
		provider = common.LLMProviderOpenAI
	}

	logger.Info().Str("provider", string(provider)).Msg("Initializing LLM provider")

	switch provider {
	case common.LLMProviderOpenAI:
		return NewOpenAIService(&cfg.OpenAI, logger)
	case common.LLMProviderClaude:
		return NewClaudeService(&cfg.Claude, logger)
	default:
		return nil, fmt.Errorf("unsupported LLM provider '%s': must be 'openai' or 'claude'", provider)
	}
}
