package llm

import (
	"fmt"

	"github.com/5-07/sweeten/internal/config"
	"github.com/5-07/sweeten/internal/plan"
)

// NewClient builds the text generator selected by LLM_PROVIDER.
func NewClient(cfg *config.Config) (plan.TextGenerator, error) {
	switch cfg.LLMProvider {
	case "gemini":
		c, err := NewGeminiClient(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "cloudflare":
		c, err := NewCloudflareClient(cfg.CFBaseURL, cfg.CFAccountID, cfg.CFAPIKey, cfg.CFModel)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.LLMProvider)
	}
}
