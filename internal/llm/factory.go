package llm

import (
	"fmt"
	"strings"

	"github.com/tahcohcat/questagram/config"
	"github.com/tahcohcat/questagram/internal/llm/ollama"
	"github.com/tahcohcat/questagram/internal/llm/openai"
)

type Provider string

const (
	ProviderOllama Provider = "ollama"
	ProviderOpenAI Provider = "openai"
)

// NewClient creates the provider selected by llm.provider.
func NewClient(cfg *config.Config) (LLM, error) {
	switch Provider(strings.ToLower(cfg.LLM.Provider)) {
	case ProviderOllama:
		return ollama.NewClient(&cfg.Ollama)
	case ProviderOpenAI:
		return openai.NewClient(&cfg.OpenAI)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLM.Provider)
	}
}
