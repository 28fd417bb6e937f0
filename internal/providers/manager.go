package providers

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"docrag/internal/config"
)

type NamedLLMProvider struct {
	Ref      ProviderRef
	Provider LLMProvider
}

type NamedEmbedProvider struct {
	Ref      ProviderRef
	Provider EmbeddingProvider
}

type Manager struct {
	llmProviders   []NamedLLMProvider
	embedProviders []NamedEmbedProvider
	log            *slog.Logger
}

func NewManager(cfg config.Config, log *slog.Logger) (*Manager, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := &Manager{log: log}
	for _, ref := range ParseProviderList(cfg.LLMProviders) {
		p, err := buildProvider(ref, cfg)
		if err != nil {
			return nil, err
		}
		m.llmProviders = append(m.llmProviders, NamedLLMProvider{Ref: ref, Provider: p})
	}
	for _, ref := range ParseProviderList(cfg.EmbedProviders) {
		if strings.EqualFold(ref.Name, "groq") {
			return nil, fmt.Errorf("provider %s does not support embeddings", ref.Raw)
		}
		p, err := buildProvider(ref, cfg)
		if err != nil {
			return nil, err
		}
		m.embedProviders = append(m.embedProviders, NamedEmbedProvider{Ref: ref, Provider: p})
	}
	return m, nil
}

// Embedder returns an EmbeddingProvider that fails over across the
// configured providers, real ones before mock.
func (m *Manager) Embedder() EmbeddingProvider {
	ordered := make([]NamedEmbedProvider, 0, len(m.embedProviders))
	for _, i := range m.PreferredEmbedOrder() {
		ordered = append(ordered, m.embedProviders[i])
	}
	if len(ordered) == 1 {
		return ordered[0].Provider
	}
	return &FailoverEmbedder{providers: ordered, log: m.log}
}

// LLM returns an LLMProvider that fails over across the configured
// providers, real ones before mock.
func (m *Manager) LLM() LLMProvider {
	ordered := make([]NamedLLMProvider, 0, len(m.llmProviders))
	for _, i := range m.PreferredLLMOrder() {
		ordered = append(ordered, m.llmProviders[i])
	}
	if len(ordered) == 1 {
		return ordered[0].Provider
	}
	return &FailoverLLM{providers: ordered, log: m.log}
}

func (m *Manager) PreferredLLMOrder() []int {
	return preferredOrder(len(m.llmProviders), func(i int) string { return strings.ToLower(m.llmProviders[i].Ref.Name) })
}

func (m *Manager) PreferredEmbedOrder() []int {
	return preferredOrder(len(m.embedProviders), func(i int) string { return strings.ToLower(m.embedProviders[i].Ref.Name) })
}

func preferredOrder(n int, nameAt func(i int) string) []int {
	if n <= 0 {
		return nil
	}
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if nameAt(i) != "mock" {
			out = append(out, i)
		}
	}
	for i := 0; i < n; i++ {
		if nameAt(i) == "mock" {
			out = append(out, i)
		}
	}
	return out
}

func (m *Manager) EmbedProviderRefs() []ProviderRef {
	out := make([]ProviderRef, 0, len(m.embedProviders))
	for i := range m.embedProviders {
		out = append(out, m.embedProviders[i].Ref)
	}
	return out
}

func (m *Manager) LLMProviderRefs() []ProviderRef {
	out := make([]ProviderRef, 0, len(m.llmProviders))
	for i := range m.llmProviders {
		out = append(out, m.llmProviders[i].Ref)
	}
	return out
}

type provider interface {
	LLMProvider
	EmbeddingProvider
}

func buildProvider(ref ProviderRef, cfg config.Config) (provider, error) {
	switch strings.ToLower(ref.Name) {
	case "mock":
		return NewMockProvider(cfg.EmbedDim), nil
	case "openai":
		return NewOpenAIProvider(ref.KeyAlias, cfg.ProviderRPS), nil
	case "ollama":
		return NewOllamaProvider(ref.KeyAlias, cfg.ProviderRPS), nil
	case "groq":
		return NewGroqProvider(ref.KeyAlias, cfg.ProviderRPS), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
	}
}
