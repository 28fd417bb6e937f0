package providers

import (
	"os"
	"strings"
)

// NewOllamaProvider uses a local Ollama server through its /v1 compatibility
// API. The alias selects the embedding model, e.g. ollama:nomic.
func NewOllamaProvider(alias string, rps float64) *CompatProvider {
	return newCompatProvider(compatOptions{
		name:       "ollama",
		keyName:    alias,
		baseURL:    envOr("DOCRAG_OLLAMA_BASE_URL", "http://localhost:11434/v1"),
		chatModel:  envOr("DOCRAG_OLLAMA_MODEL", "llama3.1"),
		embedModel: resolveOllamaEmbedModel(alias),
		rps:        rps,
	})
}

func resolveOllamaEmbedModel(alias string) string {
	alias = strings.TrimSpace(alias)
	if alias != "" {
		if v := strings.TrimSpace(os.Getenv("DOCRAG_OLLAMA_EMBED_MODEL_" + sanitizeEnvToken(alias))); v != "" {
			return v
		}
		switch strings.ToLower(alias) {
		case "nomic":
			return "nomic-embed-text"
		case "bge":
			return "bge-small-en-v1.5"
		}
		// ollama:mxbai-embed-large names the model directly.
		if strings.ContainsAny(alias, "-/.") {
			return alias
		}
	}
	return envOr("DOCRAG_OLLAMA_EMBED_MODEL", "nomic-embed-text")
}

// matchDimension truncates or zero-pads v to target. A non-positive target
// leaves v untouched.
func matchDimension(v []float32, target int) []float32 {
	if target <= 0 || len(v) == target {
		return v
	}
	if len(v) > target {
		return v[:target]
	}
	out := make([]float32, target)
	copy(out, v)
	return out
}
