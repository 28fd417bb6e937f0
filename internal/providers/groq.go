package providers

// NewGroqProvider serves chat completions through Groq's OpenAI-compatible
// endpoint. Groq hosts no embedding models.
func NewGroqProvider(keyName string, rps float64) *CompatProvider {
	return newCompatProvider(compatOptions{
		name:        "groq",
		keyName:     keyName,
		apiKey:      resolveKey("DOCRAG_GROQ_KEY_", "GROQ_API_KEY", keyName),
		keyRequired: true,
		baseURL:     envOr("DOCRAG_GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		chatModel:   envOr("DOCRAG_GROQ_MODEL", "llama-3.1-8b-instant"),
		rps:         rps,
	})
}
