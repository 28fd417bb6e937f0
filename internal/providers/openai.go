package providers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// CompatProvider talks to any OpenAI-compatible API (OpenAI, Groq, Ollama)
// for chat completions and embeddings.
type CompatProvider struct {
	name       string
	keyName    string
	apiKey     string
	chatModel  string
	embedModel string
	// sendDimensions asks the server to shorten embeddings itself.
	sendDimensions bool
	client         *openai.Client
	limiter        *rate.Limiter
}

type compatOptions struct {
	name           string
	keyName        string
	apiKey         string
	keyRequired    bool
	baseURL        string
	chatModel      string
	embedModel     string
	sendDimensions bool
	rps            float64
}

func newCompatProvider(o compatOptions) *CompatProvider {
	if !o.keyRequired && o.apiKey == "" {
		o.apiKey = o.name
	}
	cfg := openai.DefaultConfig(o.apiKey)
	if o.baseURL != "" {
		cfg.BaseURL = strings.TrimRight(o.baseURL, "/")
	}
	limit := rate.Inf
	if o.rps > 0 {
		limit = rate.Limit(o.rps)
	}
	p := &CompatProvider{
		name:           o.name,
		keyName:        o.keyName,
		apiKey:         o.apiKey,
		chatModel:      o.chatModel,
		embedModel:     o.embedModel,
		sendDimensions: o.sendDimensions,
		client:         openai.NewClientWithConfig(cfg),
		limiter:        rate.NewLimiter(limit, 1),
	}
	return p
}

// NewOpenAIProvider reads OPENAI_API_KEY, or DOCRAG_OPENAI_KEY_<ALIAS> when an
// alias is given.
func NewOpenAIProvider(keyName string, rps float64) *CompatProvider {
	return newCompatProvider(compatOptions{
		name:           "openai",
		keyName:        keyName,
		apiKey:         resolveKey("DOCRAG_OPENAI_KEY_", "OPENAI_API_KEY", keyName),
		keyRequired:    true,
		baseURL:        os.Getenv("DOCRAG_OPENAI_BASE_URL"),
		chatModel:      envOr("DOCRAG_OPENAI_MODEL", openai.GPT4oMini),
		embedModel:     envOr("DOCRAG_OPENAI_EMBED_MODEL", string(openai.SmallEmbedding3)),
		sendDimensions: true,
		rps:            rps,
	})
}

func (p *CompatProvider) info(model string) ProviderInfo {
	return ProviderInfo{Name: p.name, Model: model, Key: p.keyName}
}

func (p *CompatProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	info := p.info(p.chatModel)
	if p.apiKey == "" {
		return GenerateResponse{}, info, fmt.Errorf("%s key missing for alias %q", p.name, p.keyName)
	}
	if p.chatModel == "" {
		return GenerateResponse{}, info, fmt.Errorf("%s has no chat model configured", p.name)
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return GenerateResponse{}, info, err
	}
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    p.chatModel,
		Messages: chatMessages(req),
	})
	if err != nil {
		return GenerateResponse{}, info, fmt.Errorf("%s generate request failed: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return GenerateResponse{}, info, fmt.Errorf("%s returned empty choices", p.name)
	}
	return GenerateResponse{Text: resp.Choices[0].Message.Content}, info, nil
}

func (p *CompatProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	info := p.info(p.embedModel)
	if len(req.Inputs) == 0 {
		return nil, info, errors.New("no embedding inputs")
	}
	if p.apiKey == "" {
		return nil, info, fmt.Errorf("%s key missing for alias %q", p.name, p.keyName)
	}
	if p.embedModel == "" {
		return nil, info, fmt.Errorf("%s has no embedding model configured", p.name)
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, info, err
	}
	embReq := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(p.embedModel),
		Input: req.Inputs,
	}
	if p.sendDimensions && req.Dimension > 0 {
		embReq.Dimensions = req.Dimension
	}
	resp, err := p.client.CreateEmbeddings(ctx, embReq)
	if err != nil {
		return nil, info, fmt.Errorf("%s embedding request failed: %w", p.name, err)
	}
	if len(resp.Data) != len(req.Inputs) {
		return nil, info, fmt.Errorf("%s returned %d embeddings for %d inputs", p.name, len(resp.Data), len(req.Inputs))
	}
	out := make([][]float32, len(req.Inputs))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, info, fmt.Errorf("%s returned embedding index %d out of range", p.name, d.Index)
		}
		v := make([]float32, len(d.Embedding))
		for i := range d.Embedding {
			v[i] = float32(d.Embedding[i])
		}
		out[d.Index] = matchDimension(v, req.Dimension)
	}
	return out, info, nil
}

func chatMessages(req GenerateRequest) []openai.ChatCompletionMessage {
	if len(req.Messages) > 0 {
		out := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
		for _, m := range req.Messages {
			out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
		}
		return out
	}
	prompt := req.Prompt
	if len(req.Context) > 0 {
		prompt += "\n\nContext:\n" + strings.Join(req.Context, "\n\n")
	}
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: "Answer concisely and only from the provided context."},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}
}

func resolveKey(aliasPrefix, fallbackEnv, alias string) string {
	if alias != "" {
		if v := os.Getenv(aliasPrefix + sanitizeEnvToken(alias)); v != "" {
			return v
		}
	}
	return os.Getenv(fallbackEnv)
}

func envOr(k, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return fallback
}

func sanitizeEnvToken(s string) string {
	s = strings.ToUpper(s)
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, ".", "_")
	s = strings.ReplaceAll(s, "/", "_")
	return s
}
