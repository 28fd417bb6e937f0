package chat

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"docrag/internal/models"
	"docrag/internal/providers"
)

const ApologyText = "I apologize, but I encountered a technical issue. Please try again in a moment."

type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]models.SearchResult, error)
}

type Reply struct {
	Text    string                `json:"text"`
	Sources []models.SearchResult `json:"sources"`
	Failed  bool                  `json:"failed"`
}

// Responder answers questions from retrieved document context and the
// caller's conversation history. It never returns an error; failures turn
// into an apology reply.
type Responder struct {
	llm          providers.LLMProvider
	retriever    Retriever
	systemPrompt string
	topK         int
	log          *slog.Logger
}

func NewResponder(llm providers.LLMProvider, retriever Retriever, systemPrompt string, topK int, log *slog.Logger) *Responder {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if topK <= 0 {
		topK = 4
	}
	return &Responder{llm: llm, retriever: retriever, systemPrompt: systemPrompt, topK: topK, log: log}
}

// Respond retrieves context for query and asks the model.
func (r *Responder) Respond(ctx context.Context, query string, history []models.Turn) Reply {
	return r.RespondWithContext(ctx, query, history, r.retrieve(ctx, query))
}

// RespondWithContext asks the model using caller-supplied context.
func (r *Responder) RespondWithContext(ctx context.Context, query string, history []models.Turn, sources []models.SearchResult) Reply {
	if strings.TrimSpace(query) == "" {
		return Reply{Text: "Please ask a question about your documents.", Sources: sources}
	}
	msgs := BuildMessages(r.systemPrompt, query, history, sources)
	resp, info, err := r.llm.Generate(ctx, providers.GenerateRequest{Operation: "chat", Messages: msgs})
	if err != nil {
		r.log.Error("llm response failed", "provider", info.Name, "error", err)
		return Reply{Text: ApologyText, Sources: sources, Failed: true}
	}
	r.log.Debug("llm responded", "provider", info.Name, "model", info.Model, "sources", len(sources))
	return Reply{Text: resp.Text, Sources: sources}
}

func (r *Responder) retrieve(ctx context.Context, query string) []models.SearchResult {
	if r.retriever == nil || strings.TrimSpace(query) == "" {
		return nil
	}
	results, err := r.retriever.Search(ctx, query, r.topK)
	if err != nil {
		r.log.Warn("retrieval failed, answering without context", "error", err)
		return nil
	}
	return results
}
