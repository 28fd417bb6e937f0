package providers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"docrag/internal/config"
	"docrag/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerBuildsProviders(t *testing.T) {
	m, err := NewManager(config.Config{LLMProviders: "mock|groq:team", EmbedProviders: "mock", EmbedDim: 8}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, m.PreferredLLMOrder())
	assert.Len(t, m.EmbedProviderRefs(), 1)
	assert.IsType(t, &FailoverLLM{}, m.LLM())
	assert.IsType(t, &MockProvider{}, m.Embedder())
}

func TestNewManagerRejectsUnknownAndGroqEmbeddings(t *testing.T) {
	_, err := NewManager(config.Config{LLMProviders: "nope", EmbedProviders: "mock"}, nil)
	require.Error(t, err)
	_, err = NewManager(config.Config{LLMProviders: "mock", EmbedProviders: "groq"}, nil)
	require.Error(t, err)
}

type failingLLM struct{ err error }

func (f failingLLM) Generate(context.Context, GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	return GenerateResponse{}, ProviderInfo{Name: "bad"}, f.err
}

func TestFailoverLLMFallsThrough(t *testing.T) {
	f := &FailoverLLM{
		providers: []NamedLLMProvider{
			{Ref: ProviderRef{Raw: "bad"}, Provider: failingLLM{err: errors.New("503 unavailable")}},
			{Ref: ProviderRef{Raw: "mock"}, Provider: NewMockProvider(4)},
		},
		log: discardLogger(),
	}
	resp, info, err := f.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "mock", info.Name)
	assert.NotEmpty(t, resp.Text)
}

func TestFailoverLLMAllFail(t *testing.T) {
	f := &FailoverLLM{
		providers: []NamedLLMProvider{
			{Ref: ProviderRef{Raw: "a"}, Provider: failingLLM{err: errors.New("429 slow down")}},
			{Ref: ProviderRef{Raw: "b"}, Provider: failingLLM{err: errors.New("429 slow down")}},
		},
		log: discardLogger(),
	}
	_, _, err := f.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	require.ErrorIs(t, err, util.ErrRateLimited)
}

func TestMockEmbeddingsAreUnitAndDeterministic(t *testing.T) {
	p := NewMockProvider(16)
	a, _, err := p.Embed(context.Background(), EmbedRequest{Inputs: []string{"alpha", "beta"}})
	require.NoError(t, err)
	b, _, err := p.Embed(context.Background(), EmbedRequest{Inputs: []string{"alpha"}})
	require.NoError(t, err)
	assert.Equal(t, a[0], b[0])
	assert.NotEqual(t, a[0], a[1])

	var sum float64
	for _, x := range a[0] {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestMockGenerateCountsSections(t *testing.T) {
	resp, _, err := NewMockProvider(4).Generate(context.Background(), GenerateRequest{Messages: []Message{
		{Role: RoleSystem, Content: "prompt"},
		{Role: RoleSystem, Content: "Document: a.pdf\nContent: x\nDocument: b.pdf\nContent: y"},
		{Role: RoleUser, Content: "what?"},
	}})
	require.NoError(t, err)
	assert.Equal(t, `Mock answer to "what?" using 2 document sections and 1 conversation turns.`, resp.Text)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
