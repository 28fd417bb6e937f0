package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"docrag/internal/models"
	"docrag/internal/providers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLLM struct{ mock.Mock }

func (m *mockLLM) Generate(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(providers.GenerateResponse), providers.ProviderInfo{Name: "test"}, args.Error(1)
}

type mockRetriever struct{ mock.Mock }

func (m *mockRetriever) Search(ctx context.Context, query string, k int) ([]models.SearchResult, error) {
	args := m.Called(ctx, query, k)
	res, _ := args.Get(0).([]models.SearchResult)
	return res, args.Error(1)
}

func result(source, content string, idx, count int) models.SearchResult {
	return models.SearchResult{
		Content:  content,
		Score:    0.9,
		Metadata: models.ChunkMetadata{Source: source, ChunkIndex: idx, ChunkCount: count},
	}
}

func TestDetectUserName(t *testing.T) {
	cases := []struct {
		history []models.Turn
		want    string
	}{
		{[]models.Turn{{Role: models.RoleUser, Content: "Hi, my name is alice and I need help"}}, "Alice"},
		{[]models.Turn{{Role: models.RoleUser, Content: "I'm Bob."}}, "Bob"},
		{[]models.Turn{{Role: models.RoleUser, Content: "I am a buyer"}, {Role: models.RoleUser, Content: "i am carol"}}, "Carol"},
		{[]models.Turn{{Role: models.RoleAssistant, Content: "my name is Bot"}}, ""},
		{nil, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DetectUserName(tc.history))
	}
}

func TestBuildMessagesOrder(t *testing.T) {
	history := []models.Turn{
		{Role: models.RoleUser, Content: "my name is dana"},
		{Role: models.RoleAssistant, Content: "Hello Dana"},
		{Role: "tool", Content: "dropped"},
	}
	sources := []models.SearchResult{
		result("lease.pdf", "Rent is due monthly.", 0, 3),
		result("", "   ", 0, 1),
	}
	msgs := BuildMessages("", "When is rent due?", history, sources)
	require.Len(t, msgs, 6)

	assert.Equal(t, providers.RoleSystem, msgs[0].Role)
	assert.Equal(t, DefaultSystemPrompt, msgs[0].Content)
	assert.Contains(t, msgs[1].Content, "The user's name is Dana.")
	assert.Equal(t, providers.RoleUser, msgs[2].Role)
	assert.Equal(t, providers.RoleAssistant, msgs[3].Role)
	assert.Equal(t, providers.RoleSystem, msgs[4].Role)
	assert.True(t, strings.HasPrefix(msgs[4].Content, contextHeader))
	assert.Contains(t, msgs[4].Content, "Document: lease.pdf\nPart: 1 of 3\nContent: Rent is due monthly.\n")
	assert.Equal(t, providers.Message{Role: providers.RoleUser, Content: "When is rent due?"}, msgs[5])
}

func TestBuildMessagesWithoutContext(t *testing.T) {
	msgs := BuildMessages("custom prompt", "hello", nil, nil)
	require.Len(t, msgs, 2)
	assert.Equal(t, "custom prompt", msgs[0].Content)
}

func TestRespondRetrievesContext(t *testing.T) {
	llm := &mockLLM{}
	ret := &mockRetriever{}
	sources := []models.SearchResult{result("a.pdf", "Boilers are serviced in May.", 1, 2)}
	ret.On("Search", mock.Anything, "When are boilers serviced?", 4).Return(sources, nil)
	llm.On("Generate", mock.Anything, mock.MatchedBy(func(req providers.GenerateRequest) bool {
		return req.Operation == "chat" && len(req.Messages) == 3 && strings.Contains(req.Messages[1].Content, "Part: 2 of 2")
	})).Return(providers.GenerateResponse{Text: "In May (a.pdf)."}, nil)

	reply := NewResponder(llm, ret, "", 0, nil).Respond(context.Background(), "When are boilers serviced?", nil)
	assert.Equal(t, "In May (a.pdf).", reply.Text)
	assert.Equal(t, sources, reply.Sources)
	assert.False(t, reply.Failed)
	llm.AssertExpectations(t)
	ret.AssertExpectations(t)
}

func TestRespondDegradesOnRetrievalError(t *testing.T) {
	llm := &mockLLM{}
	ret := &mockRetriever{}
	ret.On("Search", mock.Anything, "q?", 2).Return(nil, errors.New("index down"))
	llm.On("Generate", mock.Anything, mock.MatchedBy(func(req providers.GenerateRequest) bool {
		return len(req.Messages) == 2
	})).Return(providers.GenerateResponse{Text: "no docs"}, nil)

	reply := NewResponder(llm, ret, "", 2, nil).Respond(context.Background(), "q?", nil)
	assert.Equal(t, "no docs", reply.Text)
	assert.Empty(t, reply.Sources)
}

func TestRespondApologizesOnLLMError(t *testing.T) {
	llm := &mockLLM{}
	llm.On("Generate", mock.Anything, mock.Anything).Return(providers.GenerateResponse{}, errors.New("groq down"))

	reply := NewResponder(llm, nil, "", 4, nil).RespondWithContext(context.Background(), "hello", nil, nil)
	assert.Equal(t, ApologyText, reply.Text)
	assert.True(t, reply.Failed)
}

func TestRespondWithMockProvider(t *testing.T) {
	history := []models.Turn{{Role: models.RoleUser, Content: "hi"}, {Role: models.RoleAssistant, Content: "hello"}}
	sources := []models.SearchResult{result("a.pdf", "x", 0, 1), result("b.pdf", "y", 0, 1)}
	reply := NewResponder(providers.NewMockProvider(8), nil, "", 4, nil).RespondWithContext(context.Background(), "sum up", history, sources)
	assert.Equal(t, `Mock answer to "sum up" using 2 document sections and 3 conversation turns.`, reply.Text)
}

func TestRespondEmptyQuery(t *testing.T) {
	llm := &mockLLM{}
	reply := NewResponder(llm, nil, "", 4, nil).Respond(context.Background(), "  ", nil)
	assert.NotEmpty(t, reply.Text)
	llm.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}
