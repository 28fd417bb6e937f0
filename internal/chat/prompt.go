package chat

import (
	"fmt"
	"strings"
	"unicode"

	"docrag/internal/models"
	"docrag/internal/providers"
)

const DefaultSystemPrompt = `You are a document assistant. You answer questions about the user's uploaded PDF documents and help with related follow-up questions. Be professional and concise, and remember the user's name and preferences when they share them.

When document context is provided:
1. Only use information from the given context when answering questions about documents.
2. If the context does not fully answer the question, say what information is missing.
3. Never make up information about the documents.
4. Cite the source document for every fact you use.
5. State clearly when you are unsure.

When no document context is provided, say which documents or details would help you answer.`

const contextHeader = "Here is the relevant context from the documents:\n\n"

// BuildMessages assembles the model input: the system prompt, a note with
// the user's name when history reveals it, the prior turns, the retrieved
// context and finally the query.
func BuildMessages(systemPrompt, query string, history []models.Turn, sources []models.SearchResult) []providers.Message {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultSystemPrompt
	}
	msgs := []providers.Message{{Role: providers.RoleSystem, Content: systemPrompt}}

	if name := DetectUserName(history); name != "" {
		msgs = append(msgs, providers.Message{
			Role:    providers.RoleSystem,
			Content: fmt.Sprintf("The user's name is %s. Always refer to them by name when appropriate.", name),
		})
	}
	for _, turn := range history {
		switch turn.Role {
		case models.RoleUser:
			msgs = append(msgs, providers.Message{Role: providers.RoleUser, Content: turn.Content})
		case models.RoleAssistant:
			msgs = append(msgs, providers.Message{Role: providers.RoleAssistant, Content: turn.Content})
		}
	}
	if section := contextSection(sources); section != "" {
		msgs = append(msgs, providers.Message{Role: providers.RoleSystem, Content: section})
	}
	return append(msgs, providers.Message{Role: providers.RoleUser, Content: query})
}

func contextSection(sources []models.SearchResult) string {
	var parts []string
	for _, s := range sources {
		if strings.TrimSpace(s.Content) == "" {
			continue
		}
		source := s.Metadata.Source
		if source == "" {
			source = "Unknown Source"
		}
		count := max(s.Metadata.ChunkCount, 1)
		parts = append(parts, fmt.Sprintf("Document: %s\nPart: %d of %d\nContent: %s\n", source, s.Metadata.ChunkIndex+1, count, s.Content))
	}
	if len(parts) == 0 {
		return ""
	}
	return contextHeader + strings.Join(parts, "\n")
}

// DetectUserName looks through user turns for "my name is X", "i am X" or
// "i'm X". The first match wins; "i am"/"i'm" matches of two letters or fewer
// are ignored ("I am a ...").
func DetectUserName(history []models.Turn) string {
	for _, turn := range history {
		if turn.Role != models.RoleUser {
			continue
		}
		content := strings.ToLower(turn.Content)
		if _, after, ok := strings.Cut(content, "my name is "); ok {
			if name := firstWord(after); name != "" {
				return titleCase(name)
			}
			continue
		}
		marker := "i am "
		if !strings.Contains(content, marker) {
			marker = "i'm "
		}
		if _, after, ok := strings.Cut(content, marker); ok {
			if name := firstWord(after); len([]rune(name)) > 2 {
				return titleCase(name)
			}
		}
	}
	return ""
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimFunc(fields[0], func(r rune) bool { return unicode.IsPunct(r) })
}

func titleCase(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
