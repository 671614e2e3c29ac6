package ollama

import (
	"strings"

	"github.com/moraplatform/qa-engine/internal/core/domain"
)

// buildChatPrompt flattens the system prompt and conversation window into a
// single completion prompt for /api/generate.
func buildChatPrompt(systemPrompt string, history []domain.ConversationTurn, input string) string {
	var b strings.Builder

	if strings.TrimSpace(systemPrompt) != "" {
		b.WriteString(strings.TrimSpace(systemPrompt))
		b.WriteString("\n\n")
	}

	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, turn := range history {
			label := "User"
			if turn.Role == domain.RoleAssistant {
				label = "Assistant"
			}
			b.WriteString(label)
			b.WriteString(": ")
			b.WriteString(turn.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("User: ")
	b.WriteString(input)
	b.WriteString("\nAssistant:")
	return b.String()
}
