package llm

import "taste-test/internal/domain"

// SystemPrompt es el mensaje de sistema fijo de cada request.
const SystemPrompt = "You are a food and drink expert helping someone order at a restaurant. " +
	"When given the text of a menu, give your top 3 recommendations, each with a short reason. " +
	"Respond in plain text without markdown formatting, separating each recommendation with a line break. " +
	"Answer follow up questions about the menu briefly and in the same plain text style."

// BuildMessages arma la lista de mensajes: el system prompt, una entrada por cada
// ChatEntry con texto (en orden) y, si extra no esta vacio, un mensaje user final.
func BuildMessages(entries []domain.ChatEntry, extra string) []domain.CompletionMessage {
	messages := make([]domain.CompletionMessage, 0, len(entries)+2)
	messages = append(messages, domain.CompletionMessage{Role: domain.RoleSystem, Content: SystemPrompt})
	for _, e := range entries {
		if !e.Kind.HasText() {
			continue
		}
		messages = append(messages, domain.CompletionMessage{Role: e.Kind.Role(), Content: e.Text})
	}
	if extra != "" {
		messages = append(messages, domain.CompletionMessage{Role: domain.RoleUser, Content: extra})
	}
	return messages
}
