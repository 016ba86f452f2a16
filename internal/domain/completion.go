package domain

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// CompletionMessage es un mensaje del request a la API de chat completions.
type CompletionMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
