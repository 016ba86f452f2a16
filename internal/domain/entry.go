package domain

import "time"

// EntryKind identifica el tipo de entrada del transcript.
type EntryKind string

const (
	EntryUserText      EntryKind = "user_text"
	EntryAssistantText EntryKind = "assistant_text"
	EntryUserImage     EntryKind = "user_image"
)

// Valid indica si el kind es uno de los conocidos.
func (k EntryKind) Valid() bool {
	switch k {
	case EntryUserText, EntryAssistantText, EntryUserImage:
		return true
	}
	return false
}

// HasText indica si la entrada aporta texto al historial del LLM.
func (k EntryKind) HasText() bool {
	return k == EntryUserText || k == EntryAssistantText
}

// Role mapea el emisor de la entrada al rol de la API de completions.
func (k EntryKind) Role() Role {
	switch k {
	case EntryAssistantText:
		return RoleAssistant
	case EntryUserText, EntryUserImage:
		return RoleUser
	}
	return ""
}

// Image es el handle opaco de una foto del menu.
type Image struct {
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// ChatEntry es inmutable una vez agregada al transcript.
type ChatEntry struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Seq            int       `json:"seq"`
	Kind           EntryKind `json:"kind"`
	Text           string    `json:"text,omitempty"`
	Image          *Image    `json:"image,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
