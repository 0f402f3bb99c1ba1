package chat

import "time"

// Roles carried by session-history messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message persists individual utterances for prompt history and audit.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Emotion   string    `json:"emotion,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
