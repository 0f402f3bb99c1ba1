package chat

import "time"

// Turn captures one request of the conversational agent. It is created per
// request and never mutated afterwards.
type Turn struct {
	Input          string
	MemberID       int64
	SessionID      string
	ForceSummary   bool
	DisablePreload bool
}

// Log is one persisted exchange in the relational transcript (chat_log row).
type Log struct {
	ChatID    int64     `json:"chatId"`
	MemberID  int64     `json:"memberId"`
	UserText  string    `json:"userText"`
	BotText   string    `json:"botText"`
	CreatedAt time.Time `json:"createdAt"`
}
