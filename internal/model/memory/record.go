package memory

import "time"

// Utterance roles stored in the vector index metadata.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// Record is a stored utterance: write-once, retrieved by similarity or by
// time range, never mutated.
type Record struct {
	MemberID  int64
	Role      string
	Text      string
	ChatID    int64
	CreatedAt time.Time
}

// Hit is a single similarity-search result. Metadata mirrors what Record
// writes: member_id, role, created_at (RFC3339), chat_id.
type Hit struct {
	Content  string
	Metadata map[string]string
	Score    float32
}
