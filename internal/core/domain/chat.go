package domain

import "time"

type MessageRole string

const (
	RoleUser      MessageRole = "USER"
	RoleAssistant MessageRole = "ASSISTANT"
)

// DefaultSessionTitle is the placeholder a new session carries until the
// auto-title heuristic replaces it with the user's first message.
const DefaultSessionTitle = "New Chat"

type ChatSession struct {
	ID        int64
	UserID    int64
	Title     string
	CreatedAt time.Time
}

// ChatMessage is immutable once written, except for the execution
// marker's content rewrite after a proposal is applied.
type ChatMessage struct {
	ID        int64
	SessionID int64
	Role      MessageRole
	Content   string
	CreatedAt time.Time
}
