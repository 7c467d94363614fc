package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// TitleMaxLen bounds a derived conversation title. Longer seeds are cut to
// TitleMaxLen-3 runes with an ellipsis marker appended.
const TitleMaxLen = 50

// ConversationRecord is the durable metadata for one dialogue. The handle is
// issued and owned by the reasoning runtime; this record only correlates it
// with an owner, a display title and freshness timestamps.
type ConversationRecord struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Handle    string    `json:"handle"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeriveTitle builds a conversation title from the first user message.
func DeriveTitle(seed string) string {
	seed = strings.TrimSpace(seed)
	if utf8.RuneCountInString(seed) <= TitleMaxLen {
		return seed
	}
	runes := []rune(seed)
	return string(runes[:TitleMaxLen-3]) + "..."
}

// Message is one entry of a conversation transcript as read back from the
// reasoning runtime.
type Message struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Message roles as reported by the runtime.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
