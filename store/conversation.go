package store

import "strings"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single entry in a conversation. IDs are monotonic within a
// conversation and reflect insertion order; Edited is set only by an explicit
// edit, never by a normal append.
type Message struct {
	ID      int64  `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Edited  bool   `json:"edited,omitempty"`
}

// Conversation is the durable chat record. CreatedTs is immutable after the
// first persist; UpdatedTs is refreshed on every persist; Title is always
// derived from Messages, never authored directly.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedTs int64     `json:"createdTs"`
	UpdatedTs int64     `json:"updatedTs"`
}

// defaultTitle is used for conversations without any user message yet.
const defaultTitle = "New Chat"

// titleMaxLen is the truncation point for derived titles, in runes.
const titleMaxLen = 50

// DeriveTitle builds a conversation title from the first user message:
// trimmed, truncated to 50 runes with a "..." marker when cut. Recomputed on
// every persist, so editing the first user message retitles the conversation.
func DeriveTitle(messages []Message) string {
	for _, m := range messages {
		if m.Role != RoleUser {
			continue
		}
		content := strings.TrimSpace(m.Content)
		runes := []rune(content)
		if len(runes) > titleMaxLen {
			return string(runes[:titleMaxLen]) + "..."
		}
		return content
	}
	return defaultTitle
}
