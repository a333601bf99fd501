package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveTitle_EmptyList(t *testing.T) {
	assert.Equal(t, "New Chat", DeriveTitle(nil))
	assert.Equal(t, "New Chat", DeriveTitle([]Message{}))
}

func TestDeriveTitle_NoUserMessage(t *testing.T) {
	messages := []Message{
		{ID: 1, Role: RoleSystem, Content: "You are a helpful assistant."},
		{ID: 2, Role: RoleAssistant, Content: "Hello there!"},
	}
	assert.Equal(t, "New Chat", DeriveTitle(messages))
}

func TestDeriveTitle_SkipsToFirstUserMessage(t *testing.T) {
	messages := []Message{
		{ID: 1, Role: RoleAssistant, Content: "Welcome back."},
		{ID: 2, Role: RoleUser, Content: "  How do tides work?  "},
	}
	assert.Equal(t, "How do tides work?", DeriveTitle(messages))
}

func TestDeriveTitle_ShortContentVerbatim(t *testing.T) {
	// Exactly at the limit, no marker.
	content := strings.Repeat("a", 50)
	messages := []Message{{ID: 1, Role: RoleUser, Content: content}}
	assert.Equal(t, content, DeriveTitle(messages))
}

func TestDeriveTitle_TruncatesLongContent(t *testing.T) {
	content := strings.Repeat("x", 80)
	messages := []Message{{ID: 1, Role: RoleUser, Content: content}}

	title := DeriveTitle(messages)
	assert.Equal(t, strings.Repeat("x", 50)+"...", title)
}

func TestDeriveTitle_TruncatesByRunesNotBytes(t *testing.T) {
	// 60 multibyte runes must truncate at 50 runes, not mid-character.
	content := strings.Repeat("日", 60)
	messages := []Message{{ID: 1, Role: RoleUser, Content: content}}

	title := DeriveTitle(messages)
	assert.Equal(t, strings.Repeat("日", 50)+"...", title)
}

func TestDeriveTitle_IgnoresLaterUserMessages(t *testing.T) {
	messages := []Message{
		{ID: 1, Role: RoleUser, Content: "first question"},
		{ID: 2, Role: RoleAssistant, Content: "answer"},
		{ID: 3, Role: RoleUser, Content: "second question"},
	}
	assert.Equal(t, "first question", DeriveTitle(messages))
}
