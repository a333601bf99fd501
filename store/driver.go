package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for the database access layer.
type Driver interface {
	GetDB() *sql.DB
	Close() error
	Migrate(ctx context.Context) error

	UpsertConversation(ctx context.Context, conversation *Conversation) (*Conversation, error)
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	ListConversations(ctx context.Context) ([]*Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	DeleteAllConversations(ctx context.Context) error

	UpsertSetting(ctx context.Context, name, value string) error
	GetSetting(ctx context.Context, name string) (string, error)
	DeleteSetting(ctx context.Context, name string) error
}
