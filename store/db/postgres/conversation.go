package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/gaslightgpt/gaslightgpt/store"
)

func (d *DB) UpsertConversation(ctx context.Context, conversation *store.Conversation) (*store.Conversation, error) {
	messages, err := json.Marshal(conversation.Messages)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal messages")
	}

	// created_ts of an existing row wins; updated_ts always takes the new value.
	stmt := `
		INSERT INTO conversation (id, title, messages, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			messages = EXCLUDED.messages,
			updated_ts = EXCLUDED.updated_ts
		RETURNING id, title, messages, created_ts, updated_ts
	`
	var upserted store.Conversation
	var raw []byte
	err = d.db.QueryRowContext(ctx, stmt,
		conversation.ID,
		conversation.Title,
		string(messages),
		conversation.CreatedTs,
		conversation.UpdatedTs,
	).Scan(
		&upserted.ID,
		&upserted.Title,
		&raw,
		&upserted.CreatedTs,
		&upserted.UpdatedTs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert conversation")
	}
	upserted.Messages = unmarshalMessages(upserted.ID, raw)
	return &upserted, nil
}

func (d *DB) GetConversation(ctx context.Context, id string) (*store.Conversation, error) {
	stmt := `SELECT id, title, messages, created_ts, updated_ts FROM conversation WHERE id = $1`
	var conversation store.Conversation
	var raw []byte
	err := d.db.QueryRowContext(ctx, stmt, id).Scan(
		&conversation.ID,
		&conversation.Title,
		&raw,
		&conversation.CreatedTs,
		&conversation.UpdatedTs,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get conversation")
	}
	conversation.Messages = unmarshalMessages(conversation.ID, raw)
	return &conversation, nil
}

func (d *DB) ListConversations(ctx context.Context) ([]*store.Conversation, error) {
	// seq keeps insertion order as the tie-break for equal timestamps.
	stmt := `SELECT id, title, messages, created_ts, updated_ts
		FROM conversation
		ORDER BY updated_ts DESC, seq ASC`
	rows, err := d.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list conversations")
	}
	defer rows.Close()

	conversations := []*store.Conversation{}
	for rows.Next() {
		var conversation store.Conversation
		var raw []byte
		if err := rows.Scan(
			&conversation.ID,
			&conversation.Title,
			&raw,
			&conversation.CreatedTs,
			&conversation.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan conversation")
		}
		conversation.Messages = unmarshalMessages(conversation.ID, raw)
		conversations = append(conversations, &conversation)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return conversations, nil
}

func (d *DB) DeleteConversation(ctx context.Context, id string) error {
	// Deleting an absent id is a no-op by contract.
	stmt := `DELETE FROM conversation WHERE id = $1`
	if _, err := d.db.ExecContext(ctx, stmt, id); err != nil {
		return errors.Wrap(err, "failed to delete conversation")
	}
	return nil
}

func (d *DB) DeleteAllConversations(ctx context.Context) error {
	stmt := `DELETE FROM conversation`
	if _, err := d.db.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, "failed to clear conversations")
	}
	return nil
}

// unmarshalMessages decodes a persisted message list. A corrupt payload
// degrades to an empty list instead of failing the whole read.
func unmarshalMessages(id string, raw []byte) []store.Message {
	messages := []store.Message{}
	if len(raw) == 0 {
		return messages
	}
	if err := json.Unmarshal(raw, &messages); err != nil {
		slog.Warn("corrupt message payload, treating as empty", "conversation", id, "error", err)
		return []store.Message{}
	}
	return messages
}
