package store

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/gaslightgpt/gaslightgpt/internal/profile"
)

// Store provides access to the durable conversation collection and user
// preferences. It is the single source of truth for a conversation once the
// session controller flushes it.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// UpsertConversation persists a conversation. The title is re-derived from the
// message list on every persist, UpdatedTs is always set to now, and CreatedTs
// of an existing record is preserved by the driver.
func (s *Store) UpsertConversation(ctx context.Context, conversation *Conversation) (*Conversation, error) {
	if conversation.ID == "" {
		return nil, errors.New("conversation id required")
	}
	now := time.Now().UnixMilli()
	conversation.Title = DeriveTitle(conversation.Messages)
	conversation.UpdatedTs = now
	if conversation.CreatedTs == 0 {
		conversation.CreatedTs = now
	}
	return s.driver.UpsertConversation(ctx, conversation)
}

// GetConversation returns the conversation with the given id, or nil when it
// does not exist.
func (s *Store) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	return s.driver.GetConversation(ctx, id)
}

// ListConversations returns every conversation ordered by UpdatedTs descending,
// falling back to insertion order for equal timestamps.
func (s *Store) ListConversations(ctx context.Context) ([]*Conversation, error) {
	return s.driver.ListConversations(ctx)
}

// DeleteConversation removes a conversation. Deleting an absent id is a no-op.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	return s.driver.DeleteConversation(ctx, id)
}

// ClearConversations removes every conversation and the current-conversation
// pointer.
func (s *Store) ClearConversations(ctx context.Context) error {
	if err := s.driver.DeleteAllConversations(ctx); err != nil {
		return err
	}
	return s.driver.DeleteSetting(ctx, settingCurrentConversation)
}

// GetCurrentConversationID returns the active conversation id, or "" when none
// is set. Storage faults degrade to "".
func (s *Store) GetCurrentConversationID(ctx context.Context) string {
	value, err := s.driver.GetSetting(ctx, settingCurrentConversation)
	if err != nil {
		slog.Warn("failed to read current conversation id", "error", err)
		return ""
	}
	return value
}

// SetCurrentConversationID tracks the active conversation across restarts.
// An empty id clears the pointer.
func (s *Store) SetCurrentConversationID(ctx context.Context, id string) error {
	if id == "" {
		return s.driver.DeleteSetting(ctx, settingCurrentConversation)
	}
	return s.driver.UpsertSetting(ctx, settingCurrentConversation, id)
}

func (s *Store) GetTheme(ctx context.Context) string {
	return s.getSettingOrDefault(ctx, settingTheme, DefaultTheme)
}

func (s *Store) SetTheme(ctx context.Context, theme string) error {
	return s.driver.UpsertSetting(ctx, settingTheme, theme)
}

func (s *Store) GetAPIProvider(ctx context.Context) string {
	return s.getSettingOrDefault(ctx, settingAPIProvider, DefaultAPIProvider)
}

func (s *Store) SetAPIProvider(ctx context.Context, provider string) error {
	return s.driver.UpsertSetting(ctx, settingAPIProvider, provider)
}

// GetAPIKey returns the stored credential, decoded. A value that fails to
// decode is returned as stored.
func (s *Store) GetAPIKey(ctx context.Context) string {
	return decodeAPIKey(s.getSettingOrDefault(ctx, settingAPIKey, ""))
}

func (s *Store) SetAPIKey(ctx context.Context, key string) error {
	return s.driver.UpsertSetting(ctx, settingAPIKey, encodeAPIKey(key))
}

func (s *Store) GetModel(ctx context.Context) string {
	return s.getSettingOrDefault(ctx, settingModel, "")
}

func (s *Store) SetModel(ctx context.Context, model string) error {
	return s.driver.UpsertSetting(ctx, settingModel, model)
}

func (s *Store) GetShowEditedBadge(ctx context.Context) bool {
	value := s.getSettingOrDefault(ctx, settingShowEditedBadge, "true")
	enabled, err := strconv.ParseBool(value)
	if err != nil {
		return true
	}
	return enabled
}

func (s *Store) SetShowEditedBadge(ctx context.Context, show bool) error {
	return s.driver.UpsertSetting(ctx, settingShowEditedBadge, strconv.FormatBool(show))
}

// getSettingOrDefault reads one preference slot, degrading to the default on
// any storage fault so preference reads never fail the caller.
func (s *Store) getSettingOrDefault(ctx context.Context, name, defaultValue string) string {
	value, err := s.driver.GetSetting(ctx, name)
	if err != nil {
		slog.Warn("failed to read setting", "name", name, "error", err)
		return defaultValue
	}
	if value == "" {
		return defaultValue
	}
	return value
}
