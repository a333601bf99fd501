// Package session bridges UI actions to the conversation store and the
// completion gateway. The controller exclusively owns the active message list
// in memory; the store owns the durable record once a conversation is flushed.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/gaslightgpt/gaslightgpt/ai"
	"github.com/gaslightgpt/gaslightgpt/internal/metrics"
	"github.com/gaslightgpt/gaslightgpt/store"
)

var (
	// ErrBusy is returned when a send arrives while a completion is in flight.
	ErrBusy = errors.New("a completion is already in flight")
	// ErrEmptyMessage is returned for a blank send, before any side effect.
	ErrEmptyMessage = errors.New("message must not be empty")
	// ErrMessageNotFound is returned for an edit naming an unknown message id.
	ErrMessageNotFound = errors.New("message not found")
	// ErrConversationNotFound is returned when selecting an unknown conversation.
	ErrConversationNotFound = errors.New("conversation not found")
)

// Completer issues one completion call. Implemented by *ai.Gateway.
type Completer interface {
	Complete(ctx context.Context, request *ai.CompletionRequest) (*ai.CompletionResult, error)
}

// Controller mediates between the UI and the store/gateway pair. All list
// mutations happen under one mutex; the only suspension point is the outbound
// completion call, guarded by a busy flag so the session accepts one send at
// a time.
type Controller struct {
	store     *store.Store
	completer Completer
	inflight  *semaphore.Weighted

	mu sync.Mutex
	// conversationID is "" while the session is unbound. The transition to
	// bound happens synchronously on the first append, before any
	// asynchronous call can interleave.
	conversationID string
	createdTs      int64
	messages       []store.Message
	nextMessageID  int64
}

// NewController creates a controller with an unbound session.
func NewController(st *store.Store, completer Completer) *Controller {
	return &Controller{
		store:         st,
		completer:     completer,
		inflight:      semaphore.NewWeighted(1),
		messages:      []store.Message{},
		nextMessageID: 1,
	}
}

// Resume loads the store's current conversation into the session, if any.
func (c *Controller) Resume(ctx context.Context) error {
	currentID := c.store.GetCurrentConversationID(ctx)
	if currentID == "" {
		return nil
	}
	conversation, err := c.store.GetConversation(ctx, currentID)
	if err != nil {
		return errors.Wrap(err, "failed to load current conversation")
	}
	if conversation == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindLocked(conversation)
	return nil
}

// ConversationID returns the bound conversation id, or "" when unbound.
func (c *Controller) ConversationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversationID
}

// Messages returns a copy of the active message list.
func (c *Controller) Messages() []store.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	messages := make([]store.Message, len(c.messages))
	copy(messages, c.messages)
	return messages
}

// SendResult reports the outcome of one send.
type SendResult struct {
	ConversationID string        `json:"conversationId"`
	UserMessage    store.Message `json:"userMessage"`
	Assistant      store.Message `json:"assistantMessage"`
	// Failed marks the assistant entry as a synthetic error notice rather
	// than a real reply.
	Failed bool `json:"failed,omitempty"`
	// Persisted is false when the store reported a write failure; the
	// in-memory list is kept regardless and retried on the next persist.
	Persisted bool `json:"persisted"`
}

// Send appends a user message, issues one completion call with the prior
// history projection, and appends the reply. Gateway failures are recovered
// into a visible assistant-role error notice and never propagate past the
// controller.
func (c *Controller) Send(ctx context.Context, text string) (*SendResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if !c.inflight.TryAcquire(1) {
		return nil, ErrBusy
	}
	defer c.inflight.Release(1)

	provider := c.store.GetAPIProvider(ctx)
	apiKey := c.store.GetAPIKey(ctx)
	model := c.store.GetModel(ctx)

	c.mu.Lock()
	c.ensureBoundLocked(ctx)
	conversationID := c.conversationID
	// The projection reflects the current in-memory state, edits included,
	// and excludes the message being sent.
	history := make([]ai.Message, 0, len(c.messages))
	for _, m := range c.messages {
		history = append(history, ai.Message{Role: string(m.Role), Content: m.Content})
	}
	userMessage := c.appendLocked(store.RoleUser, text)
	c.mu.Unlock()

	persisted := c.persist(ctx)

	result, err := c.completer.Complete(ctx, &ai.CompletionRequest{
		Message:  text,
		History:  history,
		Provider: provider,
		APIKey:   apiKey,
		Model:    model,
	})

	failed := err != nil
	content := ""
	if failed {
		content = errorNotice(err)
	} else {
		content = result.Reply
	}

	c.mu.Lock()
	if c.conversationID != conversationID {
		// The session moved on while the call was in flight; interest in the
		// result is discarded.
		c.mu.Unlock()
		slog.Warn("discarding completion result for replaced session", "conversation", conversationID)
		return &SendResult{
			ConversationID: conversationID,
			UserMessage:    userMessage,
			Assistant:      store.Message{Role: store.RoleAssistant, Content: content},
			Failed:         failed,
			Persisted:      persisted,
		}, nil
	}
	assistant := c.appendLocked(store.RoleAssistant, content)
	c.mu.Unlock()

	persisted = c.persist(ctx) && persisted

	return &SendResult{
		ConversationID: conversationID,
		UserMessage:    userMessage,
		Assistant:      assistant,
		Failed:         failed,
		Persisted:      persisted,
	}, nil
}

// EditMessage replaces the content of an existing message in place, marking
// it edited. Id, role and position never change. The full list is persisted
// after every edit; a persistence failure is reported without rolling back.
func (c *Controller) EditMessage(ctx context.Context, messageID int64, content string) (bool, error) {
	c.mu.Lock()
	found := false
	for i := range c.messages {
		if c.messages[i].ID == messageID {
			c.messages[i].Content = content
			c.messages[i].Edited = true
			found = true
			break
		}
	}
	c.mu.Unlock()
	if !found {
		return false, ErrMessageNotFound
	}
	return c.persist(ctx), nil
}

// NewChat discards the in-memory list and unbinds the session. The previous
// conversation, if it ever reached a message, stays in the store untouched.
func (c *Controller) NewChat(ctx context.Context) {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
	if err := c.store.SetCurrentConversationID(ctx, ""); err != nil {
		slog.Warn("failed to clear current conversation pointer", "error", err)
	}
}

// Select binds the session to a stored conversation.
func (c *Controller) Select(ctx context.Context, id string) error {
	conversation, err := c.store.GetConversation(ctx, id)
	if err != nil {
		return err
	}
	if conversation == nil {
		return ErrConversationNotFound
	}
	c.mu.Lock()
	c.bindLocked(conversation)
	c.mu.Unlock()
	return c.store.SetCurrentConversationID(ctx, id)
}

// DeleteConversation removes a stored conversation; deleting the active one
// also resets the session as in NewChat.
func (c *Controller) DeleteConversation(ctx context.Context, id string) error {
	if err := c.store.DeleteConversation(ctx, id); err != nil {
		return err
	}
	c.mu.Lock()
	active := c.conversationID == id
	if active {
		c.resetLocked()
	}
	c.mu.Unlock()
	if active {
		if err := c.store.SetCurrentConversationID(ctx, ""); err != nil {
			slog.Warn("failed to clear current conversation pointer", "error", err)
		}
	}
	return nil
}

// ClearAll removes every stored conversation and resets the session.
func (c *Controller) ClearAll(ctx context.Context) error {
	if err := c.store.ClearConversations(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
	return nil
}

// ensureBoundLocked mints a conversation id on the first append, before the
// message list is updated or any network call is issued. The id is
// time-derived with a shortuuid suffix so same-tick creations cannot collide.
func (c *Controller) ensureBoundLocked(ctx context.Context) {
	if c.conversationID != "" {
		return
	}
	c.conversationID = fmt.Sprintf("%d-%s", time.Now().UnixMilli(), shortuuid.New())
	c.createdTs = 0
	if err := c.store.SetCurrentConversationID(ctx, c.conversationID); err != nil {
		slog.Warn("failed to set current conversation pointer", "error", err)
	}
}

func (c *Controller) appendLocked(role store.Role, content string) store.Message {
	message := store.Message{
		ID:      c.nextMessageID,
		Role:    role,
		Content: content,
	}
	c.nextMessageID++
	c.messages = append(c.messages, message)
	return message
}

func (c *Controller) bindLocked(conversation *store.Conversation) {
	c.conversationID = conversation.ID
	c.createdTs = conversation.CreatedTs
	c.messages = make([]store.Message, len(conversation.Messages))
	copy(c.messages, conversation.Messages)
	c.nextMessageID = 1
	for _, m := range c.messages {
		if m.ID >= c.nextMessageID {
			c.nextMessageID = m.ID + 1
		}
	}
}

func (c *Controller) resetLocked() {
	c.conversationID = ""
	c.createdTs = 0
	c.messages = []store.Message{}
	c.nextMessageID = 1
}

// persist flushes the active conversation through the store's upsert entry
// point. Failures are reported as false; the in-memory list is the caller's
// to keep until the next successful persist.
func (c *Controller) persist(ctx context.Context) bool {
	c.mu.Lock()
	if c.conversationID == "" || len(c.messages) == 0 {
		c.mu.Unlock()
		return true
	}
	conversation := &store.Conversation{
		ID:        c.conversationID,
		Messages:  make([]store.Message, len(c.messages)),
		CreatedTs: c.createdTs,
	}
	copy(conversation.Messages, c.messages)
	id := c.conversationID
	c.mu.Unlock()

	upserted, err := c.store.UpsertConversation(ctx, conversation)
	if err != nil {
		metrics.StoreWriteFailures.Inc()
		slog.Warn("failed to persist conversation", "conversation", id, "error", err)
		return false
	}

	c.mu.Lock()
	if c.conversationID == id {
		c.createdTs = upserted.CreatedTs
	}
	c.mu.Unlock()
	return true
}

// errorNotice formats a gateway failure as an inline assistant message so the
// failure is visible in the transcript, not only as a toast.
func errorNotice(err error) string {
	return fmt.Sprintf("❌ **Error:** %s\n\nPlease check:\n- Server is running\n- API key is configured\n- Internet connection is active", err.Error())
}
