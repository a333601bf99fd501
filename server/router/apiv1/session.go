package apiv1

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/gaslightgpt/gaslightgpt/server/session"
	"github.com/gaslightgpt/gaslightgpt/store"
)

// sessionState is the wire shape of the active session. ConversationID is ""
// while the session is unbound.
type sessionState struct {
	ConversationID string          `json:"conversationId"`
	Messages       []store.Message `json:"messages"`
}

func (s *APIV1Service) getSession(c echo.Context) error {
	return c.JSON(http.StatusOK, sessionState{
		ConversationID: s.Session.ConversationID(),
		Messages:       s.Session.Messages(),
	})
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

func (s *APIV1Service) sendMessage(c echo.Context) error {
	var request sendMessageRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
	}
	result, err := s.Session.Send(c.Request().Context(), request.Message)
	if err != nil {
		if errors.Is(err, session.ErrEmptyMessage) {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "Message must not be empty"})
		}
		if errors.Is(err, session.ErrBusy) {
			return c.JSON(http.StatusConflict, errorResponse{Error: "A message is already being processed"})
		}
		slog.Error("failed to send message", "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to send message"})
	}
	return c.JSON(http.StatusOK, result)
}

type editMessageRequest struct {
	Content string `json:"content"`
}

type editMessageResponse struct {
	Persisted bool `json:"persisted"`
}

func (s *APIV1Service) editMessage(c echo.Context) error {
	messageID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid message id"})
	}
	var request editMessageRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
	}
	persisted, err := s.Session.EditMessage(c.Request().Context(), messageID, request.Content)
	if err != nil {
		if errors.Is(err, session.ErrMessageNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: "Message not found"})
		}
		slog.Error("failed to edit message", "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to edit message"})
	}
	return c.JSON(http.StatusOK, editMessageResponse{Persisted: persisted})
}

func (s *APIV1Service) newChat(c echo.Context) error {
	s.Session.NewChat(c.Request().Context())
	return c.JSON(http.StatusOK, sessionState{
		ConversationID: "",
		Messages:       []store.Message{},
	})
}

type selectConversationRequest struct {
	ID string `json:"id"`
}

func (s *APIV1Service) selectConversation(c echo.Context) error {
	var request selectConversationRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
	}
	if err := s.Session.Select(c.Request().Context(), request.ID); err != nil {
		if errors.Is(err, session.ErrConversationNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: "Conversation not found"})
		}
		slog.Error("failed to select conversation", "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to select conversation"})
	}
	return c.JSON(http.StatusOK, sessionState{
		ConversationID: s.Session.ConversationID(),
		Messages:       s.Session.Messages(),
	})
}
