package apiv1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gaslightgpt/gaslightgpt/store"
)

// listConversations returns every stored conversation, newest activity first.
// A storage fault degrades to an empty list so the sidebar still renders.
func (s *APIV1Service) listConversations(c echo.Context) error {
	conversations, err := s.Store.ListConversations(c.Request().Context())
	if err != nil {
		slog.Warn("failed to list conversations", "error", err)
		return c.JSON(http.StatusOK, []*store.Conversation{})
	}
	if conversations == nil {
		conversations = []*store.Conversation{}
	}
	return c.JSON(http.StatusOK, conversations)
}

func (s *APIV1Service) getConversation(c echo.Context) error {
	conversation, err := s.Store.GetConversation(c.Request().Context(), c.Param("id"))
	if err != nil {
		slog.Error("failed to load conversation", "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to load conversation"})
	}
	if conversation == nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "Conversation not found"})
	}
	return c.JSON(http.StatusOK, conversation)
}

// deleteConversation removes one conversation. Deleting the active one also
// resets the session.
func (s *APIV1Service) deleteConversation(c echo.Context) error {
	if err := s.Session.DeleteConversation(c.Request().Context(), c.Param("id")); err != nil {
		slog.Error("failed to delete conversation", "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to delete conversation"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIV1Service) clearConversations(c echo.Context) error {
	if err := s.Session.ClearAll(c.Request().Context()); err != nil {
		slog.Error("failed to clear conversations", "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to clear conversations"})
	}
	return c.NoContent(http.StatusNoContent)
}
