package apiv1

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gaslightgpt/gaslightgpt/ai"
)

// chatRequest is the wire shape of POST /api/chat. History is decoded in two
// steps so a non-array value is rejected with its own message instead of a
// generic bind failure.
type chatRequest struct {
	Message     string          `json:"message"`
	History     json.RawMessage `json:"history"`
	APIProvider string          `json:"apiProvider"`
	APIKey      string          `json:"apiKey"`
	Model       string          `json:"model"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (s *APIV1Service) handleChat(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
	}
	var request chatRequest
	if err := json.Unmarshal(body, &request); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
	}

	// Validation order is fixed: message first, then the array shape, then
	// per-item decoding; empty-string items and the provider are the
	// gateway's checks.
	if strings.TrimSpace(request.Message) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid message: message must be a non-empty string"})
	}
	items, ok := decodeHistoryArray(request.History)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid history: must be an array"})
	}
	history := make([]ai.Message, 0, len(items))
	for _, item := range items {
		var message ai.Message
		if err := json.Unmarshal(item, &message); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid history format: each message must have role and content"})
		}
		history = append(history, message)
	}

	result, err := s.Completer.Complete(c.Request().Context(), &ai.CompletionRequest{
		Message:  request.Message,
		History:  history,
		Provider: request.APIProvider,
		APIKey:   request.APIKey,
		Model:    request.Model,
	})
	if err != nil {
		return chatError(c, err)
	}
	return c.JSON(http.StatusOK, chatResponse{Reply: result.Reply})
}

// decodeHistoryArray accepts an absent or null history as an empty one, and
// any JSON array. Only the array shape is checked here; a malformed item is
// the per-item error's to report, never the array-shape error's.
func decodeHistoryArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, true
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

// chatError maps the gateway error taxonomy to HTTP statuses. Client faults
// and missing credentials are 400s; upstream faults surface as 500 with the
// upstream-supplied message when one exists.
func chatError(c echo.Context, err error) error {
	var invalidInput *ai.InvalidInputError
	if errors.As(err, &invalidInput) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: invalidInput.Reason})
	}
	var missingCredential *ai.MissingCredentialError
	if errors.As(err, &missingCredential) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: missingCredential.Error()})
	}
	var upstream *ai.UpstreamError
	if errors.As(err, &upstream) {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: upstream.Message})
	}
	slog.Error("unclassified completion failure", "error", err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
}
