package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// completionStub is an OpenAI-compatible endpoint that records the last
// request body and answers with a fixed reply or a canned error.
type completionStub struct {
	t *testing.T

	lastBody struct {
		Model    string    `json:"model"`
		Messages []Message `json:"messages"`
	}
	requests int

	reply        string
	statusCode   int
	errorMessage string
	emptyChoices bool
}

func (s *completionStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.requests++
	require.Equal(s.t, http.MethodPost, r.Method)
	require.NoError(s.t, json.NewDecoder(r.Body).Decode(&s.lastBody))

	if s.statusCode >= 400 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(s.statusCode)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message": s.errorMessage,
				"type":    "invalid_request_error",
			},
		})
		return
	}

	choices := []map[string]any{}
	if !s.emptyChoices {
		choices = append(choices, map[string]any{
			"index":   0,
			"message": map[string]string{"role": "assistant", "content": s.reply},
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"model":   s.lastBody.Model,
		"choices": choices,
	})
}

// newStubbedGateway points every provider at the stub so no test ever reaches
// a real backend.
func newStubbedGateway(t *testing.T, config GatewayConfig, stub *completionStub) *Gateway {
	t.Helper()
	server := httptest.NewServer(stub)
	t.Cleanup(server.Close)

	gateway := NewGateway(config)
	for provider := range gateway.endpoints {
		gateway.endpoints[provider] = server.URL + "/v1"
	}
	return gateway
}

func TestComplete_RejectsEmptyMessage(t *testing.T) {
	stub := &completionStub{t: t}
	gateway := newStubbedGateway(t, GatewayConfig{GroqAPIKey: "gsk_test"}, stub)

	for _, message := range []string{"", "   ", "\n\t"} {
		_, err := gateway.Complete(context.Background(), &CompletionRequest{Message: message})
		var invalidInput *InvalidInputError
		require.ErrorAs(t, err, &invalidInput)
		assert.Equal(t, "message", invalidInput.Field)
		assert.Equal(t, "Invalid message: message must be a non-empty string", invalidInput.Reason)
	}
	assert.Zero(t, stub.requests)
}

func TestComplete_RejectsMalformedHistoryItem(t *testing.T) {
	stub := &completionStub{t: t}
	gateway := newStubbedGateway(t, GatewayConfig{GroqAPIKey: "gsk_test"}, stub)

	cases := [][]Message{
		{{Role: "", Content: "orphan"}},
		{{Role: "user", Content: ""}},
		{{Role: "user", Content: "fine"}, {Role: "", Content: ""}},
	}
	for _, history := range cases {
		_, err := gateway.Complete(context.Background(), &CompletionRequest{
			Message: "hi",
			History: history,
		})
		var invalidInput *InvalidInputError
		require.ErrorAs(t, err, &invalidInput)
		assert.Equal(t, "Invalid history format: each message must have role and content", invalidInput.Reason)
	}
	assert.Zero(t, stub.requests)
}

func TestComplete_RejectsUnknownProvider(t *testing.T) {
	stub := &completionStub{t: t}
	gateway := newStubbedGateway(t, GatewayConfig{GroqAPIKey: "gsk_test"}, stub)

	_, err := gateway.Complete(context.Background(), &CompletionRequest{
		Message:  "hi",
		Provider: "anthropic",
	})
	var invalidInput *InvalidInputError
	require.ErrorAs(t, err, &invalidInput)
	assert.Equal(t, "Invalid API provider: anthropic", invalidInput.Reason)
	assert.Zero(t, stub.requests)
}

func TestComplete_ValidationOrder(t *testing.T) {
	// An empty message wins over a bad provider; a bad history item wins too.
	stub := &completionStub{t: t}
	gateway := newStubbedGateway(t, GatewayConfig{}, stub)

	_, err := gateway.Complete(context.Background(), &CompletionRequest{
		Message:  " ",
		Provider: "anthropic",
	})
	var invalidInput *InvalidInputError
	require.ErrorAs(t, err, &invalidInput)
	assert.Equal(t, "message", invalidInput.Field)

	_, err = gateway.Complete(context.Background(), &CompletionRequest{
		Message:  "hi",
		History:  []Message{{Role: "", Content: ""}},
		Provider: "anthropic",
	})
	require.ErrorAs(t, err, &invalidInput)
	assert.Equal(t, "history-item", invalidInput.Field)
}

func TestComplete_RequiresExplicitKeyForNonDefaultProviders(t *testing.T) {
	stub := &completionStub{t: t}
	// The fallback key exists but must not leak to non-groq providers.
	gateway := newStubbedGateway(t, GatewayConfig{GroqAPIKey: "gsk_test"}, stub)

	for _, provider := range []Provider{ProviderOpenAI, ProviderOpenRouter, ProviderTogether} {
		_, err := gateway.Complete(context.Background(), &CompletionRequest{
			Message:  "hi",
			Provider: string(provider),
		})
		var missingCredential *MissingCredentialError
		require.ErrorAs(t, err, &missingCredential)
		assert.Equal(t, "API key required for "+string(provider), missingCredential.Error())
	}
	assert.Zero(t, stub.requests)
}

func TestComplete_GroqWithoutAnyKeyFails(t *testing.T) {
	stub := &completionStub{t: t}
	gateway := newStubbedGateway(t, GatewayConfig{}, stub)

	_, err := gateway.Complete(context.Background(), &CompletionRequest{Message: "hi"})
	var missingCredential *MissingCredentialError
	require.ErrorAs(t, err, &missingCredential)
	assert.Equal(t, ProviderGroq, missingCredential.Provider)
}

func TestComplete_GroqFallsBackToConfiguredKey(t *testing.T) {
	stub := &completionStub{t: t, reply: "Hello"}
	gateway := newStubbedGateway(t, GatewayConfig{GroqAPIKey: "gsk_fallback"}, stub)

	result, err := gateway.Complete(context.Background(), &CompletionRequest{Message: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "Hello", result.Reply)
	assert.Equal(t, ProviderGroq, result.Provider)
	assert.Equal(t, 1, stub.requests)
}

func TestComplete_MessagesAreHistoryPlusNewMessage(t *testing.T) {
	stub := &completionStub{t: t, reply: "42"}
	gateway := newStubbedGateway(t, GatewayConfig{GroqAPIKey: "gsk_test"}, stub)

	history := []Message{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "second"},
	}
	_, err := gateway.Complete(context.Background(), &CompletionRequest{
		Message: "third",
		History: history,
	})
	require.NoError(t, err)

	require.Len(t, stub.lastBody.Messages, 3)
	assert.Equal(t, history[0], stub.lastBody.Messages[0])
	assert.Equal(t, history[1], stub.lastBody.Messages[1])
	assert.Equal(t, Message{Role: "user", Content: "third"}, stub.lastBody.Messages[2])
}

func TestComplete_ModelResolution(t *testing.T) {
	stub := &completionStub{t: t, reply: "ok"}
	gateway := newStubbedGateway(t, GatewayConfig{GroqAPIKey: "gsk_test", GroqModel: "llama-custom"}, stub)

	// Explicit model wins.
	_, err := gateway.Complete(context.Background(), &CompletionRequest{
		Message: "hi",
		Model:   "explicit-model",
	})
	require.NoError(t, err)
	assert.Equal(t, "explicit-model", stub.lastBody.Model)

	// The configured groq model overrides the registry default.
	_, err = gateway.Complete(context.Background(), &CompletionRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "llama-custom", stub.lastBody.Model)

	// Other providers use their registry default.
	_, err = gateway.Complete(context.Background(), &CompletionRequest{
		Message:  "hi",
		Provider: "openai",
		APIKey:   "sk-explicit",
	})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", stub.lastBody.Model)
}

func TestComplete_UpstreamErrorPassesMessageThrough(t *testing.T) {
	stub := &completionStub{t: t, statusCode: 429, errorMessage: "Rate limit reached"}
	gateway := newStubbedGateway(t, GatewayConfig{GroqAPIKey: "gsk_test"}, stub)

	_, err := gateway.Complete(context.Background(), &CompletionRequest{Message: "hi"})
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "Rate limit reached", upstream.Message)
}

func TestComplete_NetworkFailureUsesProductName(t *testing.T) {
	gateway := NewGateway(GatewayConfig{GroqAPIKey: "gsk_test", Timeout: 1})
	// An unroutable endpoint forces a transport-level failure with no
	// upstream-supplied message.
	gateway.endpoints[ProviderGroq] = "http://127.0.0.1:1/v1"

	_, err := gateway.Complete(context.Background(), &CompletionRequest{Message: "hi"})
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "Error contacting Groq", upstream.Message)
}

func TestComplete_EmptyChoices(t *testing.T) {
	stub := &completionStub{t: t, emptyChoices: true}
	gateway := newStubbedGateway(t, GatewayConfig{GroqAPIKey: "gsk_test"}, stub)

	_, err := gateway.Complete(context.Background(), &CompletionRequest{Message: "hi"})
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "Empty response from Groq", upstream.Message)
}

func TestLookupProvider(t *testing.T) {
	config, ok := LookupProvider("together")
	require.True(t, ok)
	assert.Equal(t, "https://api.together.xyz/v1", config.BaseURL)
	assert.Equal(t, "Together AI", config.Product)

	_, ok = LookupProvider("claude")
	assert.False(t, ok)
}

func TestProviders_StableOrder(t *testing.T) {
	assert.Equal(t,
		[]Provider{ProviderGroq, ProviderOpenRouter, ProviderTogether, ProviderOpenAI},
		Providers())
}

func TestErrorTypes(t *testing.T) {
	var err error = &MissingCredentialError{Provider: ProviderOpenAI}
	assert.Equal(t, "API key required for openai", err.Error())

	err = &UpstreamError{Provider: ProviderGroq, Message: "boom"}
	var upstream *UpstreamError
	assert.True(t, errors.As(err, &upstream))
}
