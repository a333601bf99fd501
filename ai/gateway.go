// Package ai normalizes the divergent completion backends into one
// request/response contract. The gateway is stateless across invocations
// except for the static provider registry.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/gaslightgpt/gaslightgpt/internal/metrics"
)

// Message is one {role, content} entry of the conversation history projection.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest describes one chat turn to complete.
type CompletionRequest struct {
	// Message is the new user message. Required.
	Message string
	// History is the prior conversation, oldest first.
	History []Message
	// Provider names the backend; empty selects the default provider.
	Provider string
	// APIKey overrides the process-wide credential. Required for every
	// provider except the default one.
	APIKey string
	// Model overrides the provider's default model.
	Model string
}

// CompletionResult is the uniform reply shape.
type CompletionResult struct {
	Reply    string
	Provider Provider
	Model    string
}

// GatewayConfig carries the deployer-provisioned parts of the gateway.
type GatewayConfig struct {
	// GroqAPIKey is the fallback credential for the default provider.
	GroqAPIKey string
	// GroqModel overrides the default provider's model when set.
	GroqModel string
	// Timeout bounds one outbound completion call, in seconds.
	Timeout int
}

// Gateway validates chat requests, resolves provider configuration and
// credentials, and issues a single blocking completion call per request.
type Gateway struct {
	fallbackAPIKey string
	groqModel      string
	timeout        time.Duration
	httpClient     *http.Client

	// endpoints allows tests to point a provider at a local stub.
	endpoints map[Provider]string
}

// NewGateway creates a gateway from the static provider registry.
func NewGateway(config GatewayConfig) *Gateway {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 120
	}
	endpoints := make(map[Provider]string, len(providerConfigs))
	for provider, providerConfig := range providerConfigs {
		endpoints[provider] = providerConfig.BaseURL
	}
	return &Gateway{
		fallbackAPIKey: config.GroqAPIKey,
		groqModel:      config.GroqModel,
		timeout:        time.Duration(timeout) * time.Second,
		httpClient:     newHTTPClient(),
		endpoints:      endpoints,
	}
}

// Complete validates the request, resolves the provider, credential and model,
// and performs exactly one completion call with messages equal to the history
// followed by the new user message. No retry, no streaming.
func (g *Gateway) Complete(ctx context.Context, request *CompletionRequest) (*CompletionResult, error) {
	if strings.TrimSpace(request.Message) == "" {
		return nil, &InvalidInputError{
			Field:  "message",
			Reason: "Invalid message: message must be a non-empty string",
		}
	}
	for _, entry := range request.History {
		if entry.Role == "" || entry.Content == "" {
			return nil, &InvalidInputError{
				Field:  "history-item",
				Reason: "Invalid history format: each message must have role and content",
			}
		}
	}

	providerName := request.Provider
	if providerName == "" {
		providerName = string(DefaultProvider)
	}
	providerConfig, ok := LookupProvider(providerName)
	if !ok {
		return nil, &InvalidInputError{
			Field:  "provider",
			Reason: fmt.Sprintf("Invalid API provider: %s", providerName),
		}
	}
	provider := Provider(providerName)

	apiKey, err := g.resolveAPIKey(provider, request.APIKey)
	if err != nil {
		return nil, err
	}
	model := g.resolveModel(provider, providerConfig, request.Model)

	messages := make([]openai.ChatCompletionMessage, 0, len(request.History)+1)
	for _, entry := range request.History {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    entry.Role,
			Content: entry.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: request.Message,
	})

	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = g.endpoints[provider]
	clientConfig.HTTPClient = g.httpClient
	client := openai.NewClientWithConfig(clientConfig)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	slog.Debug("completion request",
		"provider", provider,
		"model", model,
		"messages_count", len(messages),
	)

	startTime := time.Now()
	response, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	})
	metrics.CompletionDuration.WithLabelValues(string(provider)).Observe(time.Since(startTime).Seconds())
	if err != nil {
		metrics.CompletionRequests.WithLabelValues(string(provider), "error").Inc()
		slog.Error("completion request failed", "provider", provider, "error", err)
		return nil, upstreamError(provider, providerConfig, err)
	}
	if len(response.Choices) == 0 {
		metrics.CompletionRequests.WithLabelValues(string(provider), "error").Inc()
		return nil, &UpstreamError{
			Provider: provider,
			Message:  fmt.Sprintf("Empty response from %s", providerConfig.Product),
		}
	}
	metrics.CompletionRequests.WithLabelValues(string(provider), "ok").Inc()

	slog.Debug("completion response received",
		"provider", provider,
		"content_length", len(response.Choices[0].Message.Content),
		"duration_ms", time.Since(startTime).Milliseconds(),
	)

	return &CompletionResult{
		Reply:    response.Choices[0].Message.Content,
		Provider: provider,
		Model:    model,
	}, nil
}

// resolveAPIKey applies the credential asymmetry: the default provider may
// fall back to the deployer-provisioned key, every other provider requires an
// explicit one.
func (g *Gateway) resolveAPIKey(provider Provider, requestKey string) (string, error) {
	if key := strings.TrimSpace(requestKey); key != "" {
		return key, nil
	}
	if provider == DefaultProvider && g.fallbackAPIKey != "" {
		return g.fallbackAPIKey, nil
	}
	return "", &MissingCredentialError{Provider: provider}
}

func (g *Gateway) resolveModel(provider Provider, config ProviderConfig, requestModel string) string {
	if model := strings.TrimSpace(requestModel); model != "" {
		return model
	}
	if provider == ProviderGroq && g.groqModel != "" {
		return g.groqModel
	}
	return config.DefaultModel
}

// upstreamError maps a go-openai failure to the uniform error shape, passing
// the upstream-supplied description through when one exists.
func upstreamError(provider Provider, config ProviderConfig, err error) *UpstreamError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return &UpstreamError{Provider: provider, Message: apiErr.Message}
	}
	return &UpstreamError{
		Provider: provider,
		Message:  fmt.Sprintf("Error contacting %s", config.Product),
	}
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}
