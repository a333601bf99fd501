package ai

// Provider identifies a completion backend.
type Provider string

const (
	ProviderGroq       Provider = "groq"
	ProviderOpenRouter Provider = "openrouter"
	ProviderTogether   Provider = "together"
	ProviderOpenAI     Provider = "openai"
)

// DefaultProvider is used when a request names no provider. It is the one
// provider whose credential may come from the deployer's environment.
const DefaultProvider = ProviderGroq

// ProviderConfig holds the static configuration for one backend. All backends
// speak the OpenAI-compatible chat completion protocol.
type ProviderConfig struct {
	BaseURL      string
	DefaultModel string
	// Product is the user-facing name of the backend, used in error notices.
	Product string
}

// providerConfigs is the fixed registry of known backends. Adding a provider
// means adding one entry here.
var providerConfigs = map[Provider]ProviderConfig{
	ProviderGroq: {
		BaseURL:      "https://api.groq.com/openai/v1",
		DefaultModel: "llama-3.3-70b-versatile",
		Product:      "Groq",
	},
	ProviderOpenRouter: {
		BaseURL:      "https://openrouter.ai/api/v1",
		DefaultModel: "meta-llama/llama-3.2-3b-instruct:free",
		Product:      "OpenRouter",
	},
	ProviderTogether: {
		BaseURL:      "https://api.together.xyz/v1",
		DefaultModel: "meta-llama/Meta-Llama-3.1-70B-Instruct-Turbo",
		Product:      "Together AI",
	},
	ProviderOpenAI: {
		BaseURL:      "https://api.openai.com/v1",
		DefaultModel: "gpt-4o-mini",
		Product:      "ChatGPT",
	},
}

// LookupProvider resolves a provider name to its configuration.
func LookupProvider(name string) (ProviderConfig, bool) {
	config, ok := providerConfigs[Provider(name)]
	return config, ok
}

// Providers lists the known provider keys.
func Providers() []Provider {
	return []Provider{ProviderGroq, ProviderOpenRouter, ProviderTogether, ProviderOpenAI}
}
