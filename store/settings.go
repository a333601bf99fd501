package store

import "encoding/base64"

// Setting names. Each preference occupies one independent slot so a fault in
// one never corrupts another.
const (
	settingTheme               = "theme"
	settingAPIProvider         = "api_provider"
	settingAPIKey              = "api_key"
	settingModel               = "model"
	settingShowEditedBadge     = "show_edited_badge"
	settingCurrentConversation = "current_conversation_id"
)

// Preference defaults.
const (
	DefaultTheme       = "default-dark"
	DefaultAPIProvider = "groq"
)

// encodeAPIKey obfuscates a credential before storage. This is reversible
// encoding, not cryptographic protection; deployments needing confidentiality
// must supply the credential through the environment instead.
func encodeAPIKey(key string) string {
	if key == "" {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(key))
}

// decodeAPIKey reverses encodeAPIKey. A decode failure returns the stored
// value unchanged, so a raw (legacy or hand-edited) key keeps working.
func decodeAPIKey(stored string) string {
	if stored == "" {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return stored
	}
	return string(decoded)
}
