package ai

import "fmt"

// InvalidInputError reports a client-correctable request fault. Field names
// the offending part of the request; Reason is the user-facing description.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return e.Reason
}

// MissingCredentialError reports a request for a provider that requires an
// explicit API key when none was supplied.
type MissingCredentialError struct {
	Provider Provider
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("API key required for %s", e.Provider)
}

// UpstreamError reports a backend or network fault on the single completion
// call. Message carries the upstream-supplied description when one exists.
type UpstreamError struct {
	Provider Provider
	Message  string
}

func (e *UpstreamError) Error() string {
	return e.Message
}
