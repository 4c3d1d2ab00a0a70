package provider

import "fmt"

// InvokeError represents a structured failure from a provider call.
// The orchestrator converts it into a failed turn; it never crosses
// the engine boundary as a panic or a run abort.
type InvokeError struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

// Error implements the error interface.
func (e *InvokeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s (%v)", e.Provider, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *InvokeError) Unwrap() error {
	return e.Err
}
