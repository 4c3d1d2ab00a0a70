package core

import "fmt"

// Structural error codes abort a run; participant error codes are
// absorbed into failed turns.
const (
	ErrCodeInput          = "DEBATE_ERR_INPUT"
	ErrCodeState          = "DEBATE_ERR_STATE"
	ErrCodeStorage        = "DEBATE_ERR_STORAGE"
	ErrCodePacket         = "DEBATE_ERR_PACKET"
	ErrCodeWriteback      = "DEBATE_ERR_WRITEBACK"
	ErrCodeNotFound       = "DEBATE_ERR_NOT_FOUND"
	ErrCodeBusy           = "DEBATE_ERR_BUSY"
	ErrCodeAllTurnsFailed = "DEBATE_ERR_ALL_TURNS_FAILED"

	ErrCodeProviderTimeout     = "DEBATE_ERR_PROVIDER_TIMEOUT"
	ErrCodeProviderExec        = "DEBATE_ERR_PROVIDER_EXEC"
	ErrCodeProviderEmpty       = "DEBATE_ERR_PROVIDER_EMPTY"
	ErrCodeProviderHTTP        = "DEBATE_ERR_PROVIDER_HTTP"
	ErrCodeProviderUnsupported = "DEBATE_ERR_PROVIDER_UNSUPPORTED"
)

// Normalization warning codes surfaced in the response errorCodes list.
const (
	WarnProviderNormalized      = "DEBATE_WARN_PROVIDER_NORMALIZED"
	WarnProviderUnknownFallback = "DEBATE_WARN_PROVIDER_UNKNOWN_FALLBACK_LOCAL"
	WarnProviderDisabled        = "DEBATE_WARN_PROVIDER_DISABLED_FALLBACK_LOCAL"
	WarnUnknownRoleIgnored      = "DEBATE_WARN_UNKNOWN_ROLE_IGNORED"
)

// CodedError carries a machine-readable debate error code alongside a
// human-readable message.
type CodedError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *CodedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *CodedError) Unwrap() error {
	return e.Err
}

// NewError creates a CodedError without a wrapped cause.
func NewError(code, message string) *CodedError {
	return &CodedError{Code: code, Message: message}
}

// WrapError creates a CodedError around an underlying cause.
func WrapError(code, message string, err error) *CodedError {
	return &CodedError{Code: code, Message: message, Err: err}
}
