package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeValidation       = "validation_failed"
	ErrCodeMatchNotFound    = "match_not_found"
	ErrCodeChainUnavailable = "chain_unavailable"
)

var (
	// ErrMatchNotFound is returned by chain queries for match ids outside
	// the range of created matches.
	ErrMatchNotFound = errors.New("match not found")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
