package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrStoreInit           = errors.New("store could not be opened")
	ErrStoreRead           = errors.New("store read failed")
	ErrStoreWrite          = errors.New("store write failed")
	ErrCreatureNotFound    = errors.New("creature not found")
	ErrSettingNotFound     = errors.New("setting not found")
	ErrInsufficientBalance = errors.New("insufficient token balance")
	ErrUnknownRarity       = errors.New("unknown rarity tier")
	ErrGenerationFailed    = errors.New("creature generation failed")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInternalError       = errors.New("internal server error")
)

// GenerationKind classifies a generation failure
type GenerationKind string

const (
	GenerationAuthFailed         GenerationKind = "auth_failed"
	GenerationNetworkUnavailable GenerationKind = "network_unavailable"
	GenerationMalformedResponse  GenerationKind = "malformed_response"
)

// GenerationError carries the failure kind and the upstream message so the
// action boundary can surface something human-readable
type GenerationError struct {
	Kind    GenerationKind
	Message string
}

func (e *GenerationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("creature generation failed (%s): %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("creature generation failed (%s)", e.Kind)
}

// Unwrap lets callers match with errors.Is(err, ErrGenerationFailed)
func (e *GenerationError) Unwrap() error {
	return ErrGenerationFailed
}

// NewGenerationError builds a GenerationError of the given kind
func NewGenerationError(kind GenerationKind, message string) *GenerationError {
	return &GenerationError{Kind: kind, Message: message}
}

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrCreatureNotFound) || errors.Is(err, ErrSettingNotFound)
}
