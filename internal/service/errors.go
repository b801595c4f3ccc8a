package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("access denied")
	ErrInvalidTransition  = errors.New("invalid build status transition")
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactive           = errors.New("user is inactive")
)

// QuotaExceededError is returned before any agent call when the monthly allowance is used up.
type QuotaExceededError struct {
	Limit int64
	Used  int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("Usage limit exceeded. Limit: %d, Used: %d", e.Limit, e.Used)
}

// AgentServiceError is returned after an agent call attempt that did not succeed.
// The attempt has already been recorded in the usage ledger.
type AgentServiceError struct {
	Message    string
	StatusCode int
}

func (e *AgentServiceError) Error() string {
	return fmt.Sprintf("agent service error (%d): %s", e.StatusCode, e.Message)
}
