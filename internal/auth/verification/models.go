package verification

import (
	"time"

	"relay/infrastructure"
)

// Result is the outcome of checking a one-time code.
type Result int

const (
	CodeValid Result = iota
	CodeExpired
	CodeMismatch
	CodeMissing
)

func (r Result) String() string {
	switch r {
	case CodeValid:
		return "valid"
	case CodeExpired:
		return "expired"
	case CodeMismatch:
		return "mismatch"
	default:
		return "missing"
	}
}

// Err converts a non-valid result into the error reported to clients.
func (r Result) Err() error {
	switch r {
	case CodeValid:
		return nil
	case CodeExpired:
		return infrastructure.ErrCodeExpired
	default:
		return infrastructure.ErrCodeMismatch
	}
}

// ResetCode is an issued password reset code. Attempts counts wrong guesses against it.
type ResetCode struct {
	Code      string
	ExpiresAt time.Time
	Attempts  int
}
