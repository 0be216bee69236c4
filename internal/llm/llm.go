// Package llm wraps the hosted text-completion services that turn anonymized
// glucose data into narrative insights.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrQuotaExceeded marks quota/rate-limit signals from the provider. Callers
// turn this into a "try again later" condition rather than a hard failure.
var ErrQuotaExceeded = errors.New("llm: quota exceeded")

// ErrEmptyCompletion is returned when the provider answers without any text.
var ErrEmptyCompletion = errors.New("llm: empty completion")

// StatusError carries the provider's reported HTTP status and message so the
// boundary can relay both verbatim.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm: provider error %d: %s", e.Status, e.Message)
}

// Client is a hosted completion service.
type Client interface {
	Name() string
	GenerateText(ctx context.Context, system, user string) (string, error)
	Close() error
}
