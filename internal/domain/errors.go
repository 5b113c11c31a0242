package domain

import (
	"errors"
	"fmt"
)

// ErrRateLimited signals that the remote embedding provider is
// throttling. It is recoverable by falling back to a non-embedding
// ranking path, never by blind retry inside the core.
var ErrRateLimited = errors.New("rate limit reached")

// ProviderError is any other malformed or erroring remote response.
// It carries the provider's raw error payload and is not retried.
type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.Status, e.Body)
}
