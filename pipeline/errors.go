package pipeline

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases.
var (
	ErrMissingCredential = errors.New("missing API credential")
	ErrNotFound          = errors.New("not found")
)

// RemoteError is a non-success status from a reachable remote service.
type RemoteError struct {
	Service string
	Status  int
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: HTTP %d", e.Service, e.Status)
}
