package vector

import (
	"errors"
	"fmt"
)

// ErrServiceUnavailable signals that the service failed its health probe.
var ErrServiceUnavailable = errors.New("vector search service is not available")

// ServiceError reports a failed call to the vector search service: transport
// failure, non-2xx status, or an unparseable response. It is distinct from
// caller mistakes so the orchestrator can absorb it and fall back.
type ServiceError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("vector search %s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("vector search %s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// IsServiceError reports whether err originated in the vector service call
// path (as opposed to a malformed local request).
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se) || errors.Is(err, ErrServiceUnavailable)
}
