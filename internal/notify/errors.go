// internal/notify/errors.go
package notify

import "fmt"

// ResolutionError means a destination could not be turned into a target.
// Nothing is cached; the next send retries the resolution.
type ResolutionError struct {
	Destination string
	Err         error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("notify: resolve %s: %v", e.Destination, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// DeliveryError means a resolved target rejected a message: no permission,
// removed from the chat or an invalid peer. It always wraps
// chat.ErrSendRejected; other send failures are returned as they are.
type DeliveryError struct {
	Target string
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("notify: deliver to %s: %v", e.Target, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
