package gateway

import (
	"errors"
	"fmt"
)

// StatusError is a non-2xx response from the messaging gateway.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway returned status %d", e.StatusCode)
}

func asStatusError(err error, target **StatusError) bool {
	return errors.As(err, target)
}
