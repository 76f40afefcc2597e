// SPDX-License-Identifier: MIT

package fourgtv

import (
	"errors"
	"fmt"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.

	// ErrRejected marks a business-logic rejection (success flag false,
	// bad credentials, 4xx). Sign-in treats it as final; resolution may
	// still retry it.
	ErrRejected = errors.New("fourgtv: request rejected by upstream")
	// ErrUnavailable marks transport failures and 5xx responses. Retryable.
	ErrUnavailable = errors.New("fourgtv: upstream unreachable or transport failure")
	// ErrBadResponse marks malformed or unexpectedly shaped payloads.
	ErrBadResponse = errors.New("fourgtv: invalid response format or malformed data")
	// ErrTimeout marks a per-call deadline hit. Retryable.
	ErrTimeout = errors.New("fourgtv: request timed out")
)

// APIError wraps the sentinel errors with call context.
type APIError struct {
	Sentinel  error
	Operation string
	Status    int
	Detail    string
	Err       error // nested lower-level error (e.g. net.Error)
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("fourgtv: %s: %v", e.Operation, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Sentinel
}
