package session

import "fmt"

// AuthError means there is no usable credential: no token at all, or a
// refresh that cannot be performed. Fatal to the current operation.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// RequestError is a non-2xx response that survived the single 401 retry.
type RequestError struct {
	Status int
	URL    string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request to %s failed with status %d", e.URL, e.Status)
}
