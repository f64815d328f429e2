package botconversa

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is a terminal upstream failure. Code is the upstream status
// for rejected requests, or 502 when retries were exhausted (Gateway set).
type StatusError struct {
	Code    int
	Detail  string
	Gateway bool
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("botconversa: status %d: %s", e.Code, e.Detail)
}

func gatewayError(cause error) *StatusError {
	detail := "Upstream error"
	if cause != nil {
		detail = "Upstream error: " + cause.Error()
	}
	return &StatusError{Code: http.StatusBadGateway, Detail: detail, Gateway: true}
}

// AsStatusError extracts a *StatusError from err's chain.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsGateway reports whether err is a retry-exhaustion failure.
func IsGateway(err error) bool {
	se, ok := AsStatusError(err)
	return ok && se.Gateway
}

// IsUnauthorized reports whether the upstream rejected the API key.
func IsUnauthorized(err error) bool {
	se, ok := AsStatusError(err)
	return ok && (se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden)
}
