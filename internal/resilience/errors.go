package resilience

import (
	"net/http"
	"slices"
)

// Class is the outcome category of a single upstream attempt.
type Class int

const (
	// ClassAccepted is a status the caller listed as success.
	ClassAccepted Class = iota
	// ClassNotFound is a 404. It is a result, not a failure.
	ClassNotFound
	// ClassRateLimited is a 429.
	ClassRateLimited
	// ClassServerError is any 5xx.
	ClassServerError
	// ClassRejected is any other status. It gets one retry on the first
	// attempt and is terminal afterwards.
	ClassRejected
	// ClassTransport is a failure before any status was received.
	ClassTransport
)

func (c Class) String() string {
	switch c {
	case ClassAccepted:
		return "accepted"
	case ClassNotFound:
		return "not_found"
	case ClassRateLimited:
		return "rate_limited"
	case ClassServerError:
		return "server_error"
	case ClassRejected:
		return "rejected"
	case ClassTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Classify maps an HTTP status to a Class. Accepted statuses win over the
// other rules, so a caller that accepts 404 never sees ClassNotFound.
func Classify(status int, accepted []int) Class {
	switch {
	case slices.Contains(accepted, status):
		return ClassAccepted
	case status == http.StatusNotFound:
		return ClassNotFound
	case status == http.StatusTooManyRequests:
		return ClassRateLimited
	case status >= 500 && status < 600:
		return ClassServerError
	default:
		return ClassRejected
	}
}

// Retryable reports whether an attempt with this class may be followed by
// another one. Rejected statuses are only retried on the first attempt.
func (c Class) Retryable(attempt int) bool {
	switch c {
	case ClassRateLimited, ClassServerError, ClassTransport:
		return true
	case ClassRejected:
		return attempt < 2
	default:
		return false
	}
}
