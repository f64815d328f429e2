// Package resilience holds the retry schedule used for upstream API calls:
// how a response is classified and how long to wait before the next attempt.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Policy controls how many attempts an upstream call gets and how long each
// retry waits. Waits grow linearly with the attempt number, per class.
type Policy struct {
	// MaxAttempts is the total number of attempts (including the first try).
	// Default: 6.
	MaxAttempts int

	// TransportStep is multiplied by the attempt number after a transport
	// failure (timeout, refused connection). Default: 600ms.
	TransportStep time.Duration

	// RateLimitStep is multiplied by the attempt number after a 429 without
	// a usable Retry-After header. Default: 2s.
	RateLimitStep time.Duration

	// ServerErrorStep is multiplied by the attempt number after a 5xx.
	// Default: 1s.
	ServerErrorStep time.Duration

	// RejectedStep is multiplied by the attempt number after an unexpected
	// status on the first attempt. Default: 800ms.
	RejectedStep time.Duration

	// MaxJitter bounds the uniform random delay added to every wait.
	// Default: 400ms.
	MaxJitter time.Duration

	// Jitter optionally overrides the random source. It receives MaxJitter
	// and must return a value in [0, MaxJitter).
	Jitter func(max time.Duration) time.Duration
}

// DefaultPolicy returns the schedule tuned for BotConversa's rate limiting.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     6,
		TransportStep:   600 * time.Millisecond,
		RateLimitStep:   2 * time.Second,
		ServerErrorStep: 1 * time.Second,
		RejectedStep:    800 * time.Millisecond,
		MaxJitter:       400 * time.Millisecond,
	}
}

// WithDefaults fills zero fields from DefaultPolicy.
func (p Policy) WithDefaults() Policy {
	def := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.TransportStep <= 0 {
		p.TransportStep = def.TransportStep
	}
	if p.RateLimitStep <= 0 {
		p.RateLimitStep = def.RateLimitStep
	}
	if p.ServerErrorStep <= 0 {
		p.ServerErrorStep = def.ServerErrorStep
	}
	if p.RejectedStep <= 0 {
		p.RejectedStep = def.RejectedStep
	}
	if p.MaxJitter < 0 {
		p.MaxJitter = 0
	}
	return p
}

// Wait returns the delay before the attempt following attempt (1-based).
// retryAfter is the raw Retry-After header value and only matters for
// ClassRateLimited.
func (p Policy) Wait(class Class, attempt int, retryAfter string) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	n := time.Duration(attempt)

	var base time.Duration
	switch class {
	case ClassRateLimited:
		if d, ok := ParseRetryAfter(retryAfter); ok {
			base = d
		} else {
			base = p.RateLimitStep * n
		}
	case ClassServerError:
		base = p.ServerErrorStep * n
	case ClassTransport:
		base = p.TransportStep * n
	default:
		base = p.RejectedStep * n
	}
	return base + p.jitter()
}

func (p Policy) jitter() time.Duration {
	if p.MaxJitter <= 0 {
		return 0
	}
	if p.Jitter != nil {
		return p.Jitter(p.MaxJitter)
	}
	return rand.N(p.MaxJitter)
}

// ParseRetryAfter reads a Retry-After header expressed in (possibly
// fractional) seconds. HTTP-date values are not supported and report false.
func ParseRetryAfter(v string) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return 0, false
	}
	if secs < 0 {
		return 0, true
	}
	ms := math.Floor(secs * 1000)
	if ms > float64(math.MaxInt64/int64(time.Millisecond)) {
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}

// Sleep blocks for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryLogger returns a callback that logs each retry attempt.
func RetryLogger(service, operation string) func(attempt int, class Class, wait time.Duration, err error) {
	return func(attempt int, class Class, wait time.Duration, err error) {
		zap.L().Warn("retrying operation",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Stringer("class", class),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}
}
