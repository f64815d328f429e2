package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func noJitter(time.Duration) time.Duration { return 0 }

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.MaxAttempts != 6 {
		t.Errorf("expected 6 attempts, got %d", p.MaxAttempts)
	}
	if p.MaxJitter != 400*time.Millisecond {
		t.Errorf("expected 400ms jitter, got %v", p.MaxJitter)
	}
}

func TestWithDefaults_FillsZeroFields(t *testing.T) {
	p := Policy{MaxAttempts: 2}.WithDefaults()
	if p.MaxAttempts != 2 {
		t.Errorf("expected explicit MaxAttempts to survive, got %d", p.MaxAttempts)
	}
	if p.RateLimitStep != 2*time.Second {
		t.Errorf("expected default rate limit step, got %v", p.RateLimitStep)
	}
	if p.TransportStep != 600*time.Millisecond {
		t.Errorf("expected default transport step, got %v", p.TransportStep)
	}
}

func TestWait_LinearPerClass(t *testing.T) {
	p := DefaultPolicy()
	p.Jitter = noJitter

	tests := []struct {
		class   Class
		attempt int
		want    time.Duration
	}{
		{ClassRateLimited, 1, 2 * time.Second},
		{ClassRateLimited, 3, 6 * time.Second},
		{ClassServerError, 1, 1 * time.Second},
		{ClassServerError, 4, 4 * time.Second},
		{ClassTransport, 2, 1200 * time.Millisecond},
		{ClassRejected, 1, 800 * time.Millisecond},
	}
	for _, tt := range tests {
		got := p.Wait(tt.class, tt.attempt, "")
		if got != tt.want {
			t.Errorf("Wait(%s, %d) = %v, want %v", tt.class, tt.attempt, got, tt.want)
		}
	}
}

func TestWait_RetryAfterOverridesRateLimitStep(t *testing.T) {
	p := DefaultPolicy()
	p.Jitter = noJitter

	if got := p.Wait(ClassRateLimited, 5, "2"); got != 2*time.Second {
		t.Errorf("expected 2s from Retry-After, got %v", got)
	}
	if got := p.Wait(ClassRateLimited, 1, "0.5"); got != 500*time.Millisecond {
		t.Errorf("expected 500ms from fractional Retry-After, got %v", got)
	}
	// Unparseable header falls back to the step.
	if got := p.Wait(ClassRateLimited, 2, "Wed, 21 Oct 2015 07:28:00 GMT"); got != 4*time.Second {
		t.Errorf("expected fallback 4s, got %v", got)
	}
	// Retry-After is ignored for other classes.
	if got := p.Wait(ClassServerError, 1, "30"); got != 1*time.Second {
		t.Errorf("expected 1s for server error, got %v", got)
	}
}

func TestWait_JitterStaysInRange(t *testing.T) {
	p := DefaultPolicy()
	seen := map[time.Duration]bool{}
	for i := 0; i < 200; i++ {
		d := p.Wait(ClassRateLimited, 1, "2")
		if d < 2*time.Second || d >= 2400*time.Millisecond {
			t.Fatalf("delay %v outside [2s, 2.4s)", d)
		}
		seen[d] = true
	}
	if len(seen) < 2 {
		t.Error("expected jitter to produce varying delays")
	}
}

func TestWait_ZeroJitter(t *testing.T) {
	p := DefaultPolicy()
	p.MaxJitter = 0
	if got := p.Wait(ClassServerError, 2, ""); got != 2*time.Second {
		t.Errorf("expected exact 2s, got %v", got)
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"2", 2 * time.Second, true},
		{" 1.25 ", 1250 * time.Millisecond, true},
		{"0", 0, true},
		{"-3", 0, true},
		{"", 0, false},
		{"soon", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"1e300", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseRetryAfter(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseRetryAfter(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSleep_Elapses(t *testing.T) {
	start := time.Now()
	if err := Sleep(context.Background(), 20*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("returned before the delay elapsed")
	}
}

func TestSleep_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("sleep ignored cancellation")
	}
}

func TestRetryLogger(t *testing.T) {
	t.Parallel()
	// Just verify it doesn't panic.
	logger := RetryLogger("botconversa", "GET /tags/")
	logger(1, ClassRateLimited, time.Second, errors.New("test error"))
}
