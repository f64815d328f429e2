// Package botconversa provides a client for the BotConversa webhook API
// (subscribers, tags and custom fields) with retry and backoff built in.
package botconversa

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/bcproxy/internal/resilience"
)

// DefaultBaseURL is the production webhook API root.
const DefaultBaseURL = "https://backend.botconversa.com.br/api/v1/webhook"

// DefaultTimeout bounds a single HTTP attempt.
const DefaultTimeout = 30 * time.Second

// Option configures the BotConversa client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-attempt timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithPolicy replaces the retry schedule. Zero fields keep their defaults.
func WithPolicy(p resilience.Policy) Option {
	return func(c *Client) {
		c.policy = p.WithDefaults()
	}
}

// WithMaxAttempts sets the default attempt ceiling for every call.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.policy.MaxAttempts = n
		}
	}
}

// WithRateLimit caps outgoing attempts at rps per second for this client.
// A burst equal to the integer portion of rps is allowed.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// WithSleeper replaces the function used to wait between attempts (for testing).
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

// Client talks to one BotConversa account, identified by its API key.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	policy  resilience.Policy
	limiter *rate.Limiter
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewClient creates a client for the account owning apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		policy: resilience.DefaultPolicy(),
		sleep:  resilience.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxAttempts returns the default attempt ceiling.
func (c *Client) MaxAttempts() int {
	return c.policy.MaxAttempts
}

// wait blocks until the rate limiter allows one event, or ctx is cancelled.
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "botconversa: rate limit")
	}
	return nil
}
