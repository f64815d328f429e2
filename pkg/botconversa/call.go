package botconversa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bcproxy/internal/resilience"
)

// DefaultAccept is the set of statuses treated as success when a Request
// does not list its own.
var DefaultAccept = []int{http.StatusOK, http.StatusCreated}

// maxDetail is how much of a rejected response body is kept in StatusError.
const maxDetail = 500

// Request describes one logical upstream call.
type Request struct {
	Method string
	// Path is appended to the base URL and may carry a query string.
	Path string
	// Body is JSON-encoded when non-nil.
	Body any
	// Accept lists the statuses treated as success. Default: 200, 201.
	Accept []int
	// MaxAttempts overrides the client's attempt ceiling when positive.
	MaxAttempts int
}

// Response is the outcome of a call that did not fail.
type Response struct {
	Status int
	// Body is the raw JSON payload, nil when the upstream sent none.
	Body json.RawMessage
	// NotFound is set for a 404. Body is nil in that case.
	NotFound bool
}

// Call performs req with bounded retries. 429, 5xx and transport failures
// are retried with linear backoff plus jitter; any other unexpected status
// gets a single retry and then fails with a *StatusError carrying the
// upstream code. A 404 is returned as Response.NotFound, not as an error.
// Exhausting attempts yields a 502 *StatusError.
func (c *Client) Call(ctx context.Context, req Request) (*Response, error) {
	accept := req.Accept
	if len(accept) == 0 {
		accept = DefaultAccept
	}
	maxAttempts := req.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = c.policy.MaxAttempts
	}

	var payload []byte
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, eris.Wrap(err, "botconversa: marshal request body")
		}
		payload = b
	}

	op := req.Method + " " + pathOnly(req.Path)
	onRetry := resilience.RetryLogger("botconversa", op)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}

		var (
			class      resilience.Class
			retryAfter string
		)

		status, header, body, err := c.do(ctx, req.Method, c.baseURL+req.Path, payload)
		if err != nil {
			if ctx.Err() != nil {
				return nil, eris.Wrapf(ctx.Err(), "botconversa: %s cancelled", op)
			}
			lastErr = err
			if attempt >= maxAttempts {
				return nil, gatewayError(err)
			}
			class = resilience.ClassTransport
		} else {
			class = resilience.Classify(status, accept)
			switch class {
			case resilience.ClassAccepted:
				return decodeResponse(status, body)
			case resilience.ClassNotFound:
				return &Response{Status: status, NotFound: true}, nil
			}
			if !class.Retryable(attempt) {
				return nil, &StatusError{Code: status, Detail: truncate(string(body), maxDetail)}
			}
			lastErr = fmt.Errorf("upstream returned status %d", status)
			retryAfter = header.Get("Retry-After")
		}

		if attempt >= maxAttempts {
			break
		}

		delay := c.policy.Wait(class, attempt, retryAfter)
		onRetry(attempt, class, delay, lastErr)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, eris.Wrapf(err, "botconversa: %s cancelled during backoff", op)
		}
	}

	return nil, gatewayError(lastErr)
}

// do executes a single HTTP attempt and reads the full body.
func (c *Client) do(ctx context.Context, method, url string, payload []byte) (int, http.Header, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, nil, eris.Wrap(err, "botconversa: create request")
	}
	req.Header.Set("API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, eris.Wrap(err, "botconversa: read response body")
	}
	return resp.StatusCode, resp.Header, data, nil
}

func decodeResponse(status int, body []byte) (*Response, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return &Response{Status: status}, nil
	}
	if !json.Valid(trimmed) {
		return nil, &StatusError{
			Code:    http.StatusBadGateway,
			Detail:  "Upstream returned invalid JSON: " + truncate(string(trimmed), maxDetail),
			Gateway: true,
		}
	}
	return &Response{Status: status, Body: json.RawMessage(trimmed)}, nil
}

func pathOnly(p string) string {
	if i := strings.IndexByte(p, '?'); i >= 0 {
		return p[:i]
	}
	return p
}

// truncate keeps the first n characters of s.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
