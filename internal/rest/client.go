package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jpillora/backoff"
	"github.com/pkg/errors"
)

const (
	DefaultTimeout     = 10 * time.Second
	DefaultMaxAttempts = 3
	DefaultBackoffMin  = 500 * time.Millisecond
	DefaultBackoffMax  = 4 * time.Second
)

// HTTPError is returned for any response with a 4xx/5xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

// IsStatus reports whether err wraps an HTTPError with the given status code.
func IsStatus(err error, statusCode int) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == statusCode
}

// Request describes one outbound call. Form and Body are mutually exclusive;
// Body is JSON-encoded when set.
type Request struct {
	Method  string
	URL     string
	Query   url.Values
	Headers map[string]string
	Form    url.Values
	Body    any
}

// Client is a JSON HTTP client with bounded retries. Transport failures and
// 5xx responses are retried with exponential backoff; other 4xx responses are
// permanent and returned to the caller on the first attempt.
type Client struct {
	http        *http.Client
	userAgent   string
	maxAttempts int
	backoffMin  time.Duration
	backoffMax  time.Duration
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http:        &http.Client{Timeout: timeout},
		maxAttempts: DefaultMaxAttempts,
		backoffMin:  DefaultBackoffMin,
		backoffMax:  DefaultBackoffMax,
	}
}

func (c *Client) WithUserAgent(userAgent string) *Client {
	c.userAgent = userAgent
	return c
}

// DoJSON executes the request and decodes the response body into out when out
// is non-nil.
func (c *Client) DoJSON(ctx context.Context, req Request, out any) error {
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = json.Marshal(req.Body)
		if err != nil {
			return errors.Wrap(err, "marshal request body")
		}
	}

	requestURL := req.URL
	if len(req.Query) > 0 {
		requestURL = requestURL + "?" + req.Query.Encode()
	}

	b := &backoff.Backoff{
		Min:    c.backoffMin,
		Max:    c.backoffMax,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		responseBody, err := c.do(ctx, req, requestURL, bodyBytes)
		if err == nil {
			if out != nil && len(responseBody) > 0 {
				if err := json.Unmarshal(responseBody, out); err != nil {
					return errors.Wrapf(err, "decode response from %s", req.URL)
				}
			}
			return nil
		}

		lastErr = err
		if !retryable(err) || attempt == c.maxAttempts {
			return lastErr
		}

		select {
		case <-time.After(b.Duration()):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

func (c *Client) do(ctx context.Context, req Request, requestURL string, bodyBytes []byte) ([]byte, error) {
	var reader io.Reader
	contentType := ""
	switch {
	case len(req.Form) > 0:
		reader = strings.NewReader(req.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case bodyBytes != nil:
		reader = bytes.NewReader(bodyBytes)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, requestURL, reader)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "call %s %s", req.Method, req.URL)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}

	if resp.StatusCode >= 400 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(responseBody)}
	}
	return responseBody, nil
}

func retryable(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500
	}
	// Network-level failures (timeouts, refused connections) are transient.
	return true
}
