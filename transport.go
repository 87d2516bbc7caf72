package apibind

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// DefaultTimeout is the default per-request timeout of the HTTP transport.
const DefaultTimeout = 30 * time.Second

// Request is the fully resolved request handed to a Transport. Headers is
// the flat header map produced by ResolveConfig; Body, when non-nil, is
// JSON-encoded by the default transport.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    any
	Timeout time.Duration
}

// Response is the raw result of a request. The binder performs no
// transformation; decoding is the caller's choice via JSON.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("unexpected API response format (JSON decode failed): %w", err)
	}
	return nil
}

// Transport issues resolved requests. Implementations must be safe for
// concurrent use; the module shares one transport across all operations.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// HTTPTransport is the default Transport backed by net/http.
//
// The transport includes a circuit breaker that tracks server failures
// across requests. Circuit breaker state persists for the lifetime of the
// transport; use ResetCircuitBreaker when reusing one between test runs or
// logical sessions.
type HTTPTransport struct {
	HTTP        *http.Client
	UserAgent   string
	RetryConfig RetryConfig

	circuitBreaker *circuitBreaker
	rateLimitMu    sync.Mutex
	lastRateLimit  *RateLimitInfo
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a transport with TLS 1.2+ enforced and the
// default timeout and retry configuration.
func NewHTTPTransport() *HTTPTransport {
	baseTransport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		baseTransport = &http.Transport{}
	}
	transport := baseTransport.Clone()
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	} else {
		transport.TLSClientConfig = transport.TLSClientConfig.Clone()
	}
	transport.TLSClientConfig.MinVersion = tls.VersionTLS12

	retryCfg := DefaultRetryConfig()
	return &HTTPTransport{
		RetryConfig: retryCfg,
		HTTP: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: transport,
		},
		circuitBreaker: &circuitBreaker{
			threshold: retryCfg.CircuitBreakerThreshold,
			resetTime: retryCfg.CircuitBreakerResetTime,
		},
	}
}

// ResetCircuitBreaker clears the circuit breaker state, resetting failure
// counts and closing the circuit.
func (t *HTTPTransport) ResetCircuitBreaker() {
	if t.circuitBreaker != nil {
		t.circuitBreaker.reset()
	}
}

// SetRetryConfig updates the retry configuration and aligns circuit breaker
// settings.
func (t *HTTPTransport) SetRetryConfig(cfg RetryConfig) {
	t.RetryConfig = cfg
	if t.circuitBreaker != nil {
		t.circuitBreaker.threshold = cfg.CircuitBreakerThreshold
		t.circuitBreaker.resetTime = cfg.CircuitBreakerResetTime
	}
}

// LastRateLimit returns the most recent rate limit info seen by the
// transport, or nil if none was reported.
func (t *HTTPTransport) LastRateLimit() *RateLimitInfo {
	t.rateLimitMu.Lock()
	defer t.rateLimitMu.Unlock()
	return t.lastRateLimit.clone()
}

func (t *HTTPTransport) recordRateLimit(h http.Header) {
	info := parseRateLimitInfo(h, time.Now())
	if info == nil {
		return
	}
	t.rateLimitMu.Lock()
	defer t.rateLimitMu.Unlock()
	t.lastRateLimit = info
}

// Do issues the request, retrying 429 and 5xx responses for idempotent
// methods per RetryConfig. Responses with status >= 400 return the body
// alongside an *APIError so callers can inspect the failure.
func (t *HTTPTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	if t.circuitBreaker != nil && t.circuitBreaker.isOpen() {
		return nil, &CircuitBreakerError{}
	}

	var jsonBody []byte
	if req.Body != nil {
		var err error
		jsonBody, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	client := t.HTTP
	if req.Timeout > 0 {
		perCall := *client
		perCall.Timeout = req.Timeout
		client = &perCall
	}

	isIdempotent := req.Method == http.MethodGet ||
		req.Method == http.MethodHead ||
		req.Method == http.MethodOptions

	var retries429, retries5xx int

	for {
		var bodyReader io.Reader
		if jsonBody != nil {
			bodyReader = bytes.NewReader(jsonBody)
		}

		httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		for k, v := range req.Headers {
			httpReq.Header.Set(k, v)
		}
		if t.UserAgent != "" && httpReq.Header.Get("User-Agent") == "" {
			httpReq.Header.Set("User-Agent", t.UserAgent)
		}
		if jsonBody != nil && httpReq.Header.Get("Content-Type") == "" {
			httpReq.Header.Set("Content-Type", "application/json")
		}
		if httpReq.Header.Get("Accept") == "" {
			httpReq.Header.Set("Accept", "application/json")
		}

		resp, err := client.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}

		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		t.recordRateLimit(resp.Header)

		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter, hasRetryAfter := retryAfterDuration(resp.Header)
			baseDelay := t.RetryConfig.RateLimitBaseDelay
			if !isIdempotent || retries429 >= t.RetryConfig.MaxRateLimitRetries {
				if hasRetryAfter {
					return nil, &RateLimitError{RetryAfter: retryAfter}
				}
				return nil, &RateLimitError{RetryAfter: baseDelay}
			}
			delay := retryAfter
			if !hasRetryAfter {
				delay = baseDelay * time.Duration(1<<retries429)
			}
			if err := sleepWithContext(ctx, delay); err != nil {
				return nil, err
			}
			retries429++
			continue
		}

		if resp.StatusCode >= 500 {
			if t.circuitBreaker != nil {
				t.circuitBreaker.recordFailure()
			}
			if isIdempotent && retries5xx < t.RetryConfig.Max5xxRetries {
				if err := sleepWithContext(ctx, t.RetryConfig.ServerErrorRetryDelay); err != nil {
					return nil, err
				}
				retries5xx++
				continue
			}
		}

		out := &Response{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       respBody,
		}

		if resp.StatusCode >= 400 {
			return out, &APIError{
				StatusCode: resp.StatusCode,
				Body:       string(respBody),
				RequestID:  requestIDFromHeader(resp.Header),
			}
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 && t.circuitBreaker != nil {
			t.circuitBreaker.recordSuccess()
		}
		return out, nil
	}
}

func requestIDFromHeader(header http.Header) string {
	if header == nil {
		return ""
	}
	if id := header.Get("X-Request-Id"); id != "" {
		return id
	}
	return header.Get("X-Request-ID")
}
