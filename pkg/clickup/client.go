// Package clickup is a small client for the parts of the ClickUp API the chat
// client needs: chat channels, channel members, messages and users.
package clickup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultV2URL = "https://api.clickup.com/api/v2"
	DefaultV3URL = "https://api.clickup.com/api/v3"

	// DefaultTimeout bounds a single request including reading the body
	DefaultTimeout = 20 * time.Second

	// DefaultRequestsPerMinute matches the API's per-token limit on the free plan
	DefaultRequestsPerMinute = 100

	DefaultChannelPageSize = 10

	// MessagePageSize is fixed; the client always asks for the newest page
	MessagePageSize = 50

	// MaxResponseSize caps how much of a response body is read
	MaxResponseSize = 10 * 1024 * 1024

	breakerMaxFailures = 5
	breakerOpenTimeout = 30 * time.Second
)

var errServerStatus = errors.New("server returned 5xx")

// Client talks to the ClickUp REST API with a personal or OAuth token
type Client struct {
	baseV2URL string
	baseV3URL string
	token     string

	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	metrics    *Metrics
	logger     *zap.Logger

	channelPageSize int

	sessionID  string
	requestSeq atomic.Uint64
}

type rawResponse struct {
	status int
	body   []byte
}

// NewClient creates a client for the given token
func NewClient(token string) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, configError("new client", "missing CLICKUP_ACCESS_TOKEN (or CLICKUP_TOKEN) in environment")
	}

	c := &Client{
		baseV2URL:       DefaultV2URL,
		baseV3URL:       DefaultV3URL,
		token:           token,
		httpClient:      &http.Client{Timeout: DefaultTimeout},
		logger:          zap.NewNop(),
		channelPageSize: DefaultChannelPageSize,
		sessionID:       uuid.New().String(),
	}
	c.limiter = newLimiter(DefaultRequestsPerMinute)
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "clickup",
		MaxRequests: 1,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerMaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			c.logger.Info("circuit breaker state",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			c.metrics.setBreakerState(to)
		},
	})
	return c, nil
}

// WithBaseURLs overrides the v2 and v3 API roots (used by tests and proxies)
func (c *Client) WithBaseURLs(v2, v3 string) *Client {
	c.baseV2URL = strings.TrimSuffix(v2, "/")
	c.baseV3URL = strings.TrimSuffix(v3, "/")
	return c
}

// WithTimeout sets the per-request timeout
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

// WithHTTPClient replaces the underlying HTTP client
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	c.httpClient = httpClient
	return c
}

// WithRequestsPerMinute paces outgoing requests; n <= 0 disables pacing
func (c *Client) WithRequestsPerMinute(n int) *Client {
	c.limiter = newLimiter(n)
	return c
}

// WithChannelPageSize sets how many channels ListChannels asks for
func (c *Client) WithChannelPageSize(n int) *Client {
	if n > 0 {
		c.channelPageSize = n
	}
	return c
}

func (c *Client) WithLogger(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c.logger = logger.With(zap.String("session", c.sessionID))
	return c
}

func (c *Client) WithMetrics(metrics *Metrics) *Client {
	c.metrics = metrics
	return c
}

// SessionID identifies this process in request ids and logs
func (c *Client) SessionID() string {
	return c.sessionID
}

func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := perMinute / 10
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst)
}

// authorizationValue sends personal tokens and pre-scoped values verbatim,
// anything else as a bearer token
func authorizationValue(token string) string {
	if strings.HasPrefix(token, "pk_") || strings.Contains(token, " ") {
		return token
	}
	return "Bearer " + token
}

func (c *Client) get(ctx context.Context, op, url string) ([]byte, error) {
	return c.do(ctx, op, http.MethodGet, url, nil, true)
}

func (c *Client) post(ctx context.Context, op, url string, payload interface{}) ([]byte, error) {
	return c.do(ctx, op, http.MethodPost, url, payload, true)
}

// do performs one request and returns the body of a 2xx response
func (c *Client) do(ctx context.Context, op, method, url string, payload interface{}, authenticated bool) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, c.fail(op, &Error{Kind: KindUnknown, Op: op, Err: err})
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, c.fail(op, &Error{Kind: KindUnknown, Op: op, Err: err})
	}
	requestID := fmt.Sprintf("%s-%d", c.sessionID, c.requestSeq.Add(1))
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if authenticated {
		req.Header.Set("Authorization", authorizationValue(c.token))
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, c.fail(op, networkError(op, err))
	}

	start := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		if err != nil {
			return nil, err
		}
		r := &rawResponse{status: resp.StatusCode, body: data}
		if resp.StatusCode >= 500 {
			return r, errServerStatus
		}
		return r, nil
	})
	elapsed := time.Since(start)

	resp, _ := result.(*rawResponse)
	if resp == nil {
		c.metrics.observeRequest(op, 0, elapsed.Seconds())
		c.logger.Debug("clickup request failed",
			zap.String("op", op),
			zap.String("request_id", requestID),
			zap.Duration("duration", elapsed),
			zap.Error(err))
		return nil, c.fail(op, networkError(op, err))
	}

	c.metrics.observeRequest(op, resp.status, elapsed.Seconds())
	c.logger.Debug("clickup request",
		zap.String("op", op),
		zap.String("request_id", requestID),
		zap.Int("status", resp.status),
		zap.Duration("duration", elapsed))

	if resp.status < 200 || resp.status > 299 {
		return nil, c.fail(op, &Error{
			Kind:   KindNetwork,
			Op:     op,
			Status: resp.status,
			Body:   strings.TrimSpace(string(resp.body)),
		})
	}
	return resp.body, nil
}

func (c *Client) fail(op string, err error) error {
	c.metrics.observeFailure(op, KindOf(err))
	return err
}

func decodeJSON[T any](c *Client, op string, data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, c.fail(op, parseError(op, err))
	}
	return v, nil
}
