package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a whole request, body included.
const DefaultTimeout = 30 * time.Second

type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

type RequestOptions struct {
	Method          string
	URL             string
	Headers         map[string]string
	Context         context.Context
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

type Response struct {
	RequestID  string
	StatusCode int
	Headers    http.Header
	Body       []byte
}

func NewClient() *Client {
	logger, _ := zap.NewProduction()
	return NewClientWithLogger(logger)
}

// NewClientWithLogger creates a new HTTP client with a custom logger
func NewClientWithLogger(logger *zap.Logger) *Client {
	return NewClientWithTimeout(logger, DefaultTimeout)
}

// NewClientWithTimeout creates a client whose requests are cut off after
// timeout. A zero timeout means no limit.
func NewClientWithTimeout(logger *zap.Logger, timeout time.Duration) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Timeout reports the per-request limit of the underlying net/http client.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// Do executes the request and returns the response for every status code.
// Only transport failures are errors; interpreting the status is left to the
// caller. A request is attempted once unless MaxTries asks for more.
func (c *Client) Do(opts RequestOptions) (*Response, error) {
	if opts.MaxTries == 0 {
		opts.MaxTries = 1
	}
	if opts.InitialInterval == 0 {
		opts.InitialInterval = 100 * time.Millisecond
	}
	if opts.MaxInterval == 0 {
		opts.MaxInterval = 30 * time.Second
	}
	if opts.Method == "" {
		opts.Method = http.MethodGet
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = opts.InitialInterval
	expBackoff.MaxInterval = opts.MaxInterval
	expBackoff.Reset()

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	requestID := uuid.NewString()
	logURL := RedactURL(opts.URL)
	logger := c.logger.With(
		zap.String("request_id", requestID),
		zap.String("method", opts.Method),
		zap.String("url", logURL))

	operation := func() (*Response, error) {
		req, err := c.buildRequest(ctx, opts)
		if err != nil {
			logger.Error("Failed to build request", zap.Error(err))
			return nil, backoff.Permanent(err)
		}

		logger.Debug("Making HTTP request")

		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(err)
			}
			logger.Warn("HTTP request failed", zap.Error(err))
			return nil, err
		}
		defer httpResp.Body.Close()

		body, err := io.ReadAll(httpResp.Body)
		if err != nil {
			logger.Error("Failed to read response body", zap.Error(err))
			return nil, backoff.Permanent(fmt.Errorf("failed to read response body: %w", err))
		}

		return &Response{
			RequestID:  requestID,
			StatusCode: httpResp.StatusCode,
			Headers:    httpResp.Header,
			Body:       body,
		}, nil
	}

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(opts.MaxTries))
	if err != nil {
		logger.Error("HTTP request failed", zap.Error(err))
		return nil, err
	}

	logger.Debug("HTTP request completed", zap.Int("status_code", resp.StatusCode))

	return resp, nil
}

func (c *Client) buildRequest(ctx context.Context, opts RequestOptions) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, opts.Method, opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	return req, nil
}

func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	return c.Do(RequestOptions{
		Method:  http.MethodGet,
		URL:     url,
		Headers: headers,
		Context: ctx,
	})
}

// RedactURL strips the query string so credentials carried in it never reach
// the logs.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable url>"
	}
	u.RawQuery = ""
	u.User = nil
	return u.String()
}
