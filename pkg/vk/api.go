package vk

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	httpclient "github.com/natserract/vk/pkg/http"
	"go.uber.org/zap"
)

// API calls method in the background and returns the client. When no token is
// held the authorization exchange runs first; the call is issued once it
// completes, whether or not a token was obtained. cb may be nil.
func (c *Client) API(ctx context.Context, method string, params map[string]string, cb Callback) *Client {
	c.async(func() {
		_, _ = c.call(ctx, method, params, cb)
	})
	return c
}

// Call is the blocking form of API. The outcome is published as an apiCall
// event and returned.
func (c *Client) Call(ctx context.Context, method string, params map[string]string) (json.RawMessage, error) {
	return c.call(ctx, method, params, nil)
}

func (c *Client) call(ctx context.Context, method string, params map[string]string, cb Callback) (json.RawMessage, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if c.Token() == "" {
		// The exchange reports its own outcome through the init events.
		_ = c.authenticate(ctx, nil)
	}

	return c.invoke(ctx, method, params, cb)
}

func (c *Client) invoke(ctx context.Context, method string, params map[string]string, cb Callback) (json.RawMessage, error) {
	notify := func(ev Event) {
		if cb != nil {
			cb(ev.Err, ev.Result)
		}
	}
	fail := func(err error) (json.RawMessage, error) {
		c.deliver(Event{Name: EventAPICall, Method: method, Err: err}, notify)
		return nil, err
	}

	logger := c.logger.With(zap.String("api_method", method))
	logger.Debug("Calling API method")

	resp, err := c.httpClient.Get(ctx, c.methodURL(method, params), nil)
	if err != nil {
		logger.Error("API request failed", zap.Error(err))
		return fail(&ResponseError{Op: "call " + method, Err: err})
	}

	var decoded any
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		logger.Error("Failed to parse API response",
			zap.Int("status_code", resp.StatusCode),
			zap.Error(err))
		return fail(&ResponseError{
			Op:         "call " + method,
			StatusCode: resp.StatusCode,
			Body:       string(resp.Body),
			Err:        fmt.Errorf("%w: %v", ErrMalformedResponse, err),
		})
	}

	body := json.RawMessage(resp.Body)
	if payload, ok := decoded.(map[string]any); ok && truthy(payload["error"]) {
		apiErr := newAPIError(body, payload)
		logger.Warn("API method returned an error",
			zap.Int("error_code", apiErr.Code),
			zap.String("error_msg", apiErr.Msg))
		return fail(apiErr)
	}

	logger.Debug("API method succeeded", zap.String("request_id", resp.RequestID))
	c.deliver(Event{Name: EventAPICall, Method: method, Result: body}, notify)

	return body, nil
}

// methodURL builds <apiURL><method>?v=<version>, adds the server credentials
// for secure.* methods and then the caller's params. Nothing is escaped.
func (c *Client) methodURL(method string, params map[string]string) string {
	query := []httpclient.Param{{Key: "v", Value: c.apiVersion}}

	if strings.Contains(method, "secure.") {
		query = append(query,
			httpclient.Param{Key: "access_token", Value: c.Token()},
			httpclient.Param{Key: "client_secret", Value: c.creds.AppSecret})
	}

	query = append(query, httpclient.SortedParams(params)...)

	return httpclient.BuildRawURL(c.apiURL, method, query)
}
