package vk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	httpclient "github.com/natserract/vk/pkg/http"
	"go.uber.org/zap"
)

// Init runs the authorization exchange in the background and returns the
// client. cb may be nil.
func (c *Client) Init(ctx context.Context, cb InitCallback) *Client {
	c.async(func() {
		_ = c.authenticate(ctx, cb)
	})
	return c
}

// Authenticate trades the application credentials for an access token and
// stores it. The outcome is also published as an initCall or initError event.
func (c *Client) Authenticate(ctx context.Context) error {
	return c.authenticate(ctx, nil)
}

func (c *Client) authenticate(ctx context.Context, cb InitCallback) error {
	if ctx == nil {
		ctx = context.Background()
	}

	notify := func(ev Event) {
		if cb != nil {
			cb(ev.Err)
		}
	}
	fail := func(name EventName, err error) error {
		c.deliver(Event{Name: name, Err: err}, notify)
		return err
	}

	url := httpclient.BuildRawURL(c.authURL, "", []httpclient.Param{
		{Key: "client_id", Value: c.creds.AppID},
		{Key: "client_secret", Value: c.creds.AppSecret},
		{Key: "grant_type", Value: "client_credentials"},
		{Key: "v", Value: c.apiVersion},
	})
	c.logger.Info("Authenticating with VK", zap.String("url", c.authURL))

	resp, err := c.httpClient.Get(ctx, url, nil)
	if err != nil {
		c.logger.Error("Authentication request failed", zap.Error(err))
		return fail(EventInitError, &ResponseError{Op: "authentication", Err: err})
	}

	if resp.StatusCode > http.StatusOK {
		c.logger.Error("Authentication failed",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(resp.Body)))
		return fail(EventInitError, &AuthError{ErrorCode: resp.StatusCode, ErrorMsg: string(resp.Body)})
	}

	decoded, err := decodeNumbers(resp.Body)
	if err != nil {
		c.logger.Error("Failed to parse authentication response", zap.Error(err))
		return fail(EventInitError, &ResponseError{
			Op:         "authentication",
			StatusCode: resp.StatusCode,
			Body:       string(resp.Body),
			Err:        fmt.Errorf("%w: %v", ErrMalformedResponse, err),
		})
	}

	payload, _ := decoded.(map[string]any)
	if !truthy(payload["access_token"]) {
		c.logger.Warn("Authentication response has no access token")
		return fail(EventInitCall, &AuthPayloadError{Payload: payload, Raw: resp.Body})
	}

	var token string
	switch v := payload["access_token"].(type) {
	case string:
		token = v
	case json.Number:
		token = v.String()
	default:
		token = fmt.Sprint(v)
	}
	c.SetToken(token)

	c.logger.Info("Successfully authenticated", zap.String("request_id", resp.RequestID))
	c.deliver(Event{Name: EventInitCall}, notify)

	return nil
}
