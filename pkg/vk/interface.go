package vk

import (
	"context"
	"encoding/json"
)

// VKClient defines the interface for VK API operations
type VKClient interface {
	// Authenticate retrieves an access token with the client_credentials grant
	Authenticate(ctx context.Context) error

	// Call invokes a method and waits for its outcome
	Call(ctx context.Context, method string, params map[string]string) (json.RawMessage, error)

	SetToken(token string)
	Token() string

	On(name EventName, l Listener) *Client
}

var _ VKClient = (*Client)(nil)
