package vk

import (
	"context"

	"golang.org/x/oauth2"
)

type tokenSource struct {
	ctx    context.Context
	client *Client
}

// TokenSource exposes the client's token to code built on golang.org/x/oauth2.
// When no token is held the first Token call runs the authorization exchange.
// The returned tokens carry no expiry.
func (c *Client) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, client: c}
}

func (ts *tokenSource) Token() (*oauth2.Token, error) {
	if tok := ts.client.Token(); tok != "" {
		return &oauth2.Token{AccessToken: tok}, nil
	}
	if err := ts.client.Authenticate(ts.ctx); err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: ts.client.Token()}, nil
}
