// Package vk provides a minimal client for the VK method API.
//
// A Client exchanges application credentials for an access token using the
// client_credentials grant and then issues GET calls against
// https://api.vk.com/method/<name>. Every outcome is delivered twice: to the
// callback passed with the call and to the listeners registered with On.
//
// API and Init run asynchronously and return the client so calls can be
// chained; Call and Authenticate are their blocking counterparts. A client
// without a token acquires one before its first method call. Tokens are never
// refreshed and concurrent token-less calls each run their own exchange.
package vk

import (
	"sync"
	"time"

	httpclient "github.com/natserract/vk/pkg/http"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"
)

// Client is the main client for interacting with the VK API
type Client struct {
	creds      Credentials
	httpClient *httpclient.Client
	logger     *zap.Logger
	authURL    string
	apiURL     string
	apiVersion string
	timeout    *time.Duration

	mu    sync.RWMutex
	token string

	events  *emitter
	pending conc.WaitGroup
	onPanic PanicHandler
}

type Option func(*Client)

// PanicHandler receives a panic raised by a callback or listener while an
// API or Init call runs in the background.
type PanicHandler func(r *panics.Recovered)

// WithLogger sets the logger used by the client and its HTTP transport.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient replaces the HTTP transport. WithTimeout has no effect on a
// transport supplied this way.
func WithHTTPClient(hc *httpclient.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithAuthURL(u string) Option {
	return func(c *Client) { c.authURL = u }
}

func WithAPIURL(u string) Option {
	return func(c *Client) { c.apiURL = u }
}

func WithAPIVersion(v string) Option {
	return func(c *Client) { c.apiVersion = v }
}

// WithTimeout bounds every request. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = &d }
}

// WithPanicHandler replaces the default handling of background panics, which
// logs the panic and re-raises it on a fresh goroutine.
func WithPanicHandler(h PanicHandler) Option {
	return func(c *Client) { c.onPanic = h }
}

// New creates a client for the given application. token may be empty, in
// which case one is acquired before the first method call.
func New(creds *Credentials, token string, opts ...Option) (*Client, error) {
	if creds == nil {
		return nil, ErrNoCredentials
	}
	if creds.AppID == "" || creds.AppSecret == "" {
		return nil, ErrInvalidCredentials
	}

	c := &Client{
		creds:      *creds,
		authURL:    AuthURL,
		apiURL:     APIURL,
		apiVersion: APIVersion,
		token:      token,
		events:     newEmitter(),
	}
	if !c.creds.Mode.valid() {
		c.creds.Mode = ModeOAuth
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger, _ = zap.NewProduction()
	}
	if c.httpClient == nil {
		timeout := httpclient.DefaultTimeout
		if c.timeout != nil {
			timeout = *c.timeout
		}
		c.httpClient = httpclient.NewClientWithTimeout(c.logger, timeout)
	}
	c.logger = c.logger.With(zap.String("app_id", c.creds.AppID))
	if c.onPanic == nil {
		c.onPanic = c.repanic
	}

	return c, nil
}

// Mode reports the normalised authorization mode.
func (c *Client) Mode() Mode {
	return c.creds.Mode
}

// SetToken replaces the stored access token. No event is emitted.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the stored access token, or "" when none is held.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// On registers l for events called name and returns the client.
func (c *Client) On(name EventName, l Listener) *Client {
	c.events.on(name, l)
	return c
}

// Wait blocks until every API and Init call started so far has delivered its
// outcome.
func (c *Client) Wait() {
	c.pending.Wait()
}

// async runs f on a goroutine Wait tracks. A panic in f is caught for this
// call only and handed to the panic handler, so it never resurfaces from a
// later Wait.
func (c *Client) async(f func()) {
	c.pending.Go(func() {
		var pc panics.Catcher
		pc.Try(f)
		if r := pc.Recovered(); r != nil {
			c.onPanic(r)
		}
	})
}

func (c *Client) repanic(r *panics.Recovered) {
	c.logger.Error("Panic in background call",
		zap.Any("panic", r.Value),
		zap.ByteString("stack", r.Stack))
	go panic(r.AsError())
}

// deliver is the single place an outcome leaves the client: listeners first,
// then the caller's callback.
func (c *Client) deliver(ev Event, cb func(Event)) {
	c.events.emit(ev)
	if cb != nil {
		cb(ev)
	}
}
