// Package api implements the client for the Elec-Mate agent router, including
// the streaming response coordinator that feeds the chat UI.
package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"

	"github.com/elec-mate/elecmate/internal/browser"
	"github.com/elec-mate/elecmate/internal/config"
	"github.com/elec-mate/elecmate/internal/models"
)

// requestTimeout is the hard ceiling on one exchange. The watchdog aborts
// the stream at the same deadline, so a hung router never wedges the UI.
const requestTimeout = 5 * time.Minute

// Client is the main client for the Elec-Mate agent router
type Client struct {
	httpClient tls_client.HttpClient
	endpoint   string

	// Browser-based session recovery
	browserLogin bool
	browserType  browser.SupportedBrowser

	mu          sync.RWMutex
	session     *config.Session
	agents      []string
	hardTimeout time.Duration
	closed      bool
}

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithEndpoint overrides the router endpoint (used for self-hosted backends)
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithSession attaches an already-loaded session instead of reading it
// from disk during Init
func WithSession(session *config.Session) ClientOption {
	return func(c *Client) {
		c.session = session
	}
}

// WithAgents sets the default agent selection for new sessions
func WithAgents(agents []string) ClientOption {
	return func(c *Client) {
		c.agents = agents
	}
}

// WithBrowserLogin enables session extraction from an installed browser
// when no session file exists.
// browserType can be "auto", "chrome", "firefox", "edge", "chromium", "opera"
func WithBrowserLogin(browserType browser.SupportedBrowser) ClientOption {
	return func(c *Client) {
		c.browserLogin = true
		c.browserType = browserType
	}
}

// WithTimeout overrides the 5 minute exchange ceiling. Intended for tests;
// production callers should live with the default.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.hardTimeout = d
		}
	}
}

// NewClient creates a new router client
func NewClient(opts ...ClientOption) (*Client, error) {
	client := &Client{
		endpoint:    models.EndpointRouter,
		hardTimeout: requestTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	// The web app fronts the router with the same anti-bot stack as the
	// site itself, so requests go out with a browser TLS profile. The
	// transport deadline sits above the watchdog's hard deadline so a
	// timed-out exchange is always aborted (and classified) by the
	// watchdog, never by the transport.
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(int(client.hardTimeout/time.Second) + 30),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithNotFollowRedirects(),
	}

	httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	client.httpClient = httpClient

	return client, nil
}

// Init loads the stored session. A missing session is not an error: the
// router accepts unauthenticated calls with reduced quota, so the client
// simply sends no auth headers in that case.
func (c *Client) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("client is closed")
	}

	if c.session != nil {
		return nil
	}

	session, err := config.LoadSession()
	if err == nil {
		c.session = session
		return nil
	}

	if !c.browserLogin {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	result, err := browser.ExtractSession(ctx, c.browserType)
	if err != nil {
		// Stay unauthenticated rather than failing the whole command
		return nil
	}

	c.session = result.Session
	if err := config.SaveSession(c.session); err != nil {
		fmt.Printf("Warning: failed to save session to disk: %v\n", err)
	}
	return nil
}

// Close shuts down the client
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// IsClosed returns whether the client is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Endpoint returns the router endpoint
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Session returns the current session, or nil when unauthenticated
func (c *Client) Session() *config.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// SetSession replaces the current session
func (c *Client) SetSession(session *config.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = session
}

// DefaultAgents returns the default agent selection
func (c *Client) DefaultAgents() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.agents...)
}

// StartSession creates a new design session
func (c *Client) StartSession(design *models.Design) *DesignSession {
	return &DesignSession{
		client: c,
		design: design,
		agents: c.DefaultAgents(),
	}
}
