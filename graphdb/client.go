// Copyright (c) Graphwise. All rights reserved.

// Package graphdb provides a [ttyg.ToolClient] implementation that executes
// TTYG query methods over the GraphDB REST API.
//
// Tool calls are plain-text round trips: the JSON-encoded arguments go out as
// the request body and the query result comes back as text. GraphDB is the
// authority on which tools exist, so unknown names are forwarded unchanged.
package graphdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/graphwise/ttyg-client/ttyg"
)

const contentTypeText = "text/plain;charset=UTF-8"

// Client executes TTYG query methods against a GraphDB installation.
// Use [New] to create one.
type Client struct {
	baseURL    string
	username   string
	password   string
	authHeader string
	httpClient *http.Client
	timeout    time.Duration
}

// Verify interface compliance at compile time.
var _ ttyg.ToolClient = (*Client)(nil)

// Option configures a [Client].
type Option func(*Client)

// WithBasicAuth sets username/password authentication.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithAuthHeader sets a verbatim Authorization header value, overriding basic
// auth. Used for token or custom gateway schemes.
func WithAuthHeader(value string) Option {
	return func(c *Client) { c.authHeader = value }
}

// WithHTTPClient provides a custom http.Client for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.httpClient = client }
}

// WithTimeout sets the per-request timeout, regardless of option order.
// Ignored when a custom http.Client is supplied; set its Timeout instead.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

const defaultTimeout = 60 * time.Second

// New creates a GraphDB [Client] for the installation at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		timeout := c.timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		c.httpClient = &http.Client{Timeout: timeout}
	}
	return c
}

// Execute runs one TTYG query method and returns its raw textual result.
// Backend query errors arrive as non-200 statuses and are returned as errors;
// the dispatcher converts them to data before they reach the assistant.
func (c *Client) Execute(ctx context.Context, assistantID, toolName, arguments string) (string, error) {
	url := fmt.Sprintf("%s/rest/ttyg/agents/%s/%s", c.baseURL, assistantID, toolName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(arguments))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentTypeText)
	req.Header.Set("Accept", contentTypeText)

	if c.authHeader != "" {
		req.Header.Set("Authorization", c.authHeader)
	} else if c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ttyg.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read tool response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &ttyg.ServiceError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}
	return string(body), nil
}
