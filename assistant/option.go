// Copyright (c) Graphwise. All rights reserved.

package assistant

import (
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

// clientConfig holds resolved configuration for the assistant client.
type clientConfig struct {
	baseURL         string
	apiVersion      string
	httpClient      *http.Client
	headers         map[string]string
	azureCredential azcore.TokenCredential
}

// Option configures a [Client].
type Option func(*clientConfig)

// WithBaseURL overrides the API base URL (e.g., for Azure OpenAI or proxies).
func WithBaseURL(url string) Option {
	return func(c *clientConfig) { c.baseURL = url }
}

// WithAPIVersion sets the api-version query parameter required by Azure
// OpenAI deployments.
func WithAPIVersion(version string) Option {
	return func(c *clientConfig) { c.apiVersion = version }
}

// WithHTTPClient provides a custom http.Client for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) { c.httpClient = client }
}

// WithHeaders adds custom headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *clientConfig) { c.headers = headers }
}

// WithAzureCredential enables Azure AD token authentication using the provided
// credential. When set, the client obtains and refreshes tokens automatically
// instead of using API keys.
func WithAzureCredential(cred azcore.TokenCredential) Option {
	return func(c *clientConfig) { c.azureCredential = cred }
}
