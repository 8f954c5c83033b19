package realtime

import "net/http"

// DefaultHTTPURL is the Realtime API endpoint used for session creation and
// the SDP exchange.
const DefaultHTTPURL = "https://api.openai.com/v1/realtime"

// Client mints ephemeral Realtime sessions with an account API key.
type Client struct {
	config *clientConfig
}

type clientConfig struct {
	apiKey       string
	organization string
	project      string
	httpURL      string
	httpClient   *http.Client
}

// Option configures the Client.
type Option func(*clientConfig)

// NewClient creates a new Realtime client.
//
// The apiKey is required and can be obtained from:
// https://platform.openai.com/api-keys
func NewClient(apiKey string, opts ...Option) *Client {
	if apiKey == "" {
		panic("realtime: API key is required")
	}

	cfg := &clientConfig{
		apiKey:     apiKey,
		httpURL:    DefaultHTTPURL,
		httpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &Client{config: cfg}
}

// WithOrganization sets the organization ID for API requests.
func WithOrganization(orgID string) Option {
	return func(c *clientConfig) {
		c.organization = orgID
	}
}

// WithProject sets the project ID for API requests.
func WithProject(projectID string) Option {
	return func(c *clientConfig) {
		c.project = projectID
	}
}

// WithHTTPURL sets the Realtime HTTP endpoint.
func WithHTTPURL(url string) Option {
	return func(c *clientConfig) {
		c.httpURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}
