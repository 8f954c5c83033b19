package extract

import "net/http"

type config struct {
	model       string
	temperature float64
	baseURL     string
	httpClient  *http.Client
}

// Option configures an extractor.
type Option func(*config)

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(c *config) { c.model = model }
}

// WithTemperature sets the sampling temperature. The default is 0.3.
func WithTemperature(t float64) Option {
	return func(c *config) { c.temperature = t }
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) { c.httpClient = client }
}

func newConfig(model string, opts []Option) config {
	cfg := config{
		model:       model,
		temperature: 0.3,
		httpClient:  http.DefaultClient,
	}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}
