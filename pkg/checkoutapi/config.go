package checkoutapi

import "time"

// Config represents the configuration for the checkout API client
type Config struct {
	// BaseURL is the checkout REST root, e.g. https://shop.example/rest/checkout
	BaseURL string

	// ContentBaseURL is the CMS REST root used for containers and categories
	ContentBaseURL string

	// APIToken is sent as a bearer token when set
	APIToken string

	// Timeout bounds each request; zero means 30s
	Timeout time.Duration
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrInvalidConfig
	}
	if c.ContentBaseURL == "" {
		return ErrInvalidConfig
	}
	return nil
}
