package client

import (
	"log/slog"
	"net/http"
)

// DefaultMaxAttempts bounds how many pending responses a single job may
// return before polling gives up. The service holds every poll open for a
// bounded interval, so this caps total wall-clock wait as well.
const DefaultMaxAttempts = 120

type RequestConfig struct {
	URL   string
	Token string

	Client *http.Client
	Logger *slog.Logger

	MaxAttempts int
}

type RequestOption func(*RequestConfig)

func WithURL(url string) RequestOption {
	return func(c *RequestConfig) {
		c.URL = url
	}
}

func WithToken(token string) RequestOption {
	return func(c *RequestConfig) {
		c.Token = token
	}
}

func WithClient(client *http.Client) RequestOption {
	return func(c *RequestConfig) {
		c.Client = client
	}
}

func WithLogger(logger *slog.Logger) RequestOption {
	return func(c *RequestConfig) {
		c.Logger = logger
	}
}

// WithMaxAttempts overrides the poll ceiling. Values below one are ignored.
func WithMaxAttempts(n int) RequestOption {
	return func(c *RequestConfig) {
		if n > 0 {
			c.MaxAttempts = n
		}
	}
}
