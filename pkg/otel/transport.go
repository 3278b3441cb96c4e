package otel

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewTransport wraps base with client spans and HTTP metrics. A nil base
// uses http.DefaultTransport.
func NewTransport(base http.RoundTripper) *otelhttp.Transport {
	if base == nil {
		base = http.DefaultTransport
	}

	return otelhttp.NewTransport(base)
}
