package config

import (
	"net/http"
	"net/url"
)

type proxyConfig struct {
	URL string `yaml:"url"`
}

// transport returns the base transport for service and storage requests,
// routed through the proxy if one is configured.
func (cfg *proxyConfig) transport() (*http.Transport, error) {
	tr := http.DefaultTransport.(*http.Transport).Clone()

	if cfg == nil || cfg.URL == "" {
		return tr, nil
	}

	proxyURL, err := url.Parse(cfg.URL)

	if err != nil {
		return nil, err
	}

	tr.Proxy = http.ProxyURL(proxyURL)

	return tr, nil
}
