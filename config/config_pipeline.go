package config

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/adrianliechti/paperflow/pkg/client"
	"github.com/adrianliechti/paperflow/pkg/limiter"
	"github.com/adrianliechti/paperflow/pkg/otel"
	"github.com/adrianliechti/paperflow/pkg/pipeline"
)

// Client creates a service client. Requests are traced when telemetry is
// enabled.
func (cfg *Config) Client(logger *slog.Logger) (*client.Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("missing service url")
	}

	tr, err := cfg.Proxy.transport()

	if err != nil {
		return nil, err
	}

	var transport http.RoundTripper = tr

	if otel.EnableTelemetry {
		transport = otel.NewTransport(tr)
	}

	options := []client.RequestOption{
		client.WithClient(&http.Client{
			Transport: transport,
		}),
	}

	if cfg.Token != "" {
		options = append(options, client.WithToken(cfg.Token))
	}

	if cfg.MaxAttempts > 0 {
		options = append(options, client.WithMaxAttempts(cfg.MaxAttempts))
	}

	if logger != nil {
		options = append(options, client.WithLogger(logger))
	}

	return client.New(cfg.URL, options...), nil
}

// Pipeline creates a pipeline on top of c with rate limiting and tracing
// applied to the image and PDF operations.
func (cfg *Config) Pipeline(c *client.Client, options ...pipeline.Option) *pipeline.Pipeline {
	var transfers pipeline.Transfers = c.Transfers

	var images pipeline.Images = c.Images
	var pdfs pipeline.PDFs = c.PDFs

	if cfg.Limiter != nil {
		images = limiter.NewImages(cfg.Limiter, images)
		pdfs = limiter.NewPDFs(cfg.Limiter, pdfs)
	}

	if otel.EnableTelemetry {
		transfers = otel.NewTransfers(transfers)

		images = otel.NewImages(images)
		pdfs = otel.NewPDFs(pdfs)
	}

	if cfg.Concurrency > 0 {
		options = append([]pipeline.Option{pipeline.WithConcurrency(cfg.Concurrency)}, options...)
	}

	return pipeline.New(transfers, images, pdfs, options...)
}

func (cfg *Config) ImageOptions() pipeline.ImageOptions {
	return pipeline.ImageOptions{
		DetectDocuments: cfg.DetectDocuments,

		Convert: client.ConvertOptions{
			PageSize: cfg.PageSize,
		},

		OCR: client.OCROptions{
			Languages: cfg.Languages,
		},
	}
}

func (cfg *Config) PDFOptions() pipeline.PDFOptions {
	return pipeline.PDFOptions{
		OCR: client.OCROptions{
			Languages: cfg.Languages,
		},
	}
}
