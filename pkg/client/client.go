package client

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

type Client struct {
	Jobs      *JobService
	Transfers *TransferService

	Images *ImageService
	PDFs   *PDFService

	HTML   *HTMLService
	Emails *EmailService

	Files *FileService
}

func New(url string, opts ...RequestOption) *Client {
	opts = append(opts, WithURL(url))

	jobs := NewJobService(opts...)
	transfers := NewTransferService(opts...)

	return &Client{
		Jobs:      jobs,
		Transfers: transfers,

		Images: NewImageService(jobs, transfers),
		PDFs:   NewPDFService(jobs, transfers),

		HTML:   NewHTMLService(jobs, transfers),
		Emails: NewEmailService(jobs, transfers),

		Files: NewFileService(jobs, transfers),
	}
}

func newRequestConfig(opts ...RequestOption) *RequestConfig {
	c := &RequestConfig{
		Client: http.DefaultClient,
		Logger: slog.Default(),

		MaxAttempts: DefaultMaxAttempts,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.URL = strings.TrimRight(c.URL, "/")

	return c
}

func newRequest(ctx context.Context, c *RequestConfig, method, path string, input any) (*http.Request, error) {
	var body bytes.Buffer

	if input != nil {
		if err := json.NewEncoder(&body).Encode(input); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL+path, &body)

	if err != nil {
		return nil, err
	}

	if input != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	req.Header.Set("Accept", "application/json")

	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	return req, nil
}

// call performs a synchronous JSON request against the service and decodes
// a 2xx response into output.
func call(ctx context.Context, c *RequestConfig, path string, input, output any) error {
	req, err := newRequest(ctx, c, http.MethodPost, path, input)

	if err != nil {
		return err
	}

	resp, err := c.Client.Do(req)

	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return convertError(resp)
	}

	if output == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(output)
}

func Ptr[T any](v T) *T {
	return &v
}
