package client

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// uploader posts content to a presigned upload target.
type uploader interface {
	upload(ctx context.Context, client *http.Client, target *UploadDescriptor, content []byte, p *progress) error
}

// BodyStreamer is implemented by round trippers that report whether they
// consume request bodies incrementally.
type BodyStreamer interface {
	StreamsRequestBody() bool
}

func selectUploader(client *http.Client) uploader {
	if client == nil || streamsRequestBody(client.Transport) {
		return streamingUploader{}
	}

	return bufferedUploader{}
}

func streamsRequestBody(rt http.RoundTripper) bool {
	switch t := rt.(type) {
	case nil:
		return true

	case *http.Transport:
		return true

	case *otelhttp.Transport:
		return true

	case BodyStreamer:
		return t.StreamsRequestBody()
	}

	return false
}

// streamingUploader reports progress while the transport consumes the body.
type streamingUploader struct{}

func (streamingUploader) upload(ctx context.Context, client *http.Client, target *UploadDescriptor, content []byte, p *progress) error {
	prefix, suffix, contentType, err := multipartEnvelope(target.PostHeader)

	if err != nil {
		return err
	}

	size := int64(len(prefix) + len(content) + len(suffix))

	updates := make(chan int, 1)

	body := &progressReader{
		reader: io.MultiReader(bytes.NewReader(prefix), bytes.NewReader(content), bytes.NewReader(suffix)),

		total:   size,
		updates: updates,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.PostURL, body)

	if err != nil {
		return err
	}

	req.ContentLength = size
	req.Header.Set("Content-Type", contentType)

	type result struct {
		resp *http.Response
		err  error
	}

	done := make(chan result, 1)

	go func() {
		resp, err := client.Do(req)
		done <- result{resp, err}
	}()

	// the transport reads the body on its own goroutine; callbacks stay on ours
	for {
		select {
		case percent := <-updates:
			p.report(percent)

		case r := <-done:
			if r.err != nil {
				return r.err
			}

			return checkUpload(r.resp)
		}
	}
}

type progressReader struct {
	reader io.Reader

	read  int64
	total int64

	updates chan<- int
}

func (r *progressReader) Read(b []byte) (int, error) {
	n, err := r.reader.Read(b)

	if n > 0 {
		r.read += int64(n)

		// 100 is reported once the target has accepted the upload
		percent := min(int(r.read*100/r.total), 99)

		select {
		case r.updates <- percent:
		default:
		}
	}

	return n, err
}

// bufferedUploader sends the whole body at once without intermediate
// progress.
type bufferedUploader struct{}

func (bufferedUploader) upload(ctx context.Context, client *http.Client, target *UploadDescriptor, content []byte, p *progress) error {
	prefix, suffix, contentType, err := multipartEnvelope(target.PostHeader)

	if err != nil {
		return err
	}

	var body bytes.Buffer
	body.Grow(len(prefix) + len(content) + len(suffix))

	body.Write(prefix)
	body.Write(content)
	body.Write(suffix)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.PostURL, &body)

	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", contentType)

	resp, err := client.Do(req)

	if err != nil {
		return err
	}

	return checkUpload(resp)
}

// multipartEnvelope renders the form fields and the file part header
// (prefix) and the closing boundary (suffix) that surround the raw content.
func multipartEnvelope(fields map[string]string) ([]byte, []byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))

	for k := range fields {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, nil, "", err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", multipart.FileContentDisposition("file", uuid.NewString()))
	h.Set("Content-Type", "application/octet-stream")

	if _, err := w.CreatePart(h); err != nil {
		return nil, nil, "", err
	}

	prefix := bytes.Clone(buf.Bytes())
	buf.Reset()

	if err := w.Close(); err != nil {
		return nil, nil, "", err
	}

	suffix := bytes.Clone(buf.Bytes())

	return prefix, suffix, w.FormDataContentType(), nil
}

func checkUpload(resp *http.Response) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}

	data, _ := io.ReadAll(resp.Body)

	return &UploadError{
		StatusCode: resp.StatusCode,
		Status:     statusText(resp),

		Body: strings.TrimSpace(string(data)),
	}
}
