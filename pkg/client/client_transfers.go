package client

import (
	"context"
	"errors"
	"io"
	"net/http"
)

type TransferService struct {
	Options []RequestOption

	uploader uploader
}

func NewTransferService(opts ...RequestOption) *TransferService {
	c := newRequestConfig(opts...)

	return &TransferService{
		Options: opts,

		uploader: selectUploader(c.Client),
	}
}

type uploadRequest struct {
	Size int `json:"size"`
}

// Upload requests a one-time upload target sized for content and posts
// content to it. The returned descriptor carries the unvalidated handle.
func (r *TransferService) Upload(ctx context.Context, content []byte, onProgress ProgressFunc) (*UploadDescriptor, error) {
	c := newRequestConfig(r.Options...)

	var target UploadDescriptor

	if err := call(ctx, c, "/data/upload", uploadRequest{Size: len(content)}, &target); err != nil {
		return nil, err
	}

	if target.PostURL == "" {
		return nil, errors.New("missing upload url")
	}

	p := newProgress(onProgress)
	p.report(0)

	if err := r.uploader.upload(ctx, c.Client, &target, content, p); err != nil {
		return nil, err
	}

	p.report(100)

	c.Logger.DebugContext(ctx, "content uploaded", "handle", target.Handle, "size", len(content))

	return &target, nil
}

// Download fetches url with the given headers. Progress is reported per
// chunk when the response carries a content length.
func (r *TransferService) Download(ctx context.Context, url string, headers map[string]string, onProgress ProgressFunc) ([]byte, error) {
	c := newRequestConfig(r.Options...)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)

	if err != nil {
		return nil, err
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	p := newProgress(onProgress)
	p.report(0)

	resp, err := c.Client.Do(req)

	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &DownloadError{
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
		}
	}

	var data []byte

	if total := resp.ContentLength; total > 0 {
		data, err = readWithProgress(resp.Body, total, p)
	} else {
		data, err = io.ReadAll(resp.Body)
	}

	if err != nil {
		return nil, err
	}

	p.report(100)

	return data, nil
}

func readWithProgress(r io.Reader, total int64, p *progress) ([]byte, error) {
	// the advertised length only sizes the first allocation
	data := make([]byte, 0, min(total, 1<<20))
	buf := make([]byte, 32*1024)

	for {
		n, err := r.Read(buf)

		if n > 0 {
			data = append(data, buf[:n]...)
			p.report(int(int64(len(data)) * 100 / total))
		}

		if err == io.EOF {
			return data, nil
		}

		if err != nil {
			return nil, err
		}
	}
}

// progress forwards strictly increasing percentages in [0,100] to fn.
type progress struct {
	fn   ProgressFunc
	last int
}

func newProgress(fn ProgressFunc) *progress {
	return &progress{
		fn:   fn,
		last: -1,
	}
}

func (p *progress) report(percent int) {
	percent = min(max(percent, 0), 100)

	if p.fn == nil || percent <= p.last {
		return
	}

	p.last = percent
	p.fn(percent)
}
