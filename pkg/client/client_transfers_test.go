package client_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/adrianliechti/paperflow/pkg/client"
	"github.com/adrianliechti/paperflow/server/mock"

	"github.com/stretchr/testify/require"
)

// opaqueTransport hides the concrete transport type from the client.
type opaqueTransport struct {
	base http.RoundTripper
}

func (t *opaqueTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req)
}

// streamingTransport additionally reports that it streams request bodies.
type streamingTransport struct {
	opaqueTransport
}

func (t *streamingTransport) StreamsRequestBody() bool {
	return true
}

func TestUpload(t *testing.T) {
	ctx := context.Background()

	content := bytes.Repeat([]byte("x"), 4<<20)

	t.Run("streaming transport", func(t *testing.T) {
		_, c := newMock(t, mock.Options{})

		var progress recorder

		upload, err := c.Transfers.Upload(ctx, content, progress.report)
		require.NoError(t, err)

		require.NotEmpty(t, upload.Handle)
		progress.requireComplete(t)
		progress.requireIntermediate(t)
	})

	t.Run("body streamer", func(t *testing.T) {
		transport := &streamingTransport{opaqueTransport{base: http.DefaultTransport}}

		_, c := newMock(t, mock.Options{}, client.WithClient(&http.Client{Transport: transport}))

		var progress recorder

		_, err := c.Transfers.Upload(ctx, content, progress.report)
		require.NoError(t, err)

		progress.requireComplete(t)
		progress.requireIntermediate(t)
	})

	t.Run("buffered transport", func(t *testing.T) {
		transport := &opaqueTransport{base: http.DefaultTransport}

		_, c := newMock(t, mock.Options{}, client.WithClient(&http.Client{Transport: transport}))

		var progress recorder

		_, err := c.Transfers.Upload(ctx, content, progress.report)
		require.NoError(t, err)

		require.Equal(t, []int{0, 100}, progress.values)
	})

	t.Run("uploaded content is validated", func(t *testing.T) {
		_, c := newMock(t, mock.Options{})

		upload, err := c.Transfers.Upload(ctx, []byte("not a document"), nil)
		require.NoError(t, err)

		result, err := c.PDFs.Validate(ctx, upload.Handle, "")
		require.NoError(t, err)

		_, err = client.Unwrap(result)

		var invalid *client.ValidationError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("rejected upload", func(t *testing.T) {
		var server *httptest.Server

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/data/upload":
				json.NewEncoder(w).Encode(client.UploadDescriptor{
					PostURL:    server.URL + "/bucket",
					PostHeader: map[string]string{"key": "k"},
					Handle:     "unvalidated_1",
				})

			case "/bucket":
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte("policy expired"))
			}
		}))

		t.Cleanup(server.Close)

		c := client.New(server.URL)

		_, err := c.Transfers.Upload(ctx, []byte("data"), nil)

		var uploadErr *client.UploadError
		require.ErrorAs(t, err, &uploadErr)

		require.Equal(t, http.StatusForbidden, uploadErr.StatusCode)
		require.Equal(t, "policy expired", uploadErr.Body)
	})
}

func TestDownload(t *testing.T) {
	ctx := context.Background()

	pages := []mock.Page{
		{Source: "page-1"},
		{Source: "page-2", Rotation: 180},
	}

	for _, chunked := range []bool{false, true} {
		name := "content length"

		if chunked {
			name = "chunked"
		}

		t.Run(name, func(t *testing.T) {
			_, c := newMock(t, mock.Options{ChunkedDownloads: chunked})

			handle := uploadPDF(t, c, mock.PDF(pages...))

			var progress recorder

			data, err := c.PDFs.Download(ctx, handle, progress.report)
			require.NoError(t, err)

			progress.requireComplete(t)

			asset, err := mock.Decode(data)
			require.NoError(t, err)

			require.Equal(t, mock.KindPDF, asset.Kind)
			require.Equal(t, pages, asset.Pages)
		})
	}

	t.Run("forwards headers", func(t *testing.T) {
		h, c := newMock(t, mock.Options{})

		handle := uploadPDF(t, c, mock.PDF(mock.Page{}))

		server := httptest.NewServer(h)
		t.Cleanup(server.Close)

		body, _ := json.Marshal(map[string]any{"pdf_handle": handle})

		resp, err := http.Post(server.URL+"/pdf/download", "application/json", bytes.NewReader(body))
		require.NoError(t, err)

		defer resp.Body.Close()

		var target client.DownloadDescriptor
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&target))
		require.NotEmpty(t, target.Headers)

		_, err = c.Transfers.Download(ctx, target.URL, nil, nil)

		var downloadErr *client.DownloadError
		require.ErrorAs(t, err, &downloadErr)
		require.Equal(t, http.StatusForbidden, downloadErr.StatusCode)

		data, err := c.Transfers.Download(ctx, target.URL, target.Headers, nil)
		require.NoError(t, err)
		require.NotEmpty(t, data)
	})

	t.Run("oversized content length", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Length", strconv.FormatInt(1<<50, 10))
			w.WriteHeader(http.StatusOK)

			w.Write([]byte("abc"))
		}))

		t.Cleanup(server.Close)

		c := client.New(server.URL)

		var progress recorder

		require.NotPanics(t, func() {
			_, err := c.Transfers.Download(ctx, server.URL+"/object", nil, progress.report)
			require.Error(t, err)
		})

		require.NotContains(t, progress.values, 100)
	})
}
