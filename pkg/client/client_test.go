package client_test

import (
	"context"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/adrianliechti/paperflow/pkg/client"
	"github.com/adrianliechti/paperflow/server/mock"

	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T, options mock.Options, opts ...client.RequestOption) (*mock.Handler, *client.Client) {
	t.Helper()

	handler := mock.New(options)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return handler, client.New(server.URL, opts...)
}

func uploadPDF(t *testing.T, c *client.Client, content []byte) client.PDFHandle {
	t.Helper()

	handle, err := c.PDFs.Upload(context.Background(), content, "", nil)
	require.NoError(t, err)

	return handle
}

func uploadImage(t *testing.T, c *client.Client, content []byte) client.ImageHandle {
	t.Helper()

	handle, err := c.Images.Upload(context.Background(), content, nil)
	require.NoError(t, err)

	return handle
}

// recorder collects progress callbacks.
type recorder struct {
	values []int
}

func (r *recorder) report(percent int) {
	r.values = append(r.values, percent)
}

func (r *recorder) requireComplete(t *testing.T) {
	t.Helper()

	require.NotEmpty(t, r.values)
	require.Equal(t, 0, r.values[0])
	require.Equal(t, 100, r.values[len(r.values)-1])

	for i := 1; i < len(r.values); i++ {
		require.Greater(t, r.values[i], r.values[i-1])
	}
}

// requireIntermediate checks that progress was reported while the transfer
// was still running.
func (r *recorder) requireIntermediate(t *testing.T) {
	t.Helper()

	require.True(t, slices.ContainsFunc(r.values, func(v int) bool {
		return v > 0 && v < 100
	}), "no intermediate progress in %v", r.values)
}
