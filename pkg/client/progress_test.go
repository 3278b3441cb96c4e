package client

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProgress(t *testing.T) {
	var values []int

	p := newProgress(func(percent int) {
		values = append(values, percent)
	})

	for _, v := range []int{0, 0, 10, 5, 10, 50, 120, 100} {
		p.report(v)
	}

	require.Equal(t, []int{0, 10, 50, 100}, values)

	newProgress(nil).report(50)
}
