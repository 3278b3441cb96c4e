package client_test

import (
	"testing"

	"github.com/adrianliechti/paperflow/pkg/client"

	"github.com/stretchr/testify/require"
)

func permutations(points [4]client.Point) [][4]client.Point {
	var result [][4]client.Point

	var permute func(p [4]client.Point, k int)

	permute = func(p [4]client.Point, k int) {
		if k == len(p) {
			result = append(result, p)
			return
		}

		for i := k; i < len(p); i++ {
			p[k], p[i] = p[i], p[k]
			permute(p, k+1)
			p[k], p[i] = p[i], p[k]
		}
	}

	permute(points, 0)

	return result
}

func TestNewQuadrilateral(t *testing.T) {
	tests := []struct {
		name   string
		expect client.Quadrilateral
	}{
		{
			name: "axis aligned",
			expect: client.Quadrilateral{
				TopLeft:     client.Point{X: 0.1, Y: 0.1},
				TopRight:    client.Point{X: 0.9, Y: 0.1},
				BottomRight: client.Point{X: 0.9, Y: 0.8},
				BottomLeft:  client.Point{X: 0.1, Y: 0.8},
			},
		},
		{
			name: "skewed",
			expect: client.Quadrilateral{
				TopLeft:     client.Point{X: 0.2, Y: 0.1},
				TopRight:    client.Point{X: 0.7, Y: 0.15},
				BottomRight: client.Point{X: 0.8, Y: 0.9},
				BottomLeft:  client.Point{X: 0.1, Y: 0.85},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			all := permutations(tt.expect.Points())
			require.Len(t, all, 24)

			for _, points := range all {
				q := client.NewQuadrilateral(points)

				require.Equal(t, tt.expect, q)
				require.True(t, q.Valid())
			}
		})
	}
}

func TestQuadrilateralValid(t *testing.T) {
	require.False(t, client.Quadrilateral{
		TopLeft:     client.Point{X: 0.9, Y: 0.1},
		TopRight:    client.Point{X: 0.1, Y: 0.1},
		BottomRight: client.Point{X: 0.9, Y: 0.8},
		BottomLeft:  client.Point{X: 0.1, Y: 0.8},
	}.Valid())

	require.False(t, client.Quadrilateral{
		TopLeft:     client.Point{X: -0.1, Y: 0},
		TopRight:    client.Point{X: 1, Y: 0},
		BottomRight: client.Point{X: 1, Y: 1},
		BottomLeft:  client.Point{X: 0, Y: 1},
	}.Valid())
}
