package client

import (
	"sort"
)

// Point is a position relative to the image size, both axes in [0,1].
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Quadrilateral struct {
	TopLeft     Point `json:"top_left"`
	TopRight    Point `json:"top_right"`
	BottomRight Point `json:"bottom_right"`
	BottomLeft  Point `json:"bottom_left"`
}

// NewQuadrilateral orders four corners given in any order: the two points
// with the smallest y form the top edge, and each edge is ordered by x.
func NewQuadrilateral(points [4]Point) Quadrilateral {
	p := points

	sort.Slice(p[:], func(i, j int) bool {
		if p[i].Y != p[j].Y {
			return p[i].Y < p[j].Y
		}

		return p[i].X < p[j].X
	})

	top := [2]Point{p[0], p[1]}
	bottom := [2]Point{p[2], p[3]}

	if top[1].X < top[0].X {
		top[0], top[1] = top[1], top[0]
	}

	if bottom[1].X < bottom[0].X {
		bottom[0], bottom[1] = bottom[1], bottom[0]
	}

	return Quadrilateral{
		TopLeft:     top[0],
		TopRight:    top[1],
		BottomRight: bottom[1],
		BottomLeft:  bottom[0],
	}
}

func (q Quadrilateral) Points() [4]Point {
	return [4]Point{q.TopLeft, q.TopRight, q.BottomRight, q.BottomLeft}
}

// Valid reports whether all corners are inside the unit square and the
// corners are ordered.
func (q Quadrilateral) Valid() bool {
	for _, p := range q.Points() {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			return false
		}
	}

	return q.TopLeft.X <= q.TopRight.X &&
		q.BottomLeft.X <= q.BottomRight.X &&
		q.TopLeft.Y <= q.BottomLeft.Y &&
		q.TopRight.Y <= q.BottomRight.Y
}

type DetectedDocument struct {
	Quadrilateral Quadrilateral `json:"quadrilateral"`
	Confidence    float64       `json:"confidence"`
}
