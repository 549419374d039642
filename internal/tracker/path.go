package tracker

import "image"

// Path is the append-only sequence of centroids reported during a session.
// The zero value is ready to use.
type Path struct {
	points []image.Point
}

// Append adds a centroid to the end of the path.
func (p *Path) Append(pt image.Point) {
	p.points = append(p.points, pt)
}

// Len returns the number of recorded centroids.
func (p *Path) Len() int {
	return len(p.points)
}

// Last returns the most recent centroid.
func (p *Path) Last() (image.Point, bool) {
	if len(p.points) == 0 {
		return image.Point{}, false
	}
	return p.points[len(p.points)-1], true
}

// Points returns a copy of the recorded centroids.
func (p *Path) Points() []image.Point {
	out := make([]image.Point, len(p.points))
	copy(out, p.points)
	return out
}
