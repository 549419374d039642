package tracker

import "fmt"

// Scalar is a 4-channel value in H, S, V, A order.
type Scalar [4]float64

// DefaultRadius is the per-channel tolerance used when none is configured.
// The alpha channel has no tolerance; its bounds are fixed to the full range.
var DefaultRadius = Scalar{25, 25, 25, 0}

const alphaChannel = 3

// ColorWindow is a reference color plus a per-channel radius. The derived
// bounds are inclusive and recomputed whenever the reference or radius change.
type ColorWindow struct {
	reference Scalar
	radius    Scalar
	lower     Scalar
	upper     Scalar
}

// NewColorWindow builds a window around reference.
func NewColorWindow(reference, radius Scalar) ColorWindow {
	w := ColorWindow{reference: reference, radius: radius}
	w.initializeBounds()
	return w
}

func (w *ColorWindow) initializeBounds() {
	for c := 0; c < alphaChannel; c++ {
		w.lower[c] = w.reference[c] - w.radius[c]
		w.upper[c] = w.reference[c] + w.radius[c]
	}
	w.lower[alphaChannel] = 0
	w.upper[alphaChannel] = 255
}

// WithReference returns a copy of the window centered on a new reference color.
func (w ColorWindow) WithReference(reference Scalar) ColorWindow {
	return NewColorWindow(reference, w.radius)
}

// WithRadius returns a copy of the window with a new tolerance.
func (w ColorWindow) WithRadius(radius Scalar) ColorWindow {
	return NewColorWindow(w.reference, radius)
}

// Reference returns the color the window is centered on.
func (w ColorWindow) Reference() Scalar { return w.reference }

// Radius returns the per-channel tolerance.
func (w ColorWindow) Radius() Scalar { return w.radius }

// Lower returns the inclusive lower bound per channel.
func (w ColorWindow) Lower() Scalar { return w.lower }

// Upper returns the inclusive upper bound per channel.
func (w ColorWindow) Upper() Scalar { return w.upper }

// Contains reports whether every channel of px lies within the bounds.
func (w ColorWindow) Contains(px [4]uint8) bool {
	for c := 0; c < 4; c++ {
		v := float64(px[c])
		if v < w.lower[c] || v > w.upper[c] {
			return false
		}
	}
	return true
}

func (w ColorWindow) String() string {
	return fmt.Sprintf("ref=%v lower=%v upper=%v", w.reference, w.lower, w.upper)
}
