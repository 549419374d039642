package tracker

import (
	"image"

	"github.com/pkg/errors"

	"github.com/shadow1runner/ColorBasedTracking/internal/colorspace"
)

// Calibrator samples the reference color for a ColorWindow.
type Calibrator struct {
	// SampleRadius is the half-size of the averaged neighborhood. Zero samples
	// the single pixel at the calibration point.
	SampleRadius int
}

// Calibrate returns the color at pt, averaged over the sample neighborhood
// clipped to the frame.
func (c Calibrator) Calibrate(frame *colorspace.Image, pt image.Point) (Scalar, error) {
	if frame == nil {
		return Scalar{}, ErrEmptyFrame
	}
	bounds := frame.Bounds()
	if !pt.In(bounds) {
		return Scalar{}, errors.Wrapf(ErrOutOfRange, "point %v outside %v", pt, bounds)
	}

	r := c.SampleRadius
	if r < 0 {
		r = 0
	}
	window := image.Rect(pt.X-r, pt.Y-r, pt.X+r+1, pt.Y+r+1).Intersect(bounds)

	var sum Scalar
	n := 0
	for y := window.Min.Y; y < window.Max.Y; y++ {
		for x := window.Min.X; x < window.Max.X; x++ {
			px := frame.HSVAAt(x, y).Channels()
			for ch := range sum {
				sum[ch] += float64(px[ch])
			}
			n++
		}
	}

	var mean Scalar
	for ch := range sum {
		mean[ch] = sum[ch] / float64(n)
	}
	return mean, nil
}
