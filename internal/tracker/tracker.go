// Package tracker implements single-object color tracking: a calibrated HSV
// window is thresholded into a binary mask, the mask is dilated, external
// regions are extracted, and the largest one is reported with its bounding
// box and centroid.
//
// A Tracker keeps no per-frame state. Every call to Track returns a fresh
// Result; accumulating history is up to the caller (see Path).
package tracker

import (
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/pkg/errors"

	"github.com/shadow1runner/ColorBasedTracking/internal/colorspace"
)

const (
	// DefaultMinArea is the smallest region area accepted as a detection.
	DefaultMinArea = 0.1
	// DefaultKernelSize is the side of the square dilation element.
	DefaultKernelSize = 3
)

// CentroidMode selects how the reported centroid is derived.
type CentroidMode int

const (
	// CentroidBox uses the center of the bounding box.
	CentroidBox CentroidMode = iota
	// CentroidMoments uses the area-weighted centroid of the region polygon.
	CentroidMoments
)

func (m CentroidMode) String() string {
	switch m {
	case CentroidBox:
		return "box"
	case CentroidMoments:
		return "moments"
	default:
		return fmt.Sprintf("CentroidMode(%d)", int(m))
	}
}

// ParseCentroidMode maps a configuration string to a CentroidMode.
func ParseCentroidMode(s string) (CentroidMode, error) {
	switch s {
	case "", "box":
		return CentroidBox, nil
	case "moments":
		return CentroidMoments, nil
	default:
		return CentroidBox, errors.Errorf("unknown centroid mode %q", s)
	}
}

// Target is the region selected in one frame.
type Target struct {
	// Index of the region in Result.Regions.
	Index    int
	Region   Region
	Area     float64
	Bounds   image.Rectangle
	Centroid image.Point
}

// Result holds everything computed for one frame. Mask, Dilated and Regions
// are always set; Target is nil when no region qualified.
type Result struct {
	Mask    *image.Gray
	Dilated *image.Gray
	Regions []Region
	Target  *Target
}

// Found reports whether the frame produced a target.
func (r Result) Found() bool {
	return r.Target != nil
}

// Tracker runs the per-frame tracking pipeline.
type Tracker struct {
	minArea    float64
	kernelSize int
	centroid   CentroidMode
	logger     *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithMinArea sets the minimal accepted region area.
func WithMinArea(area float64) Option {
	return func(t *Tracker) { t.minArea = area }
}

// WithKernelSize sets the dilation element size. Even sizes are rounded up.
func WithKernelSize(size int) Option {
	return func(t *Tracker) {
		if size < 1 {
			size = 1
		}
		if size%2 == 0 {
			size++
		}
		t.kernelSize = size
	}
}

// WithCentroidMode selects the centroid computation.
func WithCentroidMode(mode CentroidMode) Option {
	return func(t *Tracker) { t.centroid = mode }
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New creates a Tracker with default settings overridden by opts.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		minArea:    DefaultMinArea,
		kernelSize: DefaultKernelSize,
		centroid:   CentroidBox,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Track finds the largest region of frame inside window.
//
// When no region reaches the minimal area the returned Result still carries the
// masks and regions, Target is nil and the error is ErrNoRegionFound.
func (t *Tracker) Track(frame *colorspace.Image, window ColorWindow) (Result, error) {
	if frame == nil {
		return Result{}, ErrEmptyFrame
	}

	mask := Threshold(frame, window)
	dilated := Dilate(mask, t.kernelSize)
	regions := FindRegions(dilated)

	res := Result{
		Mask:    mask,
		Dilated: dilated,
		Regions: regions,
	}

	index, area := largestRegion(regions)
	if index < 0 || area < t.minArea {
		t.logger.Debug("no region", "regions", len(regions), "max_area", area)
		return res, errors.Wrapf(ErrNoRegionFound, "%d regions, max area %.1f", len(regions), area)
	}

	region := regions[index]
	bounds := region.Bounds()
	res.Target = &Target{
		Index:    index,
		Region:   region,
		Area:     area,
		Bounds:   bounds,
		Centroid: t.centroidOf(region, bounds),
	}
	t.logger.Debug("region selected", "index", index, "area", area, "bounds", bounds)
	return res, nil
}

// largestRegion returns the index and area of the first region with the
// greatest area, or -1 when no region has positive area.
func largestRegion(regions []Region) (int, float64) {
	index := -1
	maxArea := 0.0
	for i, r := range regions {
		if area := r.Area(); area > maxArea {
			maxArea = area
			index = i
		}
	}
	return index, maxArea
}

func (t *Tracker) centroidOf(region Region, bounds image.Rectangle) image.Point {
	if t.centroid == CentroidMoments {
		if c, ok := momentCentroid(region); ok {
			return c
		}
	}
	return BoxCentroid(bounds)
}

// BoxCentroid returns the center of r using truncating integer division.
func BoxCentroid(r image.Rectangle) image.Point {
	return image.Point{
		X: r.Min.X + r.Dx()/2,
		Y: r.Min.Y + r.Dy()/2,
	}
}

// momentCentroid returns the polygon centroid of the region boundary.
func momentCentroid(region Region) (image.Point, bool) {
	pts := region.Points
	n := len(pts)
	if n < 3 {
		return image.Point{}, false
	}
	var a, cx, cy float64
	for i := 0; i < n; i++ {
		p, q := pts[i], pts[(i+1)%n]
		cross := float64(p.X*q.Y - q.X*p.Y)
		a += cross
		cx += float64(p.X+q.X) * cross
		cy += float64(p.Y+q.Y) * cross
	}
	if a == 0 {
		return image.Point{}, false
	}
	a /= 2
	return image.Point{
		X: int(math.Round(cx / (6 * a))),
		Y: int(math.Round(cy / (6 * a))),
	}, true
}
