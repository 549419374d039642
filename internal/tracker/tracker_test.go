package tracker

import (
	"image"
	"testing"

	"github.com/pkg/errors"

	"github.com/shadow1runner/ColorBasedTracking/internal/colorspace"
)

var gray50 = colorspace.HSVA{H: 50, S: 50, V: 50, A: 255}

func TestTrackSingleBlock(t *testing.T) {
	frame := newFrame(100, 100)
	block := image.Rect(20, 20, 30, 30)
	fillRect(frame, block, gray50)

	res, err := New().Track(frame, NewColorWindow(Scalar{50, 50, 50, 0}, DefaultRadius))
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}

	if !samePixels(onPixels(res.Mask), rectPixels(block)) {
		t.Error("Mask should cover exactly the block")
	}
	if !samePixels(onPixels(res.Dilated), rectPixels(image.Rect(19, 19, 31, 31))) {
		t.Error("Dilated mask should be the block grown by one pixel ring")
	}
	if !res.Found() {
		t.Fatal("Expected a target")
	}

	expectedBounds := image.Rect(19, 19, 31, 31)
	if res.Target.Bounds != expectedBounds {
		t.Errorf("Expected bounds %v, got %v", expectedBounds, res.Target.Bounds)
	}
	if res.Target.Bounds.Dx() != 12 || res.Target.Bounds.Dy() != 12 {
		t.Errorf("Expected 12x12 box, got %dx%d", res.Target.Bounds.Dx(), res.Target.Bounds.Dy())
	}
	if res.Target.Centroid != image.Pt(25, 25) {
		t.Errorf("Expected centroid (25,25), got %v", res.Target.Centroid)
	}
	if res.Target.Area != 121 {
		t.Errorf("Expected area 121, got %v", res.Target.Area)
	}
	if len(res.Regions) != 1 || res.Target.Index != 0 {
		t.Errorf("Expected one region selected at index 0, got %d regions, index %d", len(res.Regions), res.Target.Index)
	}
}

func TestTrackNoMatchingPixels(t *testing.T) {
	frame := newFrame(100, 100)

	res, err := New().Track(frame, NewColorWindow(Scalar{200, 200, 200, 0}, DefaultRadius))
	if !errors.Is(err, ErrNoRegionFound) {
		t.Fatalf("Expected ErrNoRegionFound, got %v", err)
	}
	if res.Found() || res.Target != nil {
		t.Error("Target must be absent when no region is found")
	}
	if res.Mask == nil || res.Dilated == nil {
		t.Error("Masks should still be returned for display")
	}
}

func TestTrackRejectsZeroAreaRegions(t *testing.T) {
	frame := newFrame(20, 20)
	// A one-pixel line has zero enclosed area once dilation is disabled.
	fillRect(frame, image.Rect(3, 5, 15, 6), gray50)

	tr := New(WithKernelSize(1))
	res, err := tr.Track(frame, NewColorWindow(Scalar{50, 50, 50, 0}, DefaultRadius))
	if !errors.Is(err, ErrNoRegionFound) {
		t.Fatalf("Expected ErrNoRegionFound, got %v", err)
	}
	if len(res.Regions) != 1 {
		t.Errorf("Expected the line to be extracted as a region, got %d", len(res.Regions))
	}
}

func TestTrackSinglePixelSurvivesDilation(t *testing.T) {
	frame := newFrame(20, 20)
	frame.SetHSVA(10, 10, gray50)

	res, err := New().Track(frame, NewColorWindow(Scalar{50, 50, 50, 0}, DefaultRadius))
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if res.Target.Area != 4 {
		t.Errorf("Expected dilated pixel area 4, got %v", res.Target.Area)
	}
	if res.Target.Centroid != image.Pt(10, 10) {
		t.Errorf("Expected centroid (10,10), got %v", res.Target.Centroid)
	}
}

func TestTrackMinAreaThreshold(t *testing.T) {
	frame := newFrame(30, 30)
	fillRect(frame, image.Rect(5, 5, 8, 8), gray50)

	tr := New(WithMinArea(50))
	if _, err := tr.Track(frame, NewColorWindow(Scalar{50, 50, 50, 0}, DefaultRadius)); !errors.Is(err, ErrNoRegionFound) {
		t.Errorf("Expected ErrNoRegionFound below min area, got %v", err)
	}
}

func TestTrackSelectsLargest(t *testing.T) {
	frame := newFrame(60, 60)
	fillRect(frame, image.Rect(2, 2, 6, 6), gray50)
	fillRect(frame, image.Rect(30, 30, 50, 45), gray50)
	fillRect(frame, image.Rect(40, 2, 48, 8), gray50)

	res, err := New().Track(frame, NewColorWindow(Scalar{50, 50, 50, 0}, DefaultRadius))
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if len(res.Regions) != 3 {
		t.Fatalf("Expected 3 regions, got %d", len(res.Regions))
	}
	if res.Target.Bounds != image.Rect(29, 29, 51, 46) {
		t.Errorf("Expected the large block, got %v", res.Target.Bounds)
	}
}

func TestTrackTieKeepsFirst(t *testing.T) {
	frame := newFrame(40, 40)
	fillRect(frame, image.Rect(25, 5, 30, 10), gray50)
	fillRect(frame, image.Rect(5, 25, 10, 30), gray50)

	res, err := New().Track(frame, NewColorWindow(Scalar{50, 50, 50, 0}, DefaultRadius))
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if res.Regions[0].Area() != res.Regions[1].Area() {
		t.Fatalf("Test setup: regions should have equal area")
	}
	if res.Target.Index != 0 {
		t.Errorf("Expected first region on a tie, got index %d", res.Target.Index)
	}
	if res.Target.Bounds != image.Rect(24, 4, 31, 11) {
		t.Errorf("Expected upper block, got %v", res.Target.Bounds)
	}
}

func TestTrackCentroidMatchesBounds(t *testing.T) {
	blocks := []image.Rectangle{
		image.Rect(10, 10, 13, 14),
		image.Rect(0, 0, 7, 2),
		image.Rect(33, 20, 40, 39),
		image.Rect(5, 30, 6, 31),
	}

	for _, b := range blocks {
		t.Run(b.String(), func(t *testing.T) {
			frame := newFrame(40, 40)
			fillRect(frame, b, gray50)

			res, err := New().Track(frame, NewColorWindow(Scalar{50, 50, 50, 0}, DefaultRadius))
			if err != nil {
				t.Fatalf("Track failed: %v", err)
			}
			r := res.Target.Bounds
			expected := image.Pt(r.Min.X+r.Dx()/2, r.Min.Y+r.Dy()/2)
			if res.Target.Centroid != expected {
				t.Errorf("Expected centroid %v for bounds %v, got %v", expected, r, res.Target.Centroid)
			}
		})
	}
}

func TestTrackMomentCentroid(t *testing.T) {
	frame := newFrame(20, 20)
	// L-shape: bounding box center and area centroid differ.
	fillRect(frame, image.Rect(0, 0, 9, 3), gray50)
	fillRect(frame, image.Rect(0, 0, 3, 9), gray50)
	window := NewColorWindow(Scalar{50, 50, 50, 0}, DefaultRadius)

	box, err := New(WithKernelSize(1)).Track(frame, window)
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if box.Target.Centroid != image.Pt(4, 4) {
		t.Errorf("Expected box centroid (4,4), got %v", box.Target.Centroid)
	}

	moments, err := New(WithKernelSize(1), WithCentroidMode(CentroidMoments)).Track(frame, window)
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if moments.Target.Centroid != image.Pt(3, 3) {
		t.Errorf("Expected moment centroid (3,3), got %v", moments.Target.Centroid)
	}
}

func TestTrackNilFrame(t *testing.T) {
	if _, err := New().Track(nil, NewColorWindow(Scalar{}, DefaultRadius)); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("Expected ErrEmptyFrame, got %v", err)
	}
}

func TestParseCentroidMode(t *testing.T) {
	tests := []struct {
		in      string
		want    CentroidMode
		wantErr bool
	}{
		{"", CentroidBox, false},
		{"box", CentroidBox, false},
		{"moments", CentroidMoments, false},
		{"kalman", CentroidBox, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCentroidMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCentroidMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCentroidMode(%q) = %v, expected %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPathAppendOnly(t *testing.T) {
	var p Path
	if _, ok := p.Last(); ok {
		t.Error("Empty path should have no last point")
	}

	p.Append(image.Pt(1, 2))
	p.Append(image.Pt(3, 4))

	points := p.Points()
	points[0] = image.Pt(99, 99)

	if p.Len() != 2 {
		t.Errorf("Expected length 2, got %d", p.Len())
	}
	if got := p.Points()[0]; got != image.Pt(1, 2) {
		t.Errorf("Points should return a copy, got %v", got)
	}
	if last, _ := p.Last(); last != image.Pt(3, 4) {
		t.Errorf("Expected last (3,4), got %v", last)
	}
}
