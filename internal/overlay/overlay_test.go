package overlay

import (
	"image"
	"image/color"
	"testing"

	"github.com/shadow1runner/ColorBasedTracking/internal/colorspace"
	"github.com/shadow1runner/ColorBasedTracking/internal/tracker"
)

var black = color.RGBA{A: 0xff}

func newFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return img
}

// trackBlock paints a red block on a fresh frame and tracks it.
func trackBlock(w, h int, block image.Rectangle) (*image.RGBA, tracker.Result) {
	frame := newFrame(w, h)
	for y := block.Min.Y; y < block.Max.Y; y++ {
		for x := block.Min.X; x < block.Max.X; x++ {
			frame.SetRGBA(x, y, color.RGBA{R: 0xff, A: 0xff})
		}
	}
	hsv := colorspace.FromImage(frame)
	window := tracker.NewColorWindow(tracker.Scalar{0, 255, 255, 255}, tracker.DefaultRadius)
	res, _ := tracker.New().Track(hsv, window)
	return frame, res
}

func render(t *testing.T, r *Renderer, mode Mode, frame image.Image, res tracker.Result, hist History) *image.RGBA {
	t.Helper()
	out, err := r.Render(mode, frame, res, hist)
	if err != nil {
		t.Fatalf("Render(%v) failed: %v", mode, err)
	}
	return out
}

func isMarked(img *image.RGBA, x, y int) bool {
	return img.RGBAAt(x, y) == IndicatingColor
}

func TestParseMode(t *testing.T) {
	for i, name := range Modes() {
		m, err := ParseMode(name)
		if err != nil {
			t.Fatalf("ParseMode(%q) failed: %v", name, err)
		}
		if m != Mode(i) || m.String() != name {
			t.Errorf("ParseMode(%q) = %v, expected %v", name, m, Mode(i))
		}
	}
	if m, err := ParseMode(""); err != nil || m != ModeCenter {
		t.Errorf("Empty mode should default to center, got %v, %v", m, err)
	}
	if _, err := ParseMode("sepia"); err == nil {
		t.Error("Expected an error for an unknown mode")
	}
}

func TestPreviewSquare(t *testing.T) {
	r := NewRenderer()
	out, err := r.Preview(newFrame(100, 100))
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	defer Release(out)

	tests := []struct {
		x, y   int
		marked bool
	}{
		{24, 24, true},
		{28, 28, true},
		{29, 29, false},
		{65, 65, true},
		{61, 61, true},
		{60, 60, false},
		{45, 24, true},
		{45, 45, false},
		{23, 23, false},
		{66, 66, false},
	}
	for _, tt := range tests {
		if got := isMarked(out, tt.x, tt.y); got != tt.marked {
			t.Errorf("pixel (%d,%d): marked=%v, expected %v", tt.x, tt.y, got, tt.marked)
		}
	}
}

func TestRenderCenter(t *testing.T) {
	frame, res := trackBlock(60, 60, image.Rect(20, 20, 30, 30))
	if !res.Found() || res.Target.Centroid != image.Pt(25, 25) {
		t.Fatalf("Test setup: unexpected result %+v", res.Target)
	}

	out := render(t, NewRenderer(), ModeCenter, frame, res, History{})
	defer Release(out)

	for _, p := range []image.Point{{22, 22}, {27, 27}, {25, 22}} {
		if !isMarked(out, p.X, p.Y) {
			t.Errorf("Expected centroid marker at %v", p)
		}
	}
	for _, p := range []image.Point{{28, 28}, {21, 25}, {0, 0}} {
		if isMarked(out, p.X, p.Y) {
			t.Errorf("Unexpected marker at %v", p)
		}
	}
	if got := out.RGBAAt(20, 20); got != (color.RGBA{R: 0xff, A: 0xff}) {
		t.Errorf("Frame content should be kept, got %v", got)
	}
}

func TestRenderCenterClipped(t *testing.T) {
	frame := newFrame(10, 10)
	near := render(t, NewRenderer(), ModeCenter, frame, tracker.Result{Target: &tracker.Target{Centroid: image.Pt(1, 1)}}, History{})
	defer Release(near)
	far := render(t, NewRenderer(), ModeCenter, frame, tracker.Result{Target: &tracker.Target{Centroid: image.Pt(9, 9)}}, History{})
	defer Release(far)

	for _, p := range []image.Point{{0, 0}, {3, 3}} {
		if !isMarked(near, p.X, p.Y) {
			t.Errorf("Expected marker at %v", p)
		}
	}
	if isMarked(near, 4, 4) {
		t.Error("Unexpected marker at (4,4)")
	}
	for _, p := range []image.Point{{6, 6}, {8, 8}} {
		if !isMarked(far, p.X, p.Y) {
			t.Errorf("Expected marker at %v", p)
		}
	}
	for _, p := range []image.Point{{9, 9}, {5, 5}} {
		if isMarked(far, p.X, p.Y) {
			t.Errorf("Unexpected marker at %v", p)
		}
	}
}

func TestRenderBounds(t *testing.T) {
	frame, res := trackBlock(60, 60, image.Rect(20, 20, 30, 30))
	out := render(t, NewRenderer(), ModeBounds, frame, res, History{})
	defer Release(out)

	// Bounds are [19,31)x[19,31).
	for _, p := range []image.Point{{19, 19}, {30, 19}, {19, 30}, {30, 30}, {25, 19}} {
		if !isMarked(out, p.X, p.Y) {
			t.Errorf("Expected box edge at %v", p)
		}
	}
	if isMarked(out, 25, 25) || isMarked(out, 31, 31) {
		t.Error("Box should be a one-pixel outline")
	}
}

func TestRenderMaskModes(t *testing.T) {
	frame, res := trackBlock(40, 40, image.Rect(10, 10, 20, 20))
	white := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

	mask := render(t, NewRenderer(), ModeMask, frame, res, History{})
	defer Release(mask)
	if mask.RGBAAt(10, 10) != white || mask.RGBAAt(9, 9) != black {
		t.Errorf("Mask mode should show the binary mask, got %v and %v", mask.RGBAAt(10, 10), mask.RGBAAt(9, 9))
	}

	dilated := render(t, NewRenderer(), ModeDilated, frame, res, History{})
	defer Release(dilated)
	if dilated.RGBAAt(9, 9) != white || dilated.RGBAAt(8, 8) != black {
		t.Errorf("Dilated mode should show the dilated mask, got %v and %v", dilated.RGBAAt(9, 9), dilated.RGBAAt(8, 8))
	}

	centerMask := render(t, NewRenderer(), ModeCenterMask, frame, res, History{})
	defer Release(centerMask)
	if !isMarked(centerMask, 15, 15) || centerMask.RGBAAt(9, 9) != white {
		t.Error("Center-mask mode should mark the centroid on the dilated mask")
	}
}

func TestRenderContours(t *testing.T) {
	frame, res := trackBlock(60, 60, image.Rect(5, 5, 15, 15))
	for y := 40; y < 50; y++ {
		for x := 40; x < 45; x++ {
			frame.SetRGBA(x, y, color.RGBA{R: 0xff, A: 0xff})
		}
	}
	hsv := colorspace.FromImage(frame)
	res, _ = tracker.New().Track(hsv, tracker.NewColorWindow(tracker.Scalar{0, 255, 255, 255}, tracker.DefaultRadius))
	if len(res.Regions) != 2 {
		t.Fatalf("Test setup: expected 2 regions, got %d", len(res.Regions))
	}

	out := render(t, NewRenderer(), ModeContours, frame, res, History{})
	defer Release(out)

	for _, p := range []image.Point{{4, 4}, {15, 10}, {39, 39}, {45, 50}} {
		if !isMarked(out, p.X, p.Y) {
			t.Errorf("Expected outline at %v", p)
		}
	}
	if isMarked(out, 10, 10) {
		t.Error("Region interior should not be drawn")
	}
}

func TestRenderPath(t *testing.T) {
	path := []image.Point{{0, 0}, {9, 0}, {9, 9}}
	out := render(t, NewRenderer(), ModePath, newFrame(10, 10), tracker.Result{}, History{Path: path})
	defer Release(out)

	for x := 0; x < 10; x++ {
		if !isMarked(out, x, 0) {
			t.Errorf("Expected path at (%d,0)", x)
		}
	}
	for y := 0; y < 10; y++ {
		if !isMarked(out, 9, y) {
			t.Errorf("Expected path at (9,%d)", y)
		}
	}
	if isMarked(out, 5, 5) {
		t.Error("Path should not be closed")
	}
}

func TestRenderMissDrawsNothing(t *testing.T) {
	frame := newFrame(20, 20)
	res := tracker.Result{Mask: image.NewGray(frame.Rect), Dilated: image.NewGray(frame.Rect)}

	for _, mode := range []Mode{ModeCenter, ModeBounds, ModeContours} {
		out := render(t, NewRenderer(), mode, frame, res, History{})
		for y := 0; y < 20; y++ {
			for x := 0; x < 20; x++ {
				if isMarked(out, x, y) {
					t.Fatalf("%v: unexpected marker at (%d,%d)", mode, x, y)
				}
			}
		}
		Release(out)
	}
}

func TestRenderScaleAndLabel(t *testing.T) {
	r := NewRenderer()
	r.Scale = 0.5
	r.Label = true

	out := render(t, r, ModeCenter, newFrame(100, 80), tracker.Result{}, History{})
	defer Release(out)

	if out.Bounds() != image.Rect(0, 0, 50, 40) {
		t.Fatalf("Expected 50x40 output, got %v", out.Bounds())
	}
	labelled := false
	for y := 0; y < 20 && !labelled; y++ {
		for x := 0; x < 50; x++ {
			if isMarked(out, x, y) {
				labelled = true
				break
			}
		}
	}
	if !labelled {
		t.Error("Expected label pixels in the top-left corner")
	}
}

func TestRenderBoundsKeepsLastBox(t *testing.T) {
	frame := newFrame(40, 40)
	miss := tracker.Result{Mask: image.NewGray(frame.Rect), Dilated: image.NewGray(frame.Rect)}
	last := &tracker.Target{Bounds: image.Rect(5, 5, 15, 12)}

	out := render(t, NewRenderer(), ModeBounds, frame, miss, History{Last: last})
	defer Release(out)
	for _, p := range []image.Point{{5, 5}, {14, 5}, {5, 11}, {14, 11}, {10, 11}} {
		if !isMarked(out, p.X, p.Y) {
			t.Errorf("Expected the previous box edge at %v", p)
		}
	}
	if isMarked(out, 10, 8) || isMarked(out, 15, 12) {
		t.Error("Previous box should be a one-pixel outline")
	}

	// Other modes draw nothing on a miss even with a previous target.
	center := render(t, NewRenderer(), ModeCenter, frame, miss, History{Last: last})
	defer Release(center)
	if isMarked(center, 10, 8) {
		t.Error("Center mode should not reuse the previous target")
	}
}
