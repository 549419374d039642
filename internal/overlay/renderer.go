package overlay

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/shadow1runner/ColorBasedTracking/internal/system"
	"github.com/shadow1runner/ColorBasedTracking/internal/tracker"
)

// IndicatingColor is the color of every marker drawn on a frame.
var IndicatingColor = color.RGBA{R: 0xbf, G: 0xfe, B: 0x00, A: 0xff}

const (
	DefaultPreviewSize   = 32
	DefaultPreviewBorder = 5
	DefaultCenterSize    = 6
)

// Renderer draws tracking output onto frames. Returned images come from the
// shared buffer pool; hand them back with Release once written.
type Renderer struct {
	Color         color.RGBA
	PreviewSize   int
	PreviewBorder int
	CenterSize    int
	// Label prints the mode name and centroid in the top-left corner.
	Label bool
	// Scale resizes the output; 0 and 1 keep the input size.
	Scale float64
}

// NewRenderer returns a Renderer with the default marker geometry.
func NewRenderer() *Renderer {
	return &Renderer{
		Color:         IndicatingColor,
		PreviewSize:   DefaultPreviewSize,
		PreviewBorder: DefaultPreviewBorder,
		CenterSize:    DefaultCenterSize,
	}
}

// Release returns a rendered frame to the pool.
func Release(img *image.RGBA) {
	system.PutImage(img)
}

// History carries what the renderer needs beyond the current frame's result.
type History struct {
	// Path is the track so far, drawn in ModePath.
	Path []image.Point
	// Last is the most recent target. ModeBounds keeps its box on a miss.
	Last *tracker.Target
}

// Preview draws the aiming square in the middle of frame. It is shown before
// tracking starts; the color under the square is what gets calibrated.
func (r *Renderer) Preview(frame image.Image) (*image.RGBA, error) {
	dst := r.base(frame)
	b := dst.Bounds()
	size, border := r.PreviewSize, r.PreviewBorder

	offX := b.Min.X + b.Dx()/2 - size/2 - border
	offY := b.Min.Y + b.Dy()/2 - size/2 - border
	square := image.Rect(offX-border, offY-border, offX+size+border, offY+size+border)

	err := paint(dst, r.Color, func(cv *canvas) {
		cv.stroke(square, border)
	})
	if err != nil {
		Release(dst)
		return nil, err
	}
	return r.finish(dst, "preview")
}

// Render draws res on frame according to mode.
func (r *Renderer) Render(mode Mode, frame image.Image, res tracker.Result, hist History) (*image.RGBA, error) {
	var dst *image.RGBA
	switch mode {
	case ModeMask:
		dst = r.base(maskOrFrame(res.Mask, frame))
	case ModeDilated, ModeCenterMask:
		dst = r.base(maskOrFrame(res.Dilated, frame))
	default:
		dst = r.base(frame)
	}

	err := paint(dst, r.Color, func(cv *canvas) {
		switch mode {
		case ModeCenter, ModeCenterMask:
			if res.Found() {
				cv.fill(r.centerSquare(dst.Bounds(), res.Target.Centroid))
			}
		case ModeBounds:
			if res.Found() {
				cv.stroke(res.Target.Bounds, 1)
			} else if hist.Last != nil {
				cv.stroke(hist.Last.Bounds, 1)
			}
		case ModeContours:
			if res.Found() {
				outlines := make([][]image.Point, len(res.Regions))
				for i, region := range res.Regions {
					outlines[i] = region.Points
				}
				cv.polylines(outlines, true)
			}
		case ModePath:
			if len(hist.Path) > 1 {
				cv.polylines([][]image.Point{hist.Path}, false)
			}
		}
	})
	if err != nil {
		Release(dst)
		return nil, err
	}

	label := mode.String()
	if res.Found() {
		label = fmt.Sprintf("%s %d,%d", label, res.Target.Centroid.X, res.Target.Centroid.Y)
	}
	return r.finish(dst, label)
}

// centerSquare is the CenterSize square around c, clipped to b.
func (r *Renderer) centerSquare(b image.Rectangle, c image.Point) image.Rectangle {
	half := r.CenterSize / 2
	minX, minY := max(c.X-half, b.Min.X), max(c.Y-half, b.Min.Y)
	maxX, maxY := min(c.X+half, b.Max.X-1), min(c.Y+half, b.Max.Y-1)
	return image.Rect(minX, minY, maxX, maxY)
}

// base copies src into a pooled RGBA buffer.
func (r *Renderer) base(src image.Image) *image.RGBA {
	dst := system.GetImage(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}

func (r *Renderer) finish(dst *image.RGBA, label string) (*image.RGBA, error) {
	if r.Scale > 0 && r.Scale != 1 {
		dst = scale(dst, r.Scale)
	}
	if r.Label {
		err := paint(dst, r.Color, func(cv *canvas) {
			cv.text(label, dst.Bounds().Min.Add(image.Pt(4, 4)))
		})
		if err != nil {
			Release(dst)
			return nil, err
		}
	}
	return dst, nil
}

// scale resizes src by factor and releases src.
func scale(src *image.RGBA, factor float64) *image.RGBA {
	sb := src.Bounds()
	w := max(1, int(float64(sb.Dx())*factor))
	h := max(1, int(float64(sb.Dy())*factor))
	dst := system.GetImage(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)
	system.PutImage(src)
	return dst
}

func maskOrFrame(mask *image.Gray, frame image.Image) image.Image {
	if mask == nil {
		return frame
	}
	return mask
}
