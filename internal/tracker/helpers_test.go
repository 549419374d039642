package tracker

import (
	"image"

	"github.com/shadow1runner/ColorBasedTracking/internal/colorspace"
)

// newFrame returns a w x h all-zero HSV frame.
func newFrame(w, h int) *colorspace.Image {
	return colorspace.NewImage(image.Rect(0, 0, w, h))
}

// fillRect paints r with c.
func fillRect(frame *colorspace.Image, r image.Rectangle, c colorspace.HSVA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			frame.SetHSVA(x, y, c)
		}
	}
}

// newMask returns a w x h mask with the given pixels set.
func newMask(w, h int, on ...image.Point) *image.Gray {
	mask := image.NewGray(image.Rect(0, 0, w, h))
	for _, p := range on {
		mask.Pix[mask.PixOffset(p.X, p.Y)] = maskOn
	}
	return mask
}

// fillMask sets every pixel of r in mask.
func fillMask(mask *image.Gray, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			mask.Pix[mask.PixOffset(x, y)] = maskOn
		}
	}
}

// onPixels returns the set of foreground pixels of mask.
func onPixels(mask *image.Gray) map[image.Point]bool {
	out := make(map[image.Point]bool)
	b := mask.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if mask.Pix[mask.PixOffset(x, y)] != maskOff {
				out[image.Point{X: x, Y: y}] = true
			}
		}
	}
	return out
}

func rectPixels(r image.Rectangle) map[image.Point]bool {
	out := make(map[image.Point]bool)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			out[image.Point{X: x, Y: y}] = true
		}
	}
	return out
}

func samePixels(a, b map[image.Point]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for p := range a {
		if !b[p] {
			return false
		}
	}
	return true
}
