package tracker

import (
	"image"

	"github.com/shadow1runner/ColorBasedTracking/internal/colorspace"
)

const (
	maskOn  = 0xff
	maskOff = 0x00
)

// Threshold builds the binary mask of frame pixels inside the window.
// Foreground pixels are 255, background 0.
func Threshold(frame *colorspace.Image, window ColorWindow) *image.Gray {
	bounds := frame.Bounds()
	mask := image.NewGray(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		si := frame.PixOffset(bounds.Min.X, y)
		di := mask.PixOffset(bounds.Min.X, y)
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			px := [4]uint8{frame.Pix[si], frame.Pix[si+1], frame.Pix[si+2], frame.Pix[si+3]}
			if window.Contains(px) {
				mask.Pix[di] = maskOn
			}
			si += 4
			di++
		}
	}

	return mask
}

// Dilate grows the foreground of mask by a square structuring element of
// size kernelSize (odd, at least 1). Neighbors outside the frame are ignored,
// so the result never gains pixels from beyond the border.
func Dilate(mask *image.Gray, kernelSize int) *image.Gray {
	bounds := mask.Bounds()
	half := kernelSize / 2
	if half < 0 {
		half = 0
	}

	// Square elements are separable: a horizontal pass then a vertical pass.
	horizontal := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if anyOn(mask, x-half, x+half, y, y, bounds) {
				horizontal.Pix[horizontal.PixOffset(x, y)] = maskOn
			}
		}
	}

	result := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if anyOn(horizontal, x, x, y-half, y+half, bounds) {
				result.Pix[result.PixOffset(x, y)] = maskOn
			}
		}
	}

	return result
}

// anyOn reports whether any pixel in the inclusive box is foreground.
func anyOn(img *image.Gray, x0, x1, y0, y1 int, bounds image.Rectangle) bool {
	x0 = max(x0, bounds.Min.X)
	y0 = max(y0, bounds.Min.Y)
	x1 = min(x1, bounds.Max.X-1)
	y1 = min(y1, bounds.Max.Y-1)
	for y := y0; y <= y1; y++ {
		i := img.PixOffset(x0, y)
		for x := x0; x <= x1; x++ {
			if img.Pix[i] != maskOff {
				return true
			}
			i++
		}
	}
	return false
}
