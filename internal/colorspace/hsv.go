// Package colorspace converts camera frames into the HSV representation the
// tracker thresholds against.
//
// Hue is stored in full 8-bit range (0..255 covers 0..360 degrees), saturation
// and value in 0..255. The fourth channel carries the source alpha.
package colorspace

import (
	"image"
	"image/color"
	"math"
)

// HSVA is a single HSV pixel with alpha.
type HSVA struct {
	H, S, V, A uint8
}

// Channels returns the pixel as a 4-channel vector in H, S, V, A order.
func (c HSVA) Channels() [4]uint8 {
	return [4]uint8{c.H, c.S, c.V, c.A}
}

// Image is an in-memory HSV frame. Pixels are stored like image.NRGBA:
// four bytes per pixel, H at offset 0.
type Image struct {
	Pix    []uint8
	Stride int
	Rect   image.Rectangle
}

// NewImage allocates an HSV frame with the given bounds.
func NewImage(r image.Rectangle) *Image {
	w, h := r.Dx(), r.Dy()
	if w < 0 || h < 0 {
		w, h = 0, 0
	}
	return &Image{
		Pix:    make([]uint8, 4*w*h),
		Stride: 4 * w,
		Rect:   r,
	}
}

// Bounds returns the frame rectangle.
func (p *Image) Bounds() image.Rectangle {
	return p.Rect
}

// PixOffset returns the index of the first element of Pix that corresponds to
// the pixel at (x, y).
func (p *Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*4
}

// HSVAAt returns the pixel at (x, y), or the zero value outside the frame.
func (p *Image) HSVAAt(x, y int) HSVA {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return HSVA{}
	}
	i := p.PixOffset(x, y)
	s := p.Pix[i : i+4 : i+4]
	return HSVA{H: s[0], S: s[1], V: s[2], A: s[3]}
}

// SetHSVA sets the pixel at (x, y). Points outside the frame are ignored.
func (p *Image) SetHSVA(x, y int, c HSVA) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	s := p.Pix[i : i+4 : i+4]
	s[0], s[1], s[2], s[3] = c.H, c.S, c.V, c.A
}

// Fill sets every pixel of the frame to c.
func (p *Image) Fill(c HSVA) {
	for y := p.Rect.Min.Y; y < p.Rect.Max.Y; y++ {
		for x := p.Rect.Min.X; x < p.Rect.Max.X; x++ {
			p.SetHSVA(x, y, c)
		}
	}
}

// FromImage converts an RGB(A) image into an HSV frame with the same bounds.
func FromImage(img image.Image) *Image {
	bounds := img.Bounds()
	dst := NewImage(bounds)

	switch src := img.(type) {
	case *image.NRGBA:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			si := src.PixOffset(bounds.Min.X, y)
			di := dst.PixOffset(bounds.Min.X, y)
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				h, s, v := RGBToHSV(src.Pix[si], src.Pix[si+1], src.Pix[si+2])
				dst.Pix[di], dst.Pix[di+1], dst.Pix[di+2], dst.Pix[di+3] = h, s, v, src.Pix[si+3]
				si += 4
				di += 4
			}
		}
	case *image.RGBA:
		// Camera frames are opaque; premultiplied and straight values agree.
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			si := src.PixOffset(bounds.Min.X, y)
			di := dst.PixOffset(bounds.Min.X, y)
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				r, g, b, a := src.Pix[si], src.Pix[si+1], src.Pix[si+2], src.Pix[si+3]
				if a != 0xff {
					c := color.NRGBAModel.Convert(color.RGBA{R: r, G: g, B: b, A: a}).(color.NRGBA)
					r, g, b = c.R, c.G, c.B
				}
				h, s, v := RGBToHSV(r, g, b)
				dst.Pix[di], dst.Pix[di+1], dst.Pix[di+2], dst.Pix[di+3] = h, s, v, a
				si += 4
				di += 4
			}
		}
	default:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				h, s, v := RGBToHSV(c.R, c.G, c.B)
				dst.SetHSVA(x, y, HSVA{H: h, S: s, V: v, A: c.A})
			}
		}
	}

	return dst
}

// RGBToHSV converts one 8-bit RGB triple to full-range HSV.
func RGBToHSV(r, g, b uint8) (h, s, v uint8) {
	maxC := max(r, g, b)
	minC := min(r, g, b)
	diff := float64(maxC) - float64(minC)

	v = maxC
	if maxC == 0 || diff == 0 {
		return 0, 0, v
	}
	s = uint8(math.Round(255 * diff / float64(maxC)))

	rf, gf, bf := float64(r), float64(g), float64(b)
	var hue float64
	switch maxC {
	case r:
		hue = 60 * (gf - bf) / diff
	case g:
		hue = 120 + 60*(bf-rf)/diff
	default:
		hue = 240 + 60*(rf-gf)/diff
	}
	if hue < 0 {
		hue += 360
	}

	// 360 degrees wraps to 0 in the 256-step scale.
	h = uint8(int(math.Round(hue*256/360)) & 0xff)
	return h, s, v
}
