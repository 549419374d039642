package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
	"golang.org/x/image/draw"
)

// canvas draws markers onto a frame through an OpenCV Mat. Coordinates are
// in frame space; origin maps them onto the Mat.
type canvas struct {
	mat    gocv.Mat
	origin image.Point
	bounds image.Rectangle
	color  color.RGBA
}

// paint converts dst to a Mat, runs fn on it and copies the result back into dst.
func paint(dst *image.RGBA, c color.RGBA, fn func(cv *canvas)) error {
	mat, err := gocv.ImageToMatRGBA(dst)
	if err != nil {
		return fmt.Errorf("frame to mat: %w", err)
	}
	defer mat.Close()

	fn(&canvas{mat: mat, origin: dst.Rect.Min, bounds: dst.Bounds(), color: c})

	out, err := mat.ToImage()
	if err != nil {
		return fmt.Errorf("mat to frame: %w", err)
	}
	draw.Draw(dst, dst.Bounds(), out, image.Point{}, draw.Src)
	return nil
}

// fill paints r clipped to the frame.
func (cv *canvas) fill(r image.Rectangle) {
	r = r.Intersect(cv.bounds)
	if r.Empty() {
		return
	}
	gocv.Rectangle(&cv.mat, r.Sub(cv.origin), cv.color, -1)
}

// stroke draws a border of the given thickness inside r.
func (cv *canvas) stroke(r image.Rectangle, thickness int) {
	if thickness <= 1 {
		if !r.Empty() {
			gocv.Rectangle(&cv.mat, r.Sub(cv.origin), cv.color, 1)
		}
		return
	}
	cv.fill(image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness))
	cv.fill(image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y))
	cv.fill(image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y))
	cv.fill(image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y))
}

// polylines draws one outline per point list; closed joins the last point to the first.
func (cv *canvas) polylines(lines [][]image.Point, closed bool) {
	shifted := make([][]image.Point, 0, len(lines))
	for _, pts := range lines {
		if len(pts) == 0 {
			continue
		}
		s := make([]image.Point, len(pts))
		for i, p := range pts {
			s[i] = p.Sub(cv.origin)
		}
		shifted = append(shifted, s)
	}
	if len(shifted) == 0 {
		return
	}
	pv := gocv.NewPointsVectorFromPoints(shifted)
	defer pv.Close()
	gocv.Polylines(&cv.mat, pv, closed, cv.color, 1)
}

// text prints s with its top-left corner near at.
func (cv *canvas) text(s string, at image.Point) {
	const scale = 0.4
	size := gocv.GetTextSize(s, gocv.FontHersheySimplex, scale, 1)
	org := at.Sub(cv.origin).Add(image.Pt(0, size.Y))
	gocv.PutText(&cv.mat, s, org, gocv.FontHersheySimplex, scale, cv.color, 1)
}
