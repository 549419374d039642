package tracker

import (
	"image"
	"math"
)

// Region is the outer boundary of one connected foreground component.
// Runs of collinear boundary pixels are reduced to their end points.
type Region struct {
	Points []image.Point
}

// Area returns the polygon area enclosed by the boundary points. Components
// that are a single pixel or a one-pixel-wide line have zero area.
func (r Region) Area() float64 {
	n := len(r.Points)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		p, q := r.Points[i], r.Points[(i+1)%n]
		sum += float64(p.X*q.Y - q.X*p.Y)
	}
	return math.Abs(sum) / 2
}

// Bounds returns the minimal axis-aligned rectangle enclosing the region.
func (r Region) Bounds() image.Rectangle {
	if len(r.Points) == 0 {
		return image.Rectangle{}
	}
	minX, minY := r.Points[0].X, r.Points[0].Y
	maxX, maxY := minX, minY
	for _, p := range r.Points[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// neighborhood lists the 8 neighbors counterclockwise on screen, starting east.
var neighborhood = [8]image.Point{
	{X: 1, Y: 0},   // E
	{X: 1, Y: -1},  // NE
	{X: 0, Y: -1},  // N
	{X: -1, Y: -1}, // NW
	{X: -1, Y: 0},  // W
	{X: -1, Y: 1},  // SW
	{X: 0, Y: 1},   // S
	{X: 1, Y: 1},   // SE
}

const west = 4

// grid is a read-only foreground lookup over a mask in local coordinates.
type grid struct {
	w, h int
	fg   []bool
}

func newGrid(mask *image.Gray) *grid {
	b := mask.Bounds()
	g := &grid{w: b.Dx(), h: b.Dy(), fg: make([]bool, b.Dx()*b.Dy())}
	for y := 0; y < g.h; y++ {
		row := mask.Pix[mask.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < g.w; x++ {
			g.fg[y*g.w+x] = row[x] != maskOff
		}
	}
	return g
}

func (g *grid) at(p image.Point) bool {
	if p.X < 0 || p.Y < 0 || p.X >= g.w || p.Y >= g.h {
		return false
	}
	return g.fg[p.Y*g.w+p.X]
}

// FindRegions returns the outer boundaries of all connected foreground
// components of mask that are not nested inside a hole of another component.
// Foreground is 8-connected, background 4-connected, and the area outside the
// frame counts as background. Regions are ordered by the raster position of
// their first pixel. The mask is not modified.
func FindRegions(mask *image.Gray) []Region {
	g := newGrid(mask)
	if g.w == 0 || g.h == 0 {
		return nil
	}

	labels, starts := labelComponents(g)
	outside := outerBackground(g)

	external := make([]bool, len(starts)+1)
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			id := labels[y*g.w+x]
			if id == 0 || external[id] {
				continue
			}
			if x == 0 || y == 0 || x == g.w-1 || y == g.h-1 {
				external[id] = true
				continue
			}
			for d := 0; d < 8; d += 2 {
				q := image.Point{X: x, Y: y}.Add(neighborhood[d])
				if outside[q.Y*g.w+q.X] {
					external[id] = true
					break
				}
			}
		}
	}

	origin := mask.Bounds().Min
	var regions []Region
	for i, start := range starts {
		if !external[i+1] {
			continue
		}
		points := compressChain(traceBorder(g, start))
		for j := range points {
			points[j] = points[j].Add(origin)
		}
		regions = append(regions, Region{Points: points})
	}
	return regions
}

// labelComponents assigns 8-connected component labels starting at 1 and
// returns the first pixel of each component in raster order.
func labelComponents(g *grid) ([]int32, []image.Point) {
	labels := make([]int32, g.w*g.h)
	var starts []image.Point
	var stack []image.Point

	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			if !g.fg[y*g.w+x] || labels[y*g.w+x] != 0 {
				continue
			}
			starts = append(starts, image.Point{X: x, Y: y})
			id := int32(len(starts))
			labels[y*g.w+x] = id
			stack = append(stack[:0], image.Point{X: x, Y: y})

			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				for _, d := range neighborhood {
					q := p.Add(d)
					if g.at(q) && labels[q.Y*g.w+q.X] == 0 {
						labels[q.Y*g.w+q.X] = id
						stack = append(stack, q)
					}
				}
			}
		}
	}
	return labels, starts
}

// outerBackground marks background pixels 4-connected to the frame border.
func outerBackground(g *grid) []bool {
	outside := make([]bool, g.w*g.h)
	var stack []image.Point

	seed := func(x, y int) {
		i := y*g.w + x
		if !g.fg[i] && !outside[i] {
			outside[i] = true
			stack = append(stack, image.Point{X: x, Y: y})
		}
	}
	for x := 0; x < g.w; x++ {
		seed(x, 0)
		seed(x, g.h-1)
	}
	for y := 0; y < g.h; y++ {
		seed(0, y)
		seed(g.w-1, y)
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for d := 0; d < 8; d += 2 {
			q := p.Add(neighborhood[d])
			if q.X < 0 || q.Y < 0 || q.X >= g.w || q.Y >= g.h {
				continue
			}
			seed(q.X, q.Y)
		}
	}
	return outside
}

// traceBorder follows the outer border of the component whose first raster
// pixel is start (its west neighbor is background). It returns every border
// pixel in visiting order.
func traceBorder(g *grid, start image.Point) []image.Point {
	// Clockwise from west for the first foreground neighbor.
	first := -1
	for i := 0; i < 8; i++ {
		d := (west - i + 8) % 8
		if g.at(start.Add(neighborhood[d])) {
			first = d
			break
		}
	}
	if first < 0 {
		return []image.Point{start}
	}

	p1 := start.Add(neighborhood[first])
	prev, cur := p1, start
	var points []image.Point
	for {
		// Counterclockwise around cur, starting just after prev.
		d := direction(cur, prev)
		var next image.Point
		for i := 1; i <= 8; i++ {
			q := cur.Add(neighborhood[(d+i)%8])
			if g.at(q) {
				next = q
				break
			}
		}
		points = append(points, cur)
		if next == start && cur == p1 {
			return points
		}
		prev, cur = cur, next
	}
}

func direction(from, to image.Point) int {
	delta := to.Sub(from)
	for d, n := range neighborhood {
		if n == delta {
			return d
		}
	}
	return 0
}

// compressChain drops boundary points that continue in the same direction as
// the previous step. The first point is always kept.
func compressChain(points []image.Point) []image.Point {
	n := len(points)
	if n < 3 {
		return points
	}
	out := []image.Point{points[0]}
	for i := 1; i < n; i++ {
		in := points[i].Sub(points[i-1])
		next := points[(i+1)%n].Sub(points[i])
		if in != next {
			out = append(out, points[i])
		}
	}
	return out
}
