// Package curve models an editable value curve: ordered control points plus
// a continuously sampleable interpolation over [0,1].
package curve

import (
	"errors"
	"sort"
)

// ErrInvalidPointIndex is returned by index-based mutations when the index
// does not refer to a current control point.
var ErrInvalidPointIndex = errors.New("invalid control point index")

// ControlPoint is a user-placed anchor the curve passes through. Both
// coordinates live in normalized [0,1] space; clamping happens at the input
// boundary (the editor), not here.
type ControlPoint struct {
	X float64
	Y float64
}

// Curve holds an ordered, mutable set of control points and answers
// interpolated samples over [0,1]. The sorted cache is refreshed by every
// mutating operation, so Sample never sees stale data.
type Curve struct {
	points []ControlPoint
	color  [3]uint8

	// sorted by ascending X, ties keep insertion order
	sorted []ControlPoint
}

// New creates a curve with a display color and optional seed points.
func New(r, g, b uint8, seed ...ControlPoint) *Curve {
	c := &Curve{
		points: append([]ControlPoint(nil), seed...),
		color:  [3]uint8{r, g, b},
	}
	c.Rebuild()
	return c
}

// ControlPoints returns the control points in storage order. The returned
// slice is a copy; mutations go through the index-based operations.
func (c *Curve) ControlPoints() []ControlPoint {
	return append([]ControlPoint(nil), c.points...)
}

// Len returns the number of control points.
func (c *Curve) Len() int { return len(c.points) }

// Color returns the curve's display color.
func (c *Curve) Color() (r, g, b uint8) {
	return c.color[0], c.color[1], c.color[2]
}

// AppendPoint adds a control point at the end of the sequence and returns
// its index. Duplicate or out-of-order X values are tolerated; the
// interpolation orders by X on rebuild.
func (c *Curve) AppendPoint(x, y float64) int {
	c.points = append(c.points, ControlPoint{X: x, Y: y})
	c.Rebuild()
	return len(c.points) - 1
}

// SetPointValue overwrites the coordinates of the control point at index i.
func (c *Curve) SetPointValue(i int, x, y float64) error {
	if i < 0 || i >= len(c.points) {
		return ErrInvalidPointIndex
	}
	c.points[i] = ControlPoint{X: x, Y: y}
	c.Rebuild()
	return nil
}

// RemovePoint deletes the control point at index i, keeping the relative
// order of the remaining points.
func (c *Curve) RemovePoint(i int) error {
	if i < 0 || i >= len(c.points) {
		return ErrInvalidPointIndex
	}
	c.points = append(c.points[:i], c.points[i+1:]...)
	c.Rebuild()
	return nil
}

// Rebuild refreshes the derived interpolation cache from the current control
// points. Mutating operations call it themselves; calling it again is
// harmless and changes nothing.
func (c *Curve) Rebuild() {
	c.sorted = append(c.sorted[:0], c.points...)
	sort.SliceStable(c.sorted, func(a, b int) bool {
		return c.sorted[a].X < c.sorted[b].X
	})
}

// Sample returns the interpolated value at x. The input is clamped to [0,1]
// and the result is clamped to [0,1]. With no control points the value is 0,
// with one point its Y everywhere. With two or more points the value follows
// a Catmull-Rom segment chain through the points ordered by ascending X,
// exact at every control point and held flat outside the covered range.
func (c *Curve) Sample(x float64) float64 {
	pts := c.sorted
	n := len(pts)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return clamp01(pts[0].Y)
	}
	x = clamp01(x)
	if x <= pts[0].X {
		return clamp01(pts[0].Y)
	}
	if x >= pts[n-1].X {
		return clamp01(pts[n-1].Y)
	}
	for i := 0; i < n-1; i++ {
		a, b := pts[i], pts[i+1]
		if x < a.X || x > b.X {
			continue
		}
		den := b.X - a.X
		if den <= 0 {
			// collapsed segment from duplicate X values
			return clamp01(b.Y)
		}
		t := clamp01((x - a.X) / den)
		p0 := pts[maxInt(i-1, 0)].Y
		p3 := pts[minInt(i+2, n-1)].Y
		return clamp01(catmullRom(p0, a.Y, b.Y, p3, t))
	}
	return clamp01(pts[n-1].Y)
}

// catmullRom evaluates the uniform Catmull-Rom basis for the segment p1..p2
// with neighbors p0 and p3 at parameter t in [0,1].
func catmullRom(p0, p1, p2, p3, t float64) float64 {
	t2 := t * t
	t3 := t2 * t
	return 0.5 * ((2 * p1) +
		(-p0+p2)*t +
		(2*p0-5*p1+4*p2-p3)*t2 +
		(-p0+3*p1-3*p2+p3)*t3)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
