// Package editor owns the interactive loop over a set of curves: it maps
// pixel-space pointer events into curve-space edits, keeps selection and drag
// state consistent, and renders the curves into an RGBA framebuffer.
package editor

import (
	"fmt"
	"math"

	"github.com/coreman2200/funtimes-daycurve/internal/curve"
)

// Widget layout constants, in pixels. The legend border is reserved on the
// left and bottom, the bar height on top for the composite preview strip.
const (
	pointSize    = 3
	legendBorder = 52
	barHeight    = 30

	// hit tolerances for press events
	pointHitSlack     = 6
	curveHitTolerance = 8
)

type selection struct {
	curve int
	point int
}

type dragTarget struct {
	curve int
	point int
	// pixel delta from the grabbed point to the pointer, subtracted on
	// every move so the point does not snap to the pointer
	offX float64
	offY float64
}

// Editor translates pointer and key events into curve edits and renders the
// result. All operations run synchronously on the caller's goroutine; the
// editor holds no locks and spawns nothing.
type Editor struct {
	curves []*curve.Curve

	width  int
	height int

	currentTime float64

	selected *selection
	drag     *dragTarget

	unitProc      func(float64) string
	onChange      func()
	requestRedraw func()
}

// Options configures an Editor. Zero-value callbacks become no-ops and a
// nil UnitProcessor falls back to two-decimal formatting.
type Options struct {
	Width  int
	Height int

	// UnitProcessor maps a normalized value to its vertical axis label,
	// e.g. 0.3 -> "30%".
	UnitProcessor func(float64) string

	// OnChange fires after every mutating edit: insert, drag move, delete.
	OnChange func()

	// RequestRedraw fires whenever the display needs repainting. Requests
	// are idempotent and may be coalesced by the host.
	RequestRedraw func()
}

// New creates an editor over an empty curve set.
func New(opts Options) *Editor {
	e := &Editor{
		width:         opts.Width,
		height:        opts.Height,
		currentTime:   0.5,
		unitProc:      opts.UnitProcessor,
		onChange:      opts.OnChange,
		requestRedraw: opts.RequestRedraw,
	}
	if e.unitProc == nil {
		e.unitProc = func(v float64) string { return fmt.Sprintf("%.2f", v) }
	}
	if e.onChange == nil {
		e.onChange = func() {}
	}
	if e.requestRedraw == nil {
		e.requestRedraw = func() {}
	}
	return e
}

// SetCurves atomically replaces the displayed curve set. Selection and drag
// state are cleared together so they can never dangle into a stale set.
func (e *Editor) SetCurves(curves []*curve.Curve) {
	e.selected = nil
	e.drag = nil
	e.curves = curves
	e.requestRedraw()
}

// Curves returns the displayed curve set.
func (e *Editor) Curves() []*curve.Curve { return e.curves }

// SetCurrentTime sets the displayed time marker, clamped to [0,1]. Display
// only; editing state is untouched.
func (e *Editor) SetCurrentTime(t float64) {
	e.currentTime = clamp01(t)
	e.requestRedraw()
}

// CurrentTime returns the displayed time marker.
func (e *Editor) CurrentTime() float64 { return e.currentTime }

// Resize updates the canvas dimensions.
func (e *Editor) Resize(width, height int) {
	e.width = width
	e.height = height
	e.requestRedraw()
}

// Size returns the canvas dimensions.
func (e *Editor) Size() (width, height int) { return e.width, e.height }

// Sample returns the value of curve ci at x, usable by any external consumer
// of the authored curves. Out-of-range curve indices sample to 0.
func (e *Editor) Sample(ci int, x float64) float64 {
	if ci < 0 || ci >= len(e.curves) {
		return 0
	}
	return e.curves[ci].Sample(x)
}

// Selection reports the selected point as (curveIndex, pointIndex), or
// ok=false when nothing is selected.
func (e *Editor) Selection() (curveIndex, pointIndex int, ok bool) {
	if e.selected == nil {
		return 0, 0, false
	}
	return e.selected.curve, e.selected.point, true
}

// Dragging reports whether a drag is in progress.
func (e *Editor) Dragging() bool { return e.drag != nil }

// plot dimensions in pixels; non-positive values mean no valid mapping
func (e *Editor) plotWidth() float64  { return float64(e.width - legendBorder) }
func (e *Editor) plotHeight() float64 { return float64(e.height - legendBorder - barHeight) }

// pixelX maps a normalized x to a plot-local pixel column.
func (e *Editor) pixelX(nx float64) float64 {
	w := e.plotWidth()
	if w <= 0 {
		return 0
	}
	return clamp01(nx) * w
}

// pixelY maps a normalized y to a plot-local pixel row; y is inverted so
// 1.0 maps to the top.
func (e *Editor) pixelY(ny float64) float64 {
	h := e.plotHeight()
	if h <= 0 {
		return 0
	}
	return (1 - clamp01(ny)) * h
}

// normX maps a plot-local pixel column back to normalized x.
func (e *Editor) normX(px float64) float64 {
	w := e.plotWidth()
	if w <= 0 {
		return 0
	}
	return clamp01(px / w)
}

// normY maps a plot-local pixel row back to normalized y.
func (e *Editor) normY(py float64) float64 {
	h := e.plotHeight()
	if h <= 0 {
		return 0
	}
	return 1 - clamp01(py/h)
}

// PointerDown handles a press at canvas pixel position (px, py). Hit testing
// runs per curve in display order and the first match wins: a control point
// within the tolerance square becomes selection and drag target with its
// grab offset preserved; failing that, a press on the curve body inserts a
// new point exactly on the curve, which immediately becomes the selection
// and drag target. At most one insertion happens per press.
func (e *Editor) PointerDown(px, py float64) {
	e.drag = nil
	e.selected = nil

	mx := px - legendBorder
	my := py - barHeight

	changed := false
	for ci, c := range e.curves {
		if e.hitControlPoint(ci, c, mx, my) {
			break
		}
		if e.selected == nil && e.hitCurveBody(ci, c, mx, my) {
			changed = true
			break
		}
	}

	if changed {
		e.onChange()
	}
	e.requestRedraw()
}

// hitControlPoint selects and targets the first control point of c within
// the tolerance square around (mx, my).
func (e *Editor) hitControlPoint(ci int, c *curve.Curve, mx, my float64) bool {
	for pi, p := range c.ControlPoints() {
		dx := math.Abs(e.pixelX(p.X) - mx)
		dy := math.Abs(e.pixelY(p.Y) - my)
		if dx < pointSize+pointHitSlack && dy < pointSize+pointHitSlack {
			e.selected = &selection{curve: ci, point: pi}
			e.drag = &dragTarget{
				curve: ci,
				point: pi,
				offX:  mx - e.pixelX(p.X),
				offY:  my - e.pixelY(p.Y),
			}
			return true
		}
	}
	return false
}

// hitCurveBody inserts a new control point when (mx, my) lies inside the
// plot and within tolerance of the sampled curve. The new point takes the
// sampled value at that column rather than the raw pointer y, so it lands
// exactly on the curve.
func (e *Editor) hitCurveBody(ci int, c *curve.Curve, mx, my float64) bool {
	w, h := e.plotWidth(), e.plotHeight()
	if w <= 0 || h <= 0 {
		return false
	}
	if mx <= 0 || mx >= w || my <= 0 || my >= h {
		return false
	}
	nx := e.normX(mx)
	ny := c.Sample(nx)
	if math.Abs(e.pixelY(ny)-my) >= curveHitTolerance {
		return false
	}
	pi := c.AppendPoint(nx, ny)
	e.selected = &selection{curve: ci, point: pi}
	e.drag = &dragTarget{curve: ci, point: pi}
	return true
}

// PointerMove handles pointer motion. Only active while a drag is in
// progress: the dragged point follows the pointer minus its grab offset,
// with each axis independently clamped to [0,1].
func (e *Editor) PointerMove(px, py float64) {
	if e.drag == nil {
		return
	}
	mx := px - e.drag.offX - legendBorder
	my := py - e.drag.offY - barHeight

	nx := e.normX(mx)
	ny := e.normY(my)

	if err := e.curves[e.drag.curve].SetPointValue(e.drag.point, nx, ny); err != nil {
		return
	}
	e.requestRedraw()
	e.onChange()
}

// PointerUp ends a drag. Selection persists so the point can still be
// deleted from the keyboard.
func (e *Editor) PointerUp() {
	e.drag = nil
}

// DeleteSelected removes the selected control point, if any. Selection and
// drag state are cleared together.
func (e *Editor) DeleteSelected() {
	if e.selected == nil {
		return
	}
	if err := e.curves[e.selected.curve].RemovePoint(e.selected.point); err != nil {
		return
	}
	e.selected = nil
	e.drag = nil
	e.requestRedraw()
	e.onChange()
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
