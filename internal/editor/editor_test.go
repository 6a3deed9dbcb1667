package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-daycurve/internal/curve"
)

// Canvas geometry used throughout: 400x300 gives a 348x218 plot after the
// legend border (52, left and bottom) and bar height (30, top).
func newTestEditor(t *testing.T, curves ...*curve.Curve) (*Editor, *int) {
	t.Helper()
	changes := 0
	e := New(Options{
		Width:    400,
		Height:   300,
		OnChange: func() { changes++ },
	})
	e.SetCurves(curves)
	changes = 0
	return e, &changes
}

// canvasPos maps a normalized curve-space position to canvas pixels.
func canvasPos(e *Editor, nx, ny float64) (float64, float64) {
	return e.pixelX(nx) + legendBorder, e.pixelY(ny) + barHeight
}

func TestPressSelectsPointWithinTolerance(t *testing.T) {
	c := curve.New(255, 255, 255, curve.ControlPoint{X: 0.5, Y: 0.5})
	e, changes := newTestEditor(t, c)

	px, py := canvasPos(e, 0.5, 0.5)
	e.PointerDown(px+5, py-4)

	ci, pi, ok := e.Selection()
	require.True(t, ok)
	assert.Equal(t, 0, ci)
	assert.Equal(t, 0, pi)
	assert.True(t, e.Dragging())
	// selecting an existing point is not a mutation
	assert.Equal(t, 0, *changes)
	assert.Equal(t, 1, c.Len())
}

func TestPressOutsideToleranceDeselects(t *testing.T) {
	c := curve.New(255, 255, 255, curve.ControlPoint{X: 0.5, Y: 0.5})
	e, _ := newTestEditor(t, c)

	px, py := canvasPos(e, 0.5, 0.5)
	e.PointerDown(px, py)
	_, _, ok := e.Selection()
	require.True(t, ok)

	// press in the top bar chrome, outside the plot entirely
	e.PointerDown(5, 5)
	_, _, ok = e.Selection()
	assert.False(t, ok)
	assert.False(t, e.Dragging())
}

func TestPressOnCurveBodyInsertsPoint(t *testing.T) {
	c := curve.New(255, 255, 255, curve.ControlPoint{X: 0.5, Y: 0.5})
	e, changes := newTestEditor(t, c)

	// far from the control point horizontally, exactly on the curve body
	px := float64(legendBorder + 50)
	py := e.pixelY(0.5) + barHeight
	e.PointerDown(px, py)

	require.Equal(t, 2, c.Len())
	pts := c.ControlPoints()
	// the inserted point takes the sampled value, not the raw pointer y
	assert.InDelta(t, 0.5, pts[1].Y, 1e-9)
	assert.InDelta(t, 50.0/348.0, pts[1].X, 1e-9)

	ci, pi, ok := e.Selection()
	require.True(t, ok)
	assert.Equal(t, 0, ci)
	assert.Equal(t, 1, pi)
	assert.True(t, e.Dragging())
	assert.Equal(t, 1, *changes)
}

func TestPressOffCurveBodyInsertsNothing(t *testing.T) {
	c := curve.New(255, 255, 255, curve.ControlPoint{X: 0.5, Y: 0.5})
	e, changes := newTestEditor(t, c)

	// inside the plot but well above the flat curve at y=0.5
	px := float64(legendBorder + 50)
	py := e.pixelY(0.9) + barHeight
	e.PointerDown(px, py)

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 0, *changes)
	_, _, ok := e.Selection()
	assert.False(t, ok)
}

func TestSinglePressInsertsIntoAtMostOneCurve(t *testing.T) {
	// two identical curves stacked on top of each other
	c1 := curve.New(255, 0, 0, curve.ControlPoint{X: 0.5, Y: 0.5})
	c2 := curve.New(0, 255, 0, curve.ControlPoint{X: 0.5, Y: 0.5})
	e, changes := newTestEditor(t, c1, c2)

	px := float64(legendBorder + 50)
	py := e.pixelY(0.5) + barHeight
	e.PointerDown(px, py)

	assert.Equal(t, 2, c1.Len())
	assert.Equal(t, 1, c2.Len())
	assert.Equal(t, 1, *changes)
}

func TestDragMovesPoint(t *testing.T) {
	c := curve.New(255, 255, 255, curve.ControlPoint{X: 0.5, Y: 0.5})
	e, changes := newTestEditor(t, c)

	px, py := canvasPos(e, 0.5, 0.5)
	e.PointerDown(px, py)
	require.True(t, e.Dragging())

	tx, ty := canvasPos(e, 0.25, 0.75)
	e.PointerMove(tx, ty)

	pts := c.ControlPoints()
	assert.InDelta(t, 0.25, pts[0].X, 0.01)
	assert.InDelta(t, 0.75, pts[0].Y, 0.01)
	assert.Equal(t, 1, *changes)
}

func TestDragPreservesGrabOffset(t *testing.T) {
	c := curve.New(255, 255, 255, curve.ControlPoint{X: 0.5, Y: 0.5})
	e, _ := newTestEditor(t, c)

	px, py := canvasPos(e, 0.5, 0.5)
	// grab 4px right and 3px below the point center
	e.PointerDown(px+4, py+3)
	require.True(t, e.Dragging())

	// moving the pointer by (10, 0) moves the point by (10, 0), it does
	// not snap under the pointer
	e.PointerMove(px+14, py+3)
	pts := c.ControlPoints()
	assert.InDelta(t, 0.5+10.0/348.0, pts[0].X, 1e-9)
	assert.InDelta(t, 0.5, pts[0].Y, 1e-9)
}

func TestDragClampsToPlotBounds(t *testing.T) {
	c := curve.New(255, 255, 255, curve.ControlPoint{X: 0.5, Y: 0.5})
	e, _ := newTestEditor(t, c)

	px, py := canvasPos(e, 0.5, 0.5)
	e.PointerDown(px, py)
	e.PointerMove(-500, 5000)

	pts := c.ControlPoints()
	assert.Equal(t, 0.0, pts[0].X)
	assert.Equal(t, 0.0, pts[0].Y)

	e.PointerMove(5000, -500)
	pts = c.ControlPoints()
	assert.Equal(t, 1.0, pts[0].X)
	assert.Equal(t, 1.0, pts[0].Y)
}

func TestReleaseKeepsSelection(t *testing.T) {
	c := curve.New(255, 255, 255, curve.ControlPoint{X: 0.5, Y: 0.5})
	e, changes := newTestEditor(t, c)

	px, py := canvasPos(e, 0.5, 0.5)
	e.PointerDown(px, py)
	e.PointerUp()

	assert.False(t, e.Dragging())
	_, _, ok := e.Selection()
	assert.True(t, ok, "selection must survive release for keyboard deletion")
	assert.Equal(t, 0, *changes)
}

func TestDeleteSelectedPoint(t *testing.T) {
	c := curve.New(255, 255, 255,
		curve.ControlPoint{X: 0.2, Y: 0.3},
		curve.ControlPoint{X: 0.5, Y: 0.5},
	)
	e, changes := newTestEditor(t, c)

	px, py := canvasPos(e, 0.5, 0.5)
	e.PointerDown(px, py)
	e.PointerUp()

	e.DeleteSelected()
	assert.Equal(t, 1, c.Len())
	_, _, ok := e.Selection()
	assert.False(t, ok)
	assert.False(t, e.Dragging())
	assert.Equal(t, 1, *changes)

	// no selection left: another delete is a no-op
	e.DeleteSelected()
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, *changes)
}

func TestSetCurvesClearsSelectionAndDrag(t *testing.T) {
	c := curve.New(255, 255, 255, curve.ControlPoint{X: 0.5, Y: 0.5})
	e, _ := newTestEditor(t, c)

	px, py := canvasPos(e, 0.5, 0.5)
	e.PointerDown(px, py)
	_, _, ok := e.Selection()
	require.True(t, ok)

	e.SetCurves([]*curve.Curve{curve.New(0, 0, 0)})
	_, _, ok = e.Selection()
	assert.False(t, ok)
	assert.False(t, e.Dragging())
}

func TestMoveWithoutDragIsNoOp(t *testing.T) {
	c := curve.New(255, 255, 255, curve.ControlPoint{X: 0.5, Y: 0.5})
	e, changes := newTestEditor(t, c)

	e.PointerMove(100, 100)
	pts := c.ControlPoints()
	assert.Equal(t, 0.5, pts[0].X)
	assert.Equal(t, 0.5, pts[0].Y)
	assert.Equal(t, 0, *changes)
}

func TestSetCurrentTimeClamps(t *testing.T) {
	e, _ := newTestEditor(t)
	e.SetCurrentTime(1.5)
	assert.Equal(t, 1.0, e.CurrentTime())
	e.SetCurrentTime(-0.5)
	assert.Equal(t, 0.0, e.CurrentTime())
}

func TestSampleByCurveIndex(t *testing.T) {
	c := curve.New(255, 255, 255, curve.ControlPoint{X: 0.5, Y: 0.75})
	e, _ := newTestEditor(t, c)

	assert.InDelta(t, 0.75, e.Sample(0, 0.5), 1e-9)
	assert.Equal(t, 0.0, e.Sample(1, 0.5))
	assert.Equal(t, 0.0, e.Sample(-1, 0.5))
}

func TestDegenerateCanvasIsSafe(t *testing.T) {
	c := curve.New(255, 255, 255, curve.ControlPoint{X: 0.5, Y: 0.5})
	e, changes := newTestEditor(t, c)
	e.Resize(10, 10)

	e.PointerDown(5, 5)
	e.PointerMove(6, 6)
	e.PointerUp()

	assert.Equal(t, 0, *changes)
	assert.Equal(t, 1, c.Len())
}

func TestRedrawRequestedOnEdit(t *testing.T) {
	redraws := 0
	e := New(Options{
		Width:         400,
		Height:        300,
		RequestRedraw: func() { redraws++ },
	})
	c := curve.New(255, 255, 255, curve.ControlPoint{X: 0.5, Y: 0.5})
	e.SetCurves([]*curve.Curve{c})
	require.Greater(t, redraws, 0)

	before := redraws
	px, py := canvasPos(e, 0.5, 0.5)
	e.PointerDown(px, py)
	assert.Greater(t, redraws, before)
}
