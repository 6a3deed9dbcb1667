package editor

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/coreman2200/funtimes-daycurve/internal/curve"
)

// Preview bar geometry.
const (
	barHalfHeight = 4
	barTop        = 10
)

// Grid divisions: 6 vertical slots over a 24-hour domain, horizontal lines
// every twentieth of the plot height.
const (
	gridVertDivisions = 6
	gridHorizFraction = 20
	hoursInDay        = 24
)

const usageHint = "Click on the curve to add new control points, click and drag existing points to move them."

var (
	gridColor      = color.RGBA{200, 200, 200, 255}
	labelColor     = color.RGBA{120, 120, 120, 255}
	pointFill      = color.RGBA{240, 240, 240, 255}
	pointStroke    = color.RGBA{100, 100, 100, 255}
	selectedStroke = color.RGBA{255, 0, 0, 255}
	barFrameColor  = color.RGBA{110, 110, 110, 255}
	markerColor    = color.RGBA{255, 100, 100, 255}
	hintColor      = color.RGBA{100, 100, 100, 255}
	background     = color.RGBA{255, 255, 255, 255}
)

// Render draws the current state into a fresh framebuffer: grid and axis
// labels, one sampled polyline plus point glyphs per curve, the composite
// preview bar, the current-time marker and the usage hint. Rendering reads
// state and mutates nothing.
func (e *Editor) Render() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, e.width, e.height))
	fillRect(img, 0, 0, e.width, e.height, background)

	plotW := int(e.plotWidth())
	plotH := int(e.plotHeight())
	if plotW <= 0 || plotH <= 0 {
		return img
	}

	e.drawGrid(img, plotW, plotH)
	for ci, c := range e.curves {
		e.drawCurve(img, ci, c, plotW)
	}
	e.drawPreviewBar(img, plotW)
	e.drawTimeMarker(img, plotW, plotH)
	drawText(img, legendBorder-2, e.height-2, usageHint, hintColor)
	return img
}

func (e *Editor) drawGrid(img *image.RGBA, plotW, plotH int) {
	spacingX := float64(plotW) / gridVertDivisions
	spacingY := float64(plotH) / gridHorizFraction
	numHoriz := int(math.Ceil(float64(plotH)/spacingY)) + 1

	for i := 0; i <= gridVertDivisions; i++ {
		x := int(float64(i)*spacingX) + legendBorder - 1
		drawLine(img, x, barHeight, x, barHeight+plotH, gridColor)
	}
	for i := 0; i < numHoriz; i++ {
		y := plotH - int(float64(i)*spacingY) + barHeight
		drawLine(img, legendBorder, y, e.width, y, gridColor)
	}

	// vertical axis labels through the injected unit processor
	for i := 0; i < numHoriz; i++ {
		y := plotH - int(float64(i)*spacingY) + barHeight
		drawText(img, 6, y+3, e.unitProc(float64(i)/float64(numHoriz-1)), labelColor)
	}

	// horizontal axis labels, HH:00 over a 24-hour domain
	for i := 0; i <= gridVertDivisions; i++ {
		x := int(float64(i)*spacingX) + legendBorder
		off := -14
		switch i {
		case 0:
			off = -2
		case gridVertDivisions:
			off = -27
		}
		hour := i * hoursInDay / gridVertDivisions
		label := fmt.Sprintf("%02d:00", hour)
		drawText(img, x+off, plotH+barHeight+18, label, labelColor)
	}
}

// drawCurve samples the curve once per pixel column and connects the
// samples, then draws a square glyph per control point.
func (e *Editor) drawCurve(img *image.RGBA, ci int, c *curve.Curve, plotW int) {
	r, g, b := c.Color()
	col := color.RGBA{r, g, b, 255}

	lastY := 0
	for i := 0; i < plotW; i++ {
		rel := float64(i) / float64(plotW-1)
		y := barHeight + int(e.pixelY(c.Sample(rel)))
		if i == 0 {
			lastY = y
		}
		drawLine(img, legendBorder+i-1, lastY, legendBorder+i, y, col)
		lastY = y
	}

	for pi, p := range c.ControlPoints() {
		px := int(e.pixelX(p.X)) + legendBorder
		py := int(e.pixelY(p.Y)) + barHeight

		stroke := pointStroke
		if e.selected != nil && e.selected.curve == ci && e.selected.point == pi {
			stroke = selectedStroke
		}
		fillRect(img, px-pointSize, py-pointSize, 2*pointSize, 2*pointSize, pointFill)
		strokeRect(img, px-pointSize, py-pointSize, 2*pointSize, 2*pointSize, stroke)
	}
}

// drawPreviewBar renders the composite strip: a single curve drives a
// grayscale preview, multiple curves drive the red, green and blue channels
// from the first three curves.
func (e *Editor) drawPreviewBar(img *image.RGBA, plotW int) {
	strokeRect(img, legendBorder-1, barTop-1, plotW+1, 2*barHalfHeight+2, barFrameColor)

	if len(e.curves) == 0 {
		return
	}
	for i := 0; i < plotW-1; i++ {
		rel := float64(i) / float64(plotW)
		var col color.RGBA
		if len(e.curves) == 1 {
			v := quantize(e.curves[0].Sample(rel))
			col = color.RGBA{v, v, v, 255}
		} else {
			col = color.RGBA{
				R: quantize(e.Sample(0, rel)),
				G: quantize(e.Sample(1, rel)),
				B: quantize(e.Sample(2, rel)),
				A: 255,
			}
		}
		x := legendBorder + i
		drawLine(img, x, barTop, x, barTop+2*barHalfHeight, col)
	}
}

func (e *Editor) drawTimeMarker(img *image.RGBA, plotW, plotH int) {
	x := legendBorder + int(e.currentTime*float64(plotW))
	drawDashedVLine(img, x, barHeight, barHeight+plotH, markerColor)
}

// quantize maps a normalized value to the 8-bit display range.
func quantize(v float64) uint8 {
	q := int(v * 255.0)
	if q < 0 {
		q = 0
	}
	if q > 255 {
		q = 255
	}
	return uint8(q)
}

func fillRect(img *image.RGBA, x, y, w, h int, c color.RGBA) {
	for yy := y; yy < y+h; yy++ {
		for xx := x; xx < x+w; xx++ {
			setPixel(img, xx, yy, c)
		}
	}
}

func strokeRect(img *image.RGBA, x, y, w, h int, c color.RGBA) {
	drawLine(img, x, y, x+w, y, c)
	drawLine(img, x, y+h, x+w, y+h, c)
	drawLine(img, x, y, x, y+h, c)
	drawLine(img, x+w, y, x+w, y+h, c)
}

// drawLine rasterizes a line segment with the integer Bresenham walk.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		setPixel(img, x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func drawDashedVLine(img *image.RGBA, x, y0, y1 int, c color.RGBA) {
	const dash = 4
	on := true
	run := 0
	for y := y0; y <= y1; y++ {
		if on {
			setPixel(img, x, y, c)
		}
		run++
		if run == dash {
			run = 0
			on = !on
		}
	}
}

func drawText(img *image.RGBA, x, y int, s string, c color.RGBA) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func setPixel(img *image.RGBA, x, y int, c color.RGBA) {
	if !image.Pt(x, y).In(img.Rect) {
		return
	}
	img.SetRGBA(x, y, c)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
