package spirit

import (
	"image"
	"image/color"
	"math"
)

// gridIntervalMM is the spacing of the preview's reference grid lines.
const gridIntervalMM = 10.0

// gridBandFraction is the half-width of a grid line's band, as a
// fraction of gridIntervalMM: a pixel within this fraction of a
// gridline's mm position, on either axis, is painted the grid colour.
const gridBandFraction = 0.10

// canvasMargin is the slack factor applied to size*zoom when sizing the
// square preview canvas, leaving room for content near the edges.
const canvasMargin = 1.05

// MinZoom and MaxZoom bound the preview's zoom input.
const (
	MinZoom = 1.0
	MaxZoom = 5.0
)

// Rasteriser stamps a non-antialiased preview of resolved paths onto an
// RGBA canvas: a background grid plus a small plus-shaped marker at
// every traced point, coloured by the pass that traces it. There is no
// winding rule and no edge list, unlike a coverage-accumulating
// antialiased rasteriser; every marker is simply drawn.
//
// Create one instance and reuse it across renders: Render resizes its
// backing canvas only when the requested size grows, avoiding a fresh
// allocation per frame.
type Rasteriser struct {
	canvas *image.RGBA
}

// NewRasteriser returns an empty Rasteriser.
func NewRasteriser() *Rasteriser {
	return &Rasteriser{}
}

// markerColour is the RGB colour a marker is drawn in; it is always the
// matching pass's own stroke colour.
type markerColour = [3]uint8

// Render draws paths representing the bed's extent in millimetres onto
// a square canvas, returning the resulting image. size is the nominal
// preview size in pixels and zoom (clamped to [MinZoom,MaxZoom]) scales
// the canvas only, not the mm-to-pixel ratio: the canvas is
// ceil(size*zoom*canvasMargin) pixels on a side, while pixels-per-mm is
// fixed at size*MaxZoom/bedDimension regardless of the requested zoom,
// so zooming in enlarges the canvas around a constant-density image
// rather than rescaling it. The grid and marker placement assume the
// bed's plotter-unit origin sits at mm (0,0); a bed whose MinX/MinY
// aren't both zero would need the grid offset by that amount, which
// this function does not do — it logs a warning and proceeds with the
// unshifted grid rather than silently misplacing it.
func (r *Rasteriser) Render(paths *PathsByColour[PathInMM], program *ToolProgram, bed *Bed, size int, zoom float64) *image.RGBA {
	if bed.MinX() != 0 || bed.MinY() != 0 {
		Logger().Warn("preview grid assumes bed origin at (0,0) in mm; bed does not, grid will be misaligned",
			"minX", bed.MinX(), "minY", bed.MinY())
	}
	zoom = clampZoom(zoom)

	canvasPx := int(math.Ceil(float64(size) * zoom * canvasMargin))
	if canvasPx < 1 {
		canvasPx = 1
	}
	bedDimension := max(bed.MaxX()-bed.MinX(), bed.MaxY()-bed.MinY())
	var pixelsPerMM float64
	if bedDimension > 0 {
		pixelsPerMM = float64(size) * MaxZoom / bedDimension
	}

	if r.canvas == nil || r.canvas.Bounds().Dx() < canvasPx || r.canvas.Bounds().Dy() < canvasPx {
		r.canvas = image.NewRGBA(image.Rect(0, 0, canvasPx, canvasPx))
	}
	canvas := r.canvas.SubImage(image.Rect(0, 0, canvasPx, canvasPx)).(*image.RGBA)

	bg := color.RGBA{0xE6, 0xE6, 0xE6, 255}
	for y := range canvasPx {
		for x := range canvasPx {
			canvas.Set(x, y, bg)
		}
	}

	drawGrid(canvas, canvasPx, pixelsPerMM)

	for _, colour := range paths.Colours() {
		mc, ok := colourForPass(program, colour)
		if !ok {
			continue
		}
		for _, path := range paths.Paths(colour) {
			for _, pt := range path {
				px, py := mmToPixel(pt, bed, pixelsPerMM)
				drawPlus(canvas, px, py, mc)
			}
		}
	}

	return canvas
}

func clampZoom(z float64) float64 {
	return max(MinZoom, min(MaxZoom, z))
}

func colourForPass(program *ToolProgram, colour PathColour) (markerColour, bool) {
	for _, pass := range program.Passes {
		if pass.Enabled && pass.Colour == colour {
			return markerColour(pass.Colour), true
		}
	}
	return markerColour{}, false
}

func mmToPixel(pt PointMM, bed *Bed, pixelsPerMM float64) (int, int) {
	px := int((pt.X - bed.MinX()) * pixelsPerMM)
	py := int((pt.Y - bed.MinY()) * pixelsPerMM)
	return px, py
}

// distanceToNearestGridline returns mm's distance to the nearest
// multiple of gridIntervalMM.
func distanceToNearestGridline(mm float64) float64 {
	m := math.Mod(mm, gridIntervalMM)
	if m < 0 {
		m += gridIntervalMM
	}
	return min(m, gridIntervalMM-m)
}

// drawGrid paints every pixel within gridBandFraction of a gridline's mm
// position, on either axis, the grid colour: a banded grid rather than
// single-pixel lines at exact multiples of gridIntervalMM.
func drawGrid(canvas *image.RGBA, canvasPx int, pixelsPerMM float64) {
	if pixelsPerMM <= 0 {
		return
	}
	grid := color.RGBA{0x64, 0x64, 0x64, 255}
	band := gridIntervalMM * gridBandFraction
	for y := range canvasPx {
		my := float64(y) / pixelsPerMM
		onY := distanceToNearestGridline(my) <= band
		for x := range canvasPx {
			mx := float64(x) / pixelsPerMM
			if onY || distanceToNearestGridline(mx) <= band {
				canvas.Set(x, y, grid)
			}
		}
	}
}

// drawPlus stamps a 4px-thick plus-shaped, unblended marker centred on
// (cx,cy): 2 pixels left/right and 2 pixels up/down from the centre.
func drawPlus(canvas *image.RGBA, cx, cy int, colour markerColour) {
	bounds := canvas.Bounds()
	set := func(x, y int) {
		if image.Pt(x, y).In(bounds) {
			canvas.Set(x, y, color.RGBA{colour[0], colour[1], colour[2], 255})
		}
	}
	for d := -2; d <= 2; d++ {
		set(cx+d, cy)
		set(cx, cy+d)
	}
}
