package spirit

import (
	"fmt"
	"math"

	"seehuhn.de/go/geom/rect"
)

// validPlotterRangeMM is the mm range a signed 16-bit plotter-unit axis can
// represent at the default 0.025mm/unit scale.
var validPlotterRangeMM = struct{ min, max float64 }{
	min: float64(math.MinInt16) * MMPerPlotterUnit,
	max: float64(math.MaxInt16) * MMPerPlotterUnit,
}

// Bed describes a printable area in millimetres, along with which axes
// need mirroring to reach the device's native origin convention. The GCC
// Spirit, for example, has y=0 at the bottom of the bed, so DefaultBed
// mirrors its Y axis (and only that axis) to give callers a top-left
// (0,0) design space.
type Bed struct {
	xAxis rect.Rect // only LLx/URx used, LLy/URy both 0
	yAxis rect.Rect // only LLy/URy used

	// MirrorX flips the X axis direction when mapping to plotter units.
	MirrorX bool
	// MirrorY flips the Y axis direction when mapping to plotter units.
	MirrorY bool
}

// NewBed builds a Bed spanning [xMin,xMax] x [yMin,yMax] millimetres.
// Axis endpoints that fall outside the signed-16-bit plotter-unit range
// are clamped to it, with a warning logged through [Logger].
//
// NewBed panics if an axis is given out of order or contains NaN/Inf.
func NewBed(xMin, xMax float64, mirrorX bool, yMin, yMax float64, mirrorY bool) *Bed {
	if xMin > xMax {
		panic("spirit: bed x axis given out of order")
	}
	if yMin > yMax {
		panic("spirit: bed y axis given out of order")
	}
	xMin = clampAxisValue(xMin)
	xMax = clampAxisValue(xMax)
	yMin = clampAxisValue(yMin)
	yMax = clampAxisValue(yMax)

	return &Bed{
		xAxis:   rect.Rect{LLx: xMin, URx: xMax},
		yAxis:   rect.Rect{LLy: yMin, URy: yMax},
		MirrorX: mirrorX,
		MirrorY: mirrorY,
	}
}

// DefaultBed returns the bed of the GCC Spirit this package targets:
// 901.52mm x 463.20mm, y axis mirrored so document-space (0,0) maps to
// the device's top-left.
func DefaultBed() *Bed {
	return NewBed(0, 901.52, false, 0, 463.20, true)
}

func clampAxisValue(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		panic(fmt.Sprintf("spirit: bed axis value %v is not finite", v))
	}
	if v < validPlotterRangeMM.min || v > validPlotterRangeMM.max {
		adjusted := max(validPlotterRangeMM.min, min(validPlotterRangeMM.max, v))
		Logger().Warn("bed axis value out of plotter-representable range, clamping",
			"value", v, "adjusted", adjusted)
		return adjusted
	}
	return v
}

// MinX, MaxX, MinY and MaxY return the bed's extent in millimetres.
func (b *Bed) MinX() float64 { return b.xAxis.LLx }
func (b *Bed) MaxX() float64 { return b.xAxis.URx }
func (b *Bed) MinY() float64 { return b.yAxis.LLy }
func (b *Bed) MaxY() float64 { return b.yAxis.URy }

// Place converts a point in millimetres into the same point in plotter
// units for this bed, applying axis mirroring, bounds checking, and
// round-half-away-from-zero rounding. It returns ok=false if the point
// lies outside the bed or would not fit a signed 16-bit plotter unit;
// [ErrPointOutOfBed] is logged, not returned: out-of-bed points are
// dropped rather than failing the whole job.
func (b *Bed) Place(p PointMM) (ResolvedPoint, bool) {
	if p.X < b.MinX() || p.X > b.MaxX() || p.Y < b.MinY() || p.Y > b.MaxY() {
		Logger().Warn("point outside bed, dropping", "point", p, "err", ErrPointOutOfBed)
		return ResolvedPoint{}, false
	}

	x := p.X
	y := p.Y
	// Mirroring is the literal axis.end - p_axis, not axis.end - (p_axis -
	// axis.start): a mirrored axis with a non-zero start does not recentre
	// around that start first. This reproduces the original device
	// mapping as it is rather than correcting it.
	if b.MirrorX {
		x = b.MaxX() - x
	}
	if b.MirrorY {
		y = b.MaxY() - y
	}

	ux := roundHalfAwayFromZero(x / MMPerPlotterUnit)
	uy := roundHalfAwayFromZero(y / MMPerPlotterUnit)
	if ux < math.MinInt16 || ux > math.MaxInt16 || uy < math.MinInt16 || uy > math.MaxInt16 {
		Logger().Warn("point rounds outside plotter unit range, dropping", "point", p, "err", ErrPointOutOfBed)
		return ResolvedPoint{}, false
	}

	return ResolvedPoint{X: int16(ux), Y: int16(uy)}, true
}

func roundHalfAwayFromZero(v float64) float64 {
	return math.Round(v)
}

// MMToPlotterUnits converts a plain millimetre distance (not a bed-bound
// point) to plotter units, rounding half away from zero. It does not
// perform mirroring or bounds checking. EmitHPGL does not use it: the
// home-position moves at the start and end of every HPGL program go
// through [Bed.Place].
func MMToPlotterUnits(mm float64) int16 {
	return int16(roundHalfAwayFromZero(mm / MMPerPlotterUnit))
}
