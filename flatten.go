package spirit

import (
	"math"

	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"
)

// FlattenTolerance is the fixed device-space error tolerance, in
// millimetres, used when subdividing curves. This is not
// caller-configurable: the resampling interval passed to Flatten is what
// callers tune (1.0mm for cutting, 0.1mm for preview), not the
// underlying curve-approximation error.
const FlattenTolerance = 0.1

// Flatten walks p's command stream exactly like a raster edge-collector
// walks a path.Data (see DESIGN.md), but instead of building antialiased
// edges it appends samples to a PathInMM. Straight MoveTo/LineTo/Close
// vertices pass through unchanged; only curve commands are subdivided
// to FlattenTolerance and then resampled at a regular arc-length
// interval (in millimetres) — a straight line between two vertices is
// already exact, so resampling it would only add points without adding
// information. A closed subpath gets its first point appended again at
// the end, so callers never need to special-case closure.
func Flatten(p path.Data, intervalMM float64) PathInMM {
	var out []vec.Vec2
	var cur, subpath vec.Vec2
	closed := false

	appendPoint := func(v vec.Vec2) {
		if len(out) == 0 || out[len(out)-1] != v {
			out = append(out, v)
		}
	}

	emitCurve := func(from, to vec.Vec2, subdivide func(emit func(from, to vec.Vec2))) {
		var rough []vec.Vec2
		emit := func(from, to vec.Vec2) {
			if len(rough) == 0 {
				rough = append(rough, from)
			}
			rough = append(rough, to)
		}
		subdivide(emit)
		for _, v := range resampleRegular(rough, intervalMM) {
			appendPoint(v)
		}
	}

	coordIdx := 0
	for _, cmd := range p.Cmds {
		switch cmd {
		case path.CmdMoveTo:
			cur = p.Coords[coordIdx]
			subpath = cur
			appendPoint(cur)
			coordIdx++

		case path.CmdLineTo:
			appendPoint(p.Coords[coordIdx])
			cur = p.Coords[coordIdx]
			coordIdx++

		case path.CmdQuadTo:
			p1, p2 := p.Coords[coordIdx], p.Coords[coordIdx+1]
			emitCurve(cur, p2, func(emit func(from, to vec.Vec2)) {
				flattenQuadratic(cur, p1, p2, emit)
			})
			cur = p2
			coordIdx += 2

		case path.CmdCubeTo:
			p1, p2, p3 := p.Coords[coordIdx], p.Coords[coordIdx+1], p.Coords[coordIdx+2]
			emitCurve(cur, p3, func(emit func(from, to vec.Vec2)) {
				flattenCubic(cur, p1, p2, p3, emit)
			})
			cur = p3
			coordIdx += 3

		case path.CmdClose:
			if cur != subpath {
				appendPoint(subpath)
			}
			cur = subpath
			closed = true
		}
	}

	if len(out) == 0 {
		return nil
	}
	if closed && out[0] != out[len(out)-1] {
		out = append(out, out[0])
	}

	result := make(PathInMM, len(out))
	for i, v := range out {
		result[i] = PointMM{v}
	}
	return result
}

// flattenQuadratic subdivides a quadratic Bezier to FlattenTolerance,
// calling emit for each resulting line segment. Uses the same
// device-space error estimate as a CTM-aware edge collector, but with
// the linear transform dropped since this pipeline flattens directly in
// mm space.
func flattenQuadratic(p0, p1, p2 vec.Vec2, emit func(from, to vec.Vec2)) {
	e := p0.Sub(p1.Mul(2)).Add(p2).Mul(0.25)

	n := 1
	errLen := e.Length()
	if errLen > FlattenTolerance {
		n = int(math.Ceil(math.Sqrt(errLen / FlattenTolerance)))
	}

	prev := p0
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		omt := 1 - t
		pt := p0.Mul(omt * omt).Add(p1.Mul(2 * omt * t)).Add(p2.Mul(t * t))
		emit(prev, pt)
		prev = pt
	}
}

// flattenCubic subdivides a cubic Bezier to FlattenTolerance using Wang's
// formula, calling emit for each resulting line segment.
func flattenCubic(p0, p1, p2, p3 vec.Vec2, emit func(from, to vec.Vec2)) {
	d1 := p0.Sub(p1.Mul(2)).Add(p2)
	d2 := p1.Sub(p2.Mul(2)).Add(p3)

	m := max(d1.Length(), d2.Length())
	n := 1
	if m > 0 {
		nFloat := math.Sqrt(3 * m / (4 * FlattenTolerance))
		if nFloat > 1 {
			n = int(math.Ceil(nFloat))
		}
	}

	prev := p0
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		omt := 1 - t
		omt2 := omt * omt
		omt3 := omt2 * omt
		t2 := t * t
		t3 := t2 * t
		pt := p0.Mul(omt3).Add(p1.Mul(3 * omt2 * t)).Add(p2.Mul(3 * omt * t2)).Add(p3.Mul(t3))
		emit(prev, pt)
		prev = pt
	}
}

// resampleRegular walks a polyline by arc length and returns a new
// polyline with points spaced interval apart, always including the
// first and last point of the input (see DESIGN.md).
func resampleRegular(pts []vec.Vec2, interval float64) []vec.Vec2 {
	if len(pts) == 0 {
		return nil
	}
	if len(pts) == 1 || interval <= 0 {
		return pts
	}

	out := []vec.Vec2{pts[0]}
	segStart := pts[0]
	carry := 0.0

	for i := 1; i < len(pts); i++ {
		segEnd := pts[i]
		segLen := segEnd.Sub(segStart).Length()
		if segLen == 0 {
			segStart = segEnd
			continue
		}
		dist := interval - carry
		for dist < segLen {
			t := dist / segLen
			out = append(out, vec.Vec2{
				X: segStart.X + (segEnd.X-segStart.X)*t,
				Y: segStart.Y + (segEnd.Y-segStart.Y)*t,
			})
			dist += interval
		}
		carry = dist - segLen
		segStart = segEnd
	}

	last := pts[len(pts)-1]
	if out[len(out)-1] != last {
		out = append(out, last)
	}
	return out
}
