package spirit

import (
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
)

// ResolvePaths flattens every path in raw to a PathInMM, applying offset
// as a translation and sampling the flattened curve at interval
// millimetres. Paths are flattened once per call; callers that need both
// a 1.0mm cutting resolution and a 0.1mm preview resolution call this
// twice with different intervals.
func ResolvePaths(raw *PathsByColour[path.Data], offset DesignOffset, intervalMM float64) *PathsByColour[PathInMM] {
	m := matrix.Matrix{1, 0, 0, 1, offset.X, offset.Y}
	out := NewPathsByColour[PathInMM]()
	for _, colour := range raw.Colours() {
		for _, p := range raw.Paths(colour) {
			flat := Flatten(p, intervalMM)
			if len(flat) == 0 {
				continue
			}
			shifted := make(PathInMM, len(flat))
			for i, pt := range flat {
				x := m[0]*pt.X + m[2]*pt.Y + m[4]
				y := m[1]*pt.X + m[3]*pt.Y + m[5]
				shifted[i] = NewPointMM(x, y)
			}
			out.Append(colour, shifted)
		}
	}
	return out
}

// FilterToEnabledPasses returns a new grouping containing only the
// colours that at least one enabled pass in program matches. Paths whose
// colour has no enabled pass are dropped entirely: a colour with no
// enabled pass never reaches the plotter.
func FilterToEnabledPasses(paths *PathsByColour[PathInMM], program *ToolProgram) *PathsByColour[PathInMM] {
	out := NewPathsByColour[PathInMM]()
	for _, colour := range paths.Colours() {
		if !anyEnabledPassMatches(program, colour) {
			continue
		}
		for _, p := range paths.Paths(colour) {
			out.Append(colour, p)
		}
	}
	return out
}

func anyEnabledPassMatches(program *ToolProgram, colour PathColour) bool {
	for _, pass := range program.Passes {
		if pass.Enabled && pass.Colour == colour {
			return true
		}
	}
	return false
}

// ToPlotterUnits converts every point of every path from millimetres to
// plotter units via bed.Place, dropping individual points that fall
// outside the bed (logged, not erred, per [Bed.Place]). Dropping a point
// out of the middle of a polyline breaks its contiguity, so the polyline
// is split there into two separate ResolvedPaths rather than stitching
// its in-bed neighbours directly together; a pen-up naturally appears
// between the resulting segments when they are later traced.
func ToPlotterUnits(paths *PathsByColour[PathInMM], bed *Bed) *PathsByColour[ResolvedPath] {
	out := NewPathsByColour[ResolvedPath]()
	for _, colour := range paths.Colours() {
		for _, p := range paths.Paths(colour) {
			var segment ResolvedPath
			for _, pt := range p {
				if rp, ok := bed.Place(pt); ok {
					segment = append(segment, rp)
					continue
				}
				if len(segment) > 0 {
					out.Append(colour, segment)
					segment = nil
				}
			}
			if len(segment) > 0 {
				out.Append(colour, segment)
			}
		}
	}
	return out
}
