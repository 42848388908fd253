package spirit

import (
	"fmt"

	"seehuhn.de/go/geom/vec"
)

// MMPerPlotterUnit is the HPGL/2 default distance a single plotter unit
// represents: 0.025mm, independent of any SC scaling.
const MMPerPlotterUnit = 0.025

// PointMM is a point expressed in millimetres, in the SVG document's
// coordinate space (+x right, +y down).
type PointMM struct {
	vec.Vec2
}

// NewPointMM builds a PointMM from raw millimetre coordinates.
func NewPointMM(x, y float64) PointMM {
	return PointMM{vec.Vec2{X: x, Y: y}}
}

// Add returns p shifted by the given offset.
func (p PointMM) Add(o DesignOffset) PointMM {
	return PointMM{vec.Vec2{X: p.X + o.X, Y: p.Y + o.Y}}
}

// ResolvedPoint is a point in HPGL/2 plotter units, signed 16-bit range.
type ResolvedPoint struct {
	X, Y int16
}

// PathInMM is an ordered polyline in millimetre space.
type PathInMM []PointMM

// ResolvedPath is an ordered polyline in plotter-unit space, ready to be
// traced by a pen.
type ResolvedPath []ResolvedPoint

// PathColour is the RGB colour a path's stroke was drawn with, matched
// against a ToolPass's colour to decide which pen traces it.
type PathColour [3]uint8

// String renders the colour as a "#rrggbb" hex string.
func (c PathColour) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

// PathsByColour groups an ordered collection of paths by the colour they
// were drawn with, preserving the order paths were first discovered in
// within each colour bucket. T is path.Data for unflattened geometry,
// PathInMM for flattened millimetre geometry, or ResolvedPath for
// plotter-ready geometry.
type PathsByColour[T any] struct {
	order []PathColour
	paths map[PathColour][]T
}

// NewPathsByColour returns an empty grouping.
func NewPathsByColour[T any]() *PathsByColour[T] {
	return &PathsByColour[T]{paths: make(map[PathColour][]T)}
}

// Append records path under colour, creating the bucket if this is the
// first path of that colour seen.
func (g *PathsByColour[T]) Append(colour PathColour, path T) {
	if _, ok := g.paths[colour]; !ok {
		g.order = append(g.order, colour)
	}
	g.paths[colour] = append(g.paths[colour], path)
}

// Colours returns the colours present, in first-seen order.
func (g *PathsByColour[T]) Colours() []PathColour {
	return g.order
}

// Paths returns the paths recorded under colour, or nil if none were.
func (g *PathsByColour[T]) Paths(colour PathColour) []T {
	return g.paths[colour]
}

// Len returns the total number of paths across all colours.
func (g *PathsByColour[T]) Len() int {
	n := 0
	for _, c := range g.order {
		n += len(g.paths[c])
	}
	return n
}
