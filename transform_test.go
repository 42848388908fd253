package spirit

import (
	"testing"

	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"
)

func straightLine(x0, y0, x1, y1 float64) path.Data {
	return path.Data{
		Cmds:   []path.Command{path.CmdMoveTo, path.CmdLineTo},
		Coords: []vec.Vec2{{X: x0, Y: y0}, {X: x1, Y: y1}},
	}
}

func TestResolvePathsAppliesOffset(t *testing.T) {
	raw := NewPathsByColour[path.Data]()
	black := PathColour{0, 0, 0}
	raw.Append(black, straightLine(0, 0, 10, 0))

	got := ResolvePaths(raw, DesignOffset{X: 5, Y: -2}, 1.0)
	paths := got.Paths(black)
	if len(paths) != 1 {
		t.Fatalf("len(paths) = %d, want 1", len(paths))
	}
	first := paths[0][0]
	if first.X != 5 || first.Y != -2 {
		t.Errorf("first point = %+v, want offset applied: (5,-2)", first)
	}
}

func TestFilterToEnabledPassesDropsUnmatchedColours(t *testing.T) {
	resolved := NewPathsByColour[PathInMM]()
	black := PathColour{0, 0, 0}
	green := PathColour{0, 255, 0}
	resolved.Append(black, PathInMM{NewPointMM(0, 0)})
	resolved.Append(green, PathInMM{NewPointMM(1, 1)})

	program := DefaultToolProgram()
	program.Passes[0] = NewToolPass("Black", black, 50, 50, true)

	got := FilterToEnabledPasses(resolved, program)
	if len(got.Colours()) != 1 || got.Colours()[0] != black {
		t.Errorf("Colours() = %v, want only black", got.Colours())
	}
}

func TestFilterToEnabledPassesDropsAllWhenNoPassEnabled(t *testing.T) {
	resolved := NewPathsByColour[PathInMM]()
	resolved.Append(PathColour{0, 0, 0}, PathInMM{NewPointMM(0, 0)})

	got := FilterToEnabledPasses(resolved, DefaultToolProgram())
	if got.Len() != 0 {
		t.Errorf("Len() = %d, want 0 (no passes enabled)", got.Len())
	}
}

func TestToPlotterUnitsSplitsPathAtDroppedPoint(t *testing.T) {
	bed := gccSpiritBed()
	inMM := NewPathsByColour[PathInMM]()
	black := PathColour{0, 0, 0}
	inMM.Append(black, PathInMM{NewPointMM(0, 0), NewPointMM(-100, 0), NewPointMM(10, 0)})

	got := ToPlotterUnits(inMM, bed)
	paths := got.Paths(black)
	if len(paths) != 2 {
		t.Fatalf("len(paths) = %d, want 2 (split at the dropped point)", len(paths))
	}
	if len(paths[0]) != 1 || len(paths[1]) != 1 {
		t.Errorf("segment lengths = %d,%d, want 1,1", len(paths[0]), len(paths[1]))
	}
}

func TestResolvePathsOffsetRoundTrip(t *testing.T) {
	raw := NewPathsByColour[path.Data]()
	black := PathColour{0, 0, 0}
	raw.Append(black, straightLine(1.25, 2.5, 17.75, 9.125))

	plain := ResolvePaths(raw, DesignOffset{}, 1.0)
	there := ResolvePaths(raw, DesignOffset{X: 100, Y: 50}, 1.0)

	const eps = 1e-9
	for i, p := range there.Paths(black)[0] {
		q := plain.Paths(black)[0][i]
		if dx := (p.X - 100) - q.X; dx > eps || dx < -eps {
			t.Errorf("point %d: x after undoing the offset = %v, want %v", i, p.X-100, q.X)
		}
		if dy := (p.Y - 50) - q.Y; dy > eps || dy < -eps {
			t.Errorf("point %d: y after undoing the offset = %v, want %v", i, p.Y-50, q.Y)
		}
	}
}
