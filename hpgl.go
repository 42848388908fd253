package spirit

import (
	"fmt"
	"strings"
)

// EmitHPGL synthesises an HPGL/2 program tracing paths with program's
// enabled tool passes, in pass order. A pass with no matching paths
// contributes no pen-select command to the body; only the header's
// initial SPk can select such a pen. Pen indices are 1-based
// (Passes[0] is pen 1).
//
// The program always begins with IN;SC;PU;SPk;LT; — k the 1-based index
// of the first enabled pass — and a pen-up move to the bed's home
// position, and always ends with a pen-up move home, SP0;, and the
// literal EC0;EC1;OE; terminator bytes, kept uninterpreted per
// DESIGN.md.
//
// EmitHPGL requires a program of exactly NumPasses entries with at
// least one enabled pass; anything else returns ErrEmitPrecondition.
// Callers with a shorter program call [ToolProgram.Pad] first.
func EmitHPGL(paths *PathsByColour[ResolvedPath], program *ToolProgram, bed *Bed) (string, error) {
	if program == nil || len(program.Passes) != NumPasses {
		return "", ErrEmitPrecondition
	}
	firstEnabled := -1
	for i, pass := range program.Passes {
		if pass.Enabled {
			firstEnabled = i
			break
		}
	}
	if firstEnabled < 0 {
		return "", ErrEmitPrecondition
	}

	home, ok := bed.Place(NewPointMM(0, 0))
	if !ok {
		return "", ErrEmitPrecondition
	}

	var b strings.Builder
	fmt.Fprintf(&b, "IN;SC;PU;SP%d;LT;PU%d,%d;", firstEnabled+1, home.X, home.Y)

	for i, pass := range program.Passes {
		if !pass.Enabled {
			continue
		}
		ps := paths.Paths(pass.Colour)
		if len(ps) == 0 {
			continue
		}
		fmt.Fprintf(&b, "SP%d;", i+1)
		for _, p := range ps {
			tracePath(&b, p)
		}
	}

	fmt.Fprintf(&b, "PU%d,%d;SP0;EC0;EC1;OE;", home.X, home.Y)
	return b.String(), nil
}

// tracePath appends a pen-up move to the path's first point followed by
// a pen-down move through every subsequent point. The first point is
// already reached by the PU, so it is not re-emitted as a PD. A path of
// fewer than one point contributes nothing.
func tracePath(b *strings.Builder, path ResolvedPath) {
	if len(path) == 0 {
		return
	}
	fmt.Fprintf(b, "PU%d,%d;", path[0].X, path[0].Y)
	for _, pt := range path[1:] {
		fmt.Fprintf(b, "PD%d,%d;", pt.X, pt.Y)
	}
}
