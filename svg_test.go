package spirit

import (
	"strings"
	"testing"

	"seehuhn.de/go/geom/path"
)

func TestCollectSizeMMHonoursExplicitSuffix(t *testing.T) {
	svg := `<svg width="50mm" height="25mm"></svg>`
	_, _, w, h, err := Collect(strings.NewReader(svg))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if w != 50 || h != 25 {
		t.Errorf("size = %v,%v, want 50,25", w, h)
	}
}

func TestCollectSizeMMConvertsBarePxAt96DPI(t *testing.T) {
	svg := `<svg width="96" height="192"></svg>`
	_, _, w, h, err := Collect(strings.NewReader(svg))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if got, want := w, 25.4; got != want {
		t.Errorf("width = %v, want %v", got, want)
	}
	if got, want := h, 50.8; got != want {
		t.Errorf("height = %v, want %v", got, want)
	}
}

func TestCollectGroupsByStrokeColourAcrossNestedGroups(t *testing.T) {
	svg := `<svg width="10mm" height="10mm">` +
		`<g><path d="M0,0 L1,1" stroke="#ff0000"/></g>` +
		`<path d="M2,2 L3,3" stroke="#ff0000"/>` +
		`<path d="M4,4 L5,5" stroke="#00ff00"/>` +
		`</svg>`
	paths, stats, _, _, err := Collect(strings.NewReader(svg))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if stats.Paths != 3 {
		t.Errorf("stats.Paths = %d, want 3", stats.Paths)
	}
	red := PathColour{255, 0, 0}
	if got := len(paths.Paths(red)); got != 2 {
		t.Errorf("len(Paths(red)) = %d, want 2", got)
	}
	green := PathColour{0, 255, 0}
	if got := len(paths.Paths(green)); got != 1 {
		t.Errorf("len(Paths(green)) = %d, want 1", got)
	}
}

func TestCollectSkipsImageAndTextSubtrees(t *testing.T) {
	svg := `<svg width="10mm" height="10mm">` +
		`<image href="x.png"><path d="M0,0 L1,1" stroke="#000000"/></image>` +
		`<text>hello<path d="M0,0 L1,1" stroke="#000000"/></text>` +
		`<path d="M0,0 L1,1" stroke="#000000"/>` +
		`</svg>`
	paths, stats, _, _, err := Collect(strings.NewReader(svg))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if stats.SkippedImages != 1 || stats.SkippedText != 1 {
		t.Errorf("stats = %+v, want one skipped image and one skipped text", stats)
	}
	if got := paths.Len(); got != 1 {
		t.Errorf("paths.Len() = %d, want 1 (paths nested inside image/text must not be collected)", got)
	}
}

func TestCollectReadsColourFromStyleAttribute(t *testing.T) {
	svg := `<svg width="10mm" height="10mm">` +
		`<path d="M0,0 L1,1" style="fill:none;stroke:#abc;stroke-width:1"/>` +
		`</svg>`
	paths, _, _, _, err := Collect(strings.NewReader(svg))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	want := PathColour{0xaa, 0xbb, 0xcc}
	if got := len(paths.Paths(want)); got != 1 {
		t.Errorf("len(Paths(#abc)) = %d, want 1; colours seen: %v", got, paths.Colours())
	}
}

func TestCollectIgnoresPathWithNoResolvableStroke(t *testing.T) {
	svg := `<svg width="10mm" height="10mm">` +
		`<path d="M0,0 L1,1" stroke="none"/>` +
		`<path d="M0,0 L1,1" stroke="red"/>` +
		`</svg>`
	paths, stats, _, _, err := Collect(strings.NewReader(svg))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if paths.Len() != 0 {
		t.Errorf("paths.Len() = %d, want 0 (stroke=\"none\"/named colours unresolved)", paths.Len())
	}
	if stats.Paths != 0 {
		t.Errorf("stats.Paths = %d, want 0", stats.Paths)
	}
}

func TestParsePathDataRejectsUnsupportedCommand(t *testing.T) {
	if _, err := parsePathData("M0,0 A1,1 0 0 1 2,2"); err == nil {
		t.Error("expected an error for an arc command")
	}
}

func TestParsePathDataRelativeLineAndClose(t *testing.T) {
	data, err := parsePathData("M0,0 l10,0 l0,10 z")
	if err != nil {
		t.Fatalf("parsePathData: %v", err)
	}
	wantCmds := []path.Command{path.CmdMoveTo, path.CmdLineTo, path.CmdLineTo, path.CmdLineTo, path.CmdClose}
	if len(data.Cmds) != len(wantCmds) {
		t.Fatalf("len(Cmds) = %d, want %d (%v)", len(data.Cmds), len(wantCmds), data.Cmds)
	}
	for i, c := range wantCmds {
		if data.Cmds[i] != c {
			t.Errorf("Cmds[%d] = %v, want %v", i, data.Cmds[i], c)
		}
	}
	last := data.Coords[len(data.Coords)-1]
	if last.X != 0 || last.Y != 0 {
		t.Errorf("implicit close-line endpoint = %+v, want back at the subpath start (0,0)", last)
	}
}

func TestParsePathDataImplicitRepeatedCommand(t *testing.T) {
	// "L" followed by three coordinate pairs with no repeated letter.
	data, err := parsePathData("M0,0 L1,1 2,2 3,3")
	if err != nil {
		t.Fatalf("parsePathData: %v", err)
	}
	lineTos := 0
	for _, c := range data.Cmds {
		if c == path.CmdLineTo {
			lineTos++
		}
	}
	if lineTos != 3 {
		t.Errorf("lineTos = %d, want 3 implicit-repeat line segments", lineTos)
	}
}

func TestParsePathDataMovetoRepeatsAreImplicitLinetos(t *testing.T) {
	data, err := parsePathData("M0,0 5,5 10,0")
	if err != nil {
		t.Fatalf("parsePathData: %v", err)
	}
	wantCmds := []path.Command{path.CmdMoveTo, path.CmdLineTo, path.CmdLineTo}
	if len(data.Cmds) != len(wantCmds) {
		t.Fatalf("Cmds = %v, want one moveto then implicit linetos", data.Cmds)
	}
	for i, c := range wantCmds {
		if data.Cmds[i] != c {
			t.Errorf("Cmds[%d] = %v, want %v", i, data.Cmds[i], c)
		}
	}
}

func TestCollectDefsContentIsNotTracedWithoutReference(t *testing.T) {
	svg := `<svg width="10mm" height="10mm">` +
		`<defs><path d="M0,0 L1,1" stroke="#000000"/></defs>` +
		`<clipPath><path d="M0,0 L2,2" stroke="#000000"/></clipPath>` +
		`<mask><path d="M0,0 L3,3" stroke="#000000"/></mask>` +
		`<pattern><path d="M0,0 L4,4" stroke="#000000"/></pattern>` +
		`<symbol><path d="M0,0 L5,5" stroke="#000000"/></symbol>` +
		`</svg>`
	paths, _, _, _, err := Collect(strings.NewReader(svg))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if got := paths.Len(); got != 0 {
		t.Errorf("paths.Len() = %d, want 0: unreferenced subroot contents must not be traced", got)
	}
}

func TestCollectUseResolvesReferencedGeometry(t *testing.T) {
	svg := `<svg width="10mm" height="10mm">` +
		`<defs><path id="blade" d="M0,0 L5,0" stroke="#000000"/></defs>` +
		`<use href="#blade"/>` +
		`</svg>`
	paths, stats, _, _, err := Collect(strings.NewReader(svg))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if stats.Paths != 1 {
		t.Errorf("stats.Paths = %d, want 1: the use site makes the defs path visible exactly once", stats.Paths)
	}
	black := PathColour{0, 0, 0}
	if got := len(paths.Paths(black)); got != 1 {
		t.Errorf("len(Paths(black)) = %d, want 1", got)
	}
}

func TestCollectUseResolvesForwardReference(t *testing.T) {
	svg := `<svg width="10mm" height="10mm">` +
		`<use href="#late"/>` +
		`<defs><path id="late" d="M0,0 L5,0" stroke="#000000"/></defs>` +
		`</svg>`
	paths, _, _, _, err := Collect(strings.NewReader(svg))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if got := paths.Len(); got != 1 {
		t.Errorf("paths.Len() = %d, want 1: a use may point at an element defined later", got)
	}
}

func TestCollectEachUseYieldsAFreshInstance(t *testing.T) {
	svg := `<svg width="10mm" height="10mm" xmlns:xlink="http://www.w3.org/1999/xlink">` +
		`<defs><g id="part"><path d="M0,0 L5,0" stroke="#000000"/></g></defs>` +
		`<use href="#part"/>` +
		`<use xlink:href="#part" x="2" y="3"/>` +
		`</svg>`
	paths, _, _, _, err := Collect(strings.NewReader(svg))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	black := PathColour{0, 0, 0}
	got := paths.Paths(black)
	if len(got) != 2 {
		t.Fatalf("len(Paths(black)) = %d, want 2: one fresh entry per use site", len(got))
	}
	if first := got[0].Coords[0]; first.X != 0 || first.Y != 0 {
		t.Errorf("first instance starts at %+v, want (0,0)", first)
	}
	if second := got[1].Coords[0]; second.X != 2 || second.Y != 3 {
		t.Errorf("second instance starts at %+v, want the use's x/y translation (2,3)", second)
	}
}

func TestCollectUseReferenceCycleTerminates(t *testing.T) {
	svg := `<svg width="10mm" height="10mm">` +
		`<defs>` +
		`<use id="a" href="#b"/>` +
		`<use id="b" href="#a"/>` +
		`</defs>` +
		`<use href="#a"/>` +
		`</svg>`
	paths, _, _, _, err := Collect(strings.NewReader(svg))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if got := paths.Len(); got != 0 {
		t.Errorf("paths.Len() = %d, want 0: a reference cycle carries no geometry", got)
	}
}

func TestCollectUseOfUnknownTargetIsSkipped(t *testing.T) {
	svg := `<svg width="10mm" height="10mm">` +
		`<use href="#missing"/>` +
		`<path d="M0,0 L1,1" stroke="#000000"/>` +
		`</svg>`
	paths, _, _, _, err := Collect(strings.NewReader(svg))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if got := paths.Len(); got != 1 {
		t.Errorf("paths.Len() = %d, want 1: an unresolvable use is skipped, not fatal", got)
	}
}
