package spirit

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"
)

// svgUnitsPerMM is the CSS px-per-mm conversion at the 96 DPI convention
// assumed for bare numeric width/height attributes (see DESIGN.md Open
// Question 1).
const svgUnitsPerMM = 96.0 / 25.4

// CollectStats carries informational counters from Collect, for display
// purposes only; they never affect resolved geometry.
type CollectStats struct {
	Paths         int
	Points        int
	SkippedImages int
	SkippedText   int
}

// Collect walks an SVG document and groups every stroked path by its
// stroke colour, preserving document order within each colour bucket.
// Groups (<g>) are descended in document order; <image> and <text>
// subtrees are skipped entirely, since this package never rasterises
// embedded images or lays out text.
//
// Subroot containers (<defs>, <clipPath>, <mask>, <pattern>, <symbol>)
// are not visible where they sit: their contents are traced only when
// a <use> reference lands inside them, and every reference yields a
// fresh instance — the same target used twice is collected twice. A
// <use> may point forward to an element defined later in the document,
// so the whole tree is read before any path is collected.
func Collect(r io.Reader) (*PathsByColour[path.Data], CollectStats, float64, float64, error) {
	dec := xml.NewDecoder(r)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, CollectStats{}, 0, 0, errors.Wrap(ErrSvgParse, err.Error())
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "svg" {
			continue
		}

		widthMM, heightMM := rootSizeMM(start)
		root, err := readTree(dec, start)
		if err != nil {
			return nil, CollectStats{}, widthMM, heightMM, err
		}
		c := &collector{
			paths:  NewPathsByColour[path.Data](),
			index:  make(map[string]*svgNode),
			active: make(map[*svgNode]bool),
		}
		c.indexIDs(root)
		if err := c.walk(root, vec.Vec2{}); err != nil {
			return nil, c.stats, widthMM, heightMM, err
		}
		return c.paths, c.stats, widthMM, heightMM, nil
	}
	return NewPathsByColour[path.Data](), CollectStats{}, 0, 0, nil
}

func rootSizeMM(root xml.StartElement) (w, h float64) {
	nonMM := false
	for _, attr := range root.Attr {
		switch attr.Name.Local {
		case "width":
			w = lengthToMM(attr.Value)
			nonMM = nonMM || !strings.HasSuffix(strings.TrimSpace(attr.Value), "mm")
		case "height":
			h = lengthToMM(attr.Value)
			nonMM = nonMM || !strings.HasSuffix(strings.TrimSpace(attr.Value), "mm")
		}
	}
	if nonMM {
		Logger().Warn("svg size not given in mm: converted at 96 DPI, while path coordinates are read as mm",
			"widthMM", w, "heightMM", h)
	}
	return w, h
}

func lengthToMM(s string) float64 {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "mm") {
		v, _ := strconv.ParseFloat(strings.TrimSuffix(s, "mm"), 64)
		return v
	}
	s = strings.TrimSuffix(s, "px")
	v, _ := strconv.ParseFloat(s, 64)
	return v / svgUnitsPerMM
}

// svgNode is one element of the parsed document tree. The whole tree
// is built before collection starts: a <use> may reference an element
// defined later in the document, so references cannot be resolved in
// a single streaming pass.
type svgNode struct {
	name     string
	attrs    []xml.Attr
	children []*svgNode
}

// readTree consumes tokens up to and including start's matching end
// element, returning the subtree rooted at start.
func readTree(dec *xml.Decoder, start xml.StartElement) (*svgNode, error) {
	n := &svgNode{name: start.Name.Local, attrs: start.Attr}
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return n, nil
			}
			return nil, errors.Wrap(ErrSvgParse, err.Error())
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := readTree(dec, t)
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, child)
		case xml.EndElement:
			return n, nil
		}
	}
}

// subrootNames are the containers whose contents are not visible where
// they sit in document order. They are traced only through a <use>
// reference landing inside them.
var subrootNames = map[string]bool{
	"defs":     true,
	"clipPath": true,
	"mask":     true,
	"pattern":  true,
	"symbol":   true,
}

type collector struct {
	paths *PathsByColour[path.Data]
	stats CollectStats

	// index maps id attributes to their nodes, across the whole
	// document, subroot contents included.
	index map[string]*svgNode
	// active holds the targets currently being instantiated, guarding
	// against <use> reference cycles.
	active map[*svgNode]bool
}

func (c *collector) indexIDs(n *svgNode) {
	for _, attr := range n.attrs {
		if attr.Name.Local == "id" && attr.Value != "" {
			if _, ok := c.index[attr.Value]; !ok {
				c.index[attr.Value] = n
			}
		}
	}
	for _, child := range n.children {
		c.indexIDs(child)
	}
}

// walk visits n's children in document order. offset is the
// accumulated <use> x/y translation, zero outside any instantiation.
func (c *collector) walk(n *svgNode, offset vec.Vec2) error {
	for _, child := range n.children {
		if err := c.visit(child, offset); err != nil {
			return err
		}
	}
	return nil
}

func (c *collector) visit(n *svgNode, offset vec.Vec2) error {
	switch {
	case n.name == "image":
		c.stats.SkippedImages++
	case n.name == "text":
		c.stats.SkippedText++
	case subrootNames[n.name]:
		// Invisible in document order; reachable through <use> only.
	case n.name == "use":
		return c.instantiate(n, offset)
	case n.name == "path":
		return c.collectPath(n, offset)
	case n.name == "g" || n.name == "switch" || n.name == "a":
		return c.walk(n, offset)
	}
	return nil
}

// instantiate resolves a <use> reference and traces the referenced
// subtree as a fresh instance, shifted by the use's x/y attributes.
// The same target referenced from two use sites is collected twice,
// once per site. Unresolvable references and reference cycles are
// logged and skipped, never fatal.
func (c *collector) instantiate(use *svgNode, offset vec.Vec2) error {
	ref := useHref(use)
	if ref == "" {
		return nil
	}
	target, ok := c.index[ref]
	if !ok {
		Logger().Warn("use references unknown element, skipping", "href", ref)
		return nil
	}
	if c.active[target] {
		Logger().Warn("use reference cycle, skipping", "href", ref)
		return nil
	}

	for _, attr := range use.attrs {
		switch attr.Name.Local {
		case "x":
			if v, _, ok := readFloat(strings.TrimSpace(attr.Value)); ok {
				offset.X += v
			}
		case "y":
			if v, _, ok := readFloat(strings.TrimSpace(attr.Value)); ok {
				offset.Y += v
			}
		}
	}

	c.active[target] = true
	defer delete(c.active, target)

	switch {
	case target.name == "path":
		return c.collectPath(target, offset)
	case target.name == "use":
		return c.instantiate(target, offset)
	case target.name == "image":
		c.stats.SkippedImages++
	case target.name == "text":
		c.stats.SkippedText++
	default:
		// Groups and subroot containers alike: instantiation makes
		// their contents visible.
		return c.walk(target, offset)
	}
	return nil
}

// useHref returns the fragment a <use> points at, honouring both the
// SVG 2 bare href and the SVG 1.1 xlink:href spelling. External (non
// "#id") references return "".
func useHref(n *svgNode) string {
	for _, attr := range n.attrs {
		if attr.Name.Local == "href" && strings.HasPrefix(attr.Value, "#") {
			return attr.Value[1:]
		}
	}
	return ""
}

func (c *collector) collectPath(n *svgNode, offset vec.Vec2) error {
	var d string
	colour, haveColour := PathColour{}, false
	for _, attr := range n.attrs {
		switch attr.Name.Local {
		case "d":
			d = attr.Value
		case "stroke":
			if col, ok := parseColourAttr(attr.Value); ok {
				colour, haveColour = col, true
			}
		case "style":
			if col, ok := strokeFromStyle(attr.Value); ok {
				colour, haveColour = col, true
			}
		}
	}
	if !haveColour || d == "" {
		return nil
	}
	data, err := parsePathData(d)
	if err != nil {
		return errors.Wrap(ErrSvgParse, err.Error())
	}
	if offset != (vec.Vec2{}) {
		for i := range data.Coords {
			data.Coords[i] = data.Coords[i].Add(offset)
		}
	}
	// One bucket entry per subpath, so no pen-down move joins the end of
	// one subpath to the start of the next.
	var sub path.Data
	ci := 0
	for _, cmd := range data.Cmds {
		if cmd == path.CmdMoveTo && len(sub.Cmds) > 0 {
			c.paths.Append(colour, sub)
			sub = path.Data{}
		}
		n := map[path.Command]int{path.CmdMoveTo: 1, path.CmdLineTo: 1, path.CmdQuadTo: 2, path.CmdCubeTo: 3}[cmd]
		sub.Cmds = append(sub.Cmds, cmd)
		sub.Coords = append(sub.Coords, data.Coords[ci:ci+n]...)
		ci += n
	}
	if len(sub.Cmds) > 0 {
		c.paths.Append(colour, sub)
	}
	c.stats.Paths++
	c.stats.Points += len(data.Coords)
	return nil
}

func strokeFromStyle(style string) (PathColour, bool) {
	for _, decl := range strings.Split(style, ";") {
		parts := strings.SplitN(decl, ":", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.TrimSpace(parts[0]) == "stroke" {
			return parseColourAttr(strings.TrimSpace(parts[1]))
		}
	}
	return PathColour{}, false
}

// parseColourAttr parses a "#rrggbb" or "#rgb" colour. Named colours and
// "none" are deliberately not resolved to a colour: "none" means no
// stroke (correctly ignored), and named colours are out of scope for
// this tool's expected palette-driven workflow.
func parseColourAttr(s string) (PathColour, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		return PathColour{}, false
	}
	hex := s[1:]
	switch len(hex) {
	case 6:
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return PathColour{}, false
		}
		return PathColour{byte(v >> 16), byte(v >> 8), byte(v)}, true
	case 3:
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return PathColour{}, false
		}
		r := byte(v>>8) & 0xf
		g := byte(v>>4) & 0xf
		b := byte(v) & 0xf
		return PathColour{r | r<<4, g | g<<4, b | b<<4}, true
	default:
		return PathColour{}, false
	}
}

// parsePathData tokenizes an SVG path "d" attribute restricted to the
// M/m, L/l, Q/q, C/c, Z/z commands this pipeline needs to flatten.
// Unsupported commands (arcs, H/V/S shorthand) cause an error rather
// than being silently dropped, since skipping them would silently
// corrupt the traced geometry.
func parsePathData(d string) (path.Data, error) {
	var out path.Data
	var cur, subpathStart vec.Vec2
	haveCurrent := false

	s := strings.TrimSpace(d)
	for {
		s = strings.TrimLeft(s, " ,\t\n\r")
		if len(s) == 0 {
			break
		}
		op := rune(s[0])
		switch op {
		case 'M', 'm', 'L', 'l', 'Q', 'q', 'C', 'c', 'Z', 'z':
		default:
			return path.Data{}, fmt.Errorf("unsupported path command %q", op)
		}
		s = s[1:]

		if op == 'Z' || op == 'z' {
			if haveCurrent && cur != subpathStart {
				out.Cmds = append(out.Cmds, path.CmdLineTo)
				out.Coords = append(out.Coords, subpathStart)
			}
			out.Cmds = append(out.Cmds, path.CmdClose)
			cur = subpathStart
			continue
		}

		rel := unicode.IsLower(op)
		nCoords := map[rune]int{'M': 1, 'L': 1, 'Q': 2, 'C': 3}[unicode.ToUpper(op)]
		firstPair := true
		for {
			pts, rest, n, err := readPoints(s, nCoords)
			if err != nil {
				return path.Data{}, err
			}
			if n == 0 {
				break
			}
			s = rest
			if rel {
				for i := range pts {
					pts[i].X += cur.X
					pts[i].Y += cur.Y
				}
			}
			switch unicode.ToUpper(op) {
			case 'M':
				cur = pts[0]
				haveCurrent = true
				if firstPair {
					// Extra pairs after a moveto are implicit linetos.
					subpathStart = cur
					out.Cmds = append(out.Cmds, path.CmdMoveTo)
				} else {
					out.Cmds = append(out.Cmds, path.CmdLineTo)
				}
				out.Coords = append(out.Coords, pts[0])
			case 'L':
				cur = pts[0]
				out.Cmds = append(out.Cmds, path.CmdLineTo)
				out.Coords = append(out.Coords, pts[0])
			case 'Q':
				cur = pts[1]
				out.Cmds = append(out.Cmds, path.CmdQuadTo)
				out.Coords = append(out.Coords, pts[0], pts[1])
			case 'C':
				cur = pts[2]
				out.Cmds = append(out.Cmds, path.CmdCubeTo)
				out.Coords = append(out.Coords, pts[0], pts[1], pts[2])
			}
			firstPair = false
			// SVG allows implicit command repeats for all of M/L/Q/C.
			s = strings.TrimLeft(s, " ,\t\n\r")
			if len(s) == 0 || strings.ContainsRune("MmLlQqCcZz", rune(s[0])) {
				break
			}
		}
	}
	return out, nil
}

// readPoints reads n (x,y) pairs from the front of s, returning the
// points, the unconsumed remainder, and how many pairs were read.
func readPoints(s string, n int) ([]vec.Vec2, string, int, error) {
	pts := make([]vec.Vec2, 0, n)
	for range n {
		s = strings.TrimLeft(s, " ,\t\n\r")
		x, rest, ok := readFloat(s)
		if !ok {
			if len(pts) == 0 {
				return nil, s, 0, nil
			}
			return nil, s, 0, fmt.Errorf("truncated coordinate pair in path data")
		}
		s = strings.TrimLeft(rest, " ,\t\n\r")
		y, rest2, ok := readFloat(s)
		if !ok {
			return nil, s, 0, fmt.Errorf("truncated coordinate pair in path data")
		}
		s = rest2
		pts = append(pts, vec.Vec2{X: x, Y: y})
	}
	return pts, s, len(pts), nil
}

// readFloat reads a leading SVG number (optionally signed, with a
// fractional part) from s, returning the unconsumed remainder.
func readFloat(s string) (float64, string, bool) {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && s[j] >= '0' && s[j] <= '9' {
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			i = j
		}
	}
	if i == start && (i == 0 || s[:i] == "+" || s[:i] == "-") {
		return 0, s, false
	}
	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, s, false
	}
	return v, s[i:], true
}
