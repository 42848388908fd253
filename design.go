package spirit

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/pkg/errors"
	"seehuhn.de/go/geom/path"
)

// DesignOffset shifts an entire design relative to its as-drawn position,
// in millimetres. +X is further right, +Y is further down, matching the
// SVG document's own axis convention.
type DesignOffset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewDesignOffset builds an offset, clamping both components to >= 0:
// a design can only be nudged further into the bed, never off its
// top-left edge.
func NewDesignOffset(x, y float64) DesignOffset {
	return DesignOffset{X: max(0, x), Y: max(0, y)}
}

// UnmarshalJSON decodes {"x": ..., "y": ...} and applies the same
// >= 0 clamp as NewDesignOffset.
func (o *DesignOffset) UnmarshalJSON(data []byte) error {
	var raw struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "unmarshal design offset")
	}
	*o = NewDesignOffset(raw.X, raw.Y)
	return nil
}

// DesignFile is a loaded, parsed SVG design ready to be resolved against
// a Bed and a ToolProgram.
type DesignFile struct {
	// Name is a caller-supplied label, typically the source filename.
	Name string

	// WidthMM and HeightMM are sizing metadata taken from the SVG
	// document's root width/height attributes, converted to millimetres
	// at the 96 DPI convention when no unit is given (see DESIGN.md).
	// They describe the design's nominal size only; path coordinates
	// are always consumed as literal millimetres, independent of this
	// field.
	WidthMM, HeightMM float64

	// Paths groups the design's unflattened stroked geometry by stroke
	// colour, in document order within each colour bucket. Call
	// ResolvePaths to flatten it at a chosen sampling interval.
	Paths *PathsByColour[path.Data]

	// Stats carries collection diagnostics (see CollectStats).
	Stats CollectStats

	// ContentHash is the SHA-256 digest of the design's raw source
	// bytes, hex-encoded. Used by a PreviewWorker to recognise that a
	// newly submitted design differs from whatever it last rendered.
	ContentHash string
}

// HashContent returns the hex-encoded SHA-256 digest of raw design bytes,
// suitable for DesignFile.ContentHash.
func HashContent(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// LoadDesign parses raw SVG bytes into a DesignFile, named name.
func LoadDesign(name string, raw []byte) (*DesignFile, error) {
	paths, stats, widthMM, heightMM, err := Collect(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return &DesignFile{
		Name:        name,
		WidthMM:     widthMM,
		HeightMM:    heightMM,
		Paths:       paths,
		Stats:       stats,
		ContentHash: HashContent(raw),
	}, nil
}
