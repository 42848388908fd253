// Package testfixtures holds the named scenarios exercised by this
// repository's tests, mirroring the shape of a small fixture package
// with a table of named cases grouped by category (see DESIGN.md).
package testfixtures

import "hpgl.dev/go/spirit"

// Scenario is one named, reproducible input to the print-preparation
// pipeline.
type Scenario struct {
	Name string
	SVG  string

	// Bed defaults to GCCSpiritBed() if nil.
	Bed *spirit.Bed
	// Program defaults to spirit.DefaultToolProgram() with every pass
	// enabled if nil.
	Program *spirit.ToolProgram
	Offset  spirit.DesignOffset
}

// GCCSpiritBed returns the target device's default bed.
func GCCSpiritBed() *spirit.Bed {
	return spirit.DefaultBed()
}

// singlePassProgram returns a 16-pass program with exactly one enabled
// pass matching colour, at the given index.
func singlePassProgram(index int, colour spirit.PathColour) *spirit.ToolProgram {
	p := spirit.DefaultToolProgram()
	p.Passes[index] = spirit.NewToolPass("Pass", colour, 50, 50, true)
	return p
}

// allPassesEnabledOn returns a 16-pass program with every pass set to
// colour and enabled, exercising the duplicate-colour pen-index
// ambiguity documented in DESIGN.md.
func allPassesEnabledOn(colour spirit.PathColour) *spirit.ToolProgram {
	p := spirit.DefaultToolProgram()
	for i := range p.Passes {
		p.Passes[i] = spirit.NewToolPass("Pass", colour, 30, 40, true)
	}
	return p
}

// All is the full set of named scenarios, grouped by the concern they
// exercise.
var All = map[string][]Scenario{
	"empty": {
		{
			Name:    "no_paths_pass_one_enabled",
			SVG:     `<svg width="100" height="100"></svg>`,
			Program: singlePassProgram(0, spirit.PathColour{0, 0, 0}),
		},
	},
	"line": {
		{
			Name: "single_black_line",
			SVG: `<svg width="100mm" height="100mm">` +
				`<path d="M0,0 L10,0" stroke="#000000"/>` +
				`</svg>`,
			Program: singlePassProgram(0, spirit.PathColour{0, 0, 0}),
		},
	},
	"closed": {
		{
			Name: "closed_triangle",
			SVG: `<svg width="100mm" height="100mm">` +
				`<path d="M0,0 L10,0 L10,10 Z" stroke="#ff0000"/>` +
				`</svg>`,
			Program: singlePassProgram(1, spirit.PathColour{255, 0, 0}),
		},
	},
	"filtering": {
		{
			Name: "two_colours_only_red_enabled",
			SVG: `<svg width="100mm" height="100mm">` +
				`<path d="M0,0 L10,0" stroke="#ff0000"/>` +
				`<path d="M0,5 L10,5" stroke="#00ff00"/>` +
				`</svg>`,
			Program: singlePassProgram(1, spirit.PathColour{255, 0, 0}),
		},
	},
	"duplicate_colour": {
		{
			Name: "sixteen_identical_black_passes",
			SVG: `<svg width="100mm" height="100mm">` +
				`<path d="M0,0 L10,0" stroke="#000000"/>` +
				`</svg>`,
			Program: allPassesEnabledOn(spirit.PathColour{0, 0, 0}),
		},
	},
	"offset": {
		{
			Name: "offset_applied_before_bed_mapping",
			SVG: `<svg width="100mm" height="100mm">` +
				`<path d="M0,0 L10,0" stroke="#000000"/>` +
				`</svg>`,
			Program: singlePassProgram(0, spirit.PathColour{0, 0, 0}),
			Offset:  spirit.DesignOffset{X: 5, Y: 5},
		},
		{
			Name: "single_black_line_offset_100_50",
			SVG: `<svg width="100mm" height="100mm">` +
				`<path d="M0,0 L10,0" stroke="#000000"/>` +
				`</svg>`,
			Program: singlePassProgram(0, spirit.PathColour{0, 0, 0}),
			Offset:  spirit.DesignOffset{X: 100, Y: 50},
		},
	},
}

// bed returns s.Bed if set, otherwise GCCSpiritBed().
func (s Scenario) bed() *spirit.Bed {
	if s.Bed != nil {
		return s.Bed
	}
	return GCCSpiritBed()
}

// LoadDesign parses the scenario's SVG into a DesignFile.
func (s Scenario) LoadDesign() (*spirit.DesignFile, error) {
	return spirit.LoadDesign(s.Name, []byte(s.SVG))
}

// Resolve runs the scenario all the way to a PCL job, using BuildJob.
func (s Scenario) Resolve() (string, error) {
	design, err := s.LoadDesign()
	if err != nil {
		return "", err
	}
	program := s.Program
	if program == nil {
		program = spirit.DefaultToolProgram()
		for i := range program.Passes {
			program.Passes[i].Enabled = true
		}
	}
	return spirit.BuildJob(design, s.Offset, program, s.bed(), s.Name)
}
