package spirit

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// NumPasses is the fixed number of pens a PCL pen table describes.
const NumPasses = 16

// MaxPowerSpeed bounds a pass's power and speed values. Both are
// unitless proportions of the machine's maximum, 0-1000.
const MaxPowerSpeed = 1000

// ToolPass describes one pass of the laser over paths of a given colour.
type ToolPass struct {
	Name    string
	Colour  PathColour
	Power   int // 0-1000, proportion of max power
	Speed   int // 0-1000, proportion of max speed
	Enabled bool
}

func clampPowerSpeed(v int) int {
	return max(0, min(MaxPowerSpeed, v))
}

// NewToolPass builds a ToolPass, clamping power and speed to
// [0,MaxPowerSpeed].
func NewToolPass(name string, colour PathColour, power, speed int, enabled bool) ToolPass {
	return ToolPass{
		Name:    name,
		Colour:  colour,
		Power:   clampPowerSpeed(power),
		Speed:   clampPowerSpeed(speed),
		Enabled: enabled,
	}
}

// SetPower and SetSpeed clamp their argument to [0,MaxPowerSpeed];
// direct field writes skip the clamp, so prefer these on values coming
// from user input.
func (p *ToolPass) SetPower(power int) { p.Power = clampPowerSpeed(power) }
func (p *ToolPass) SetSpeed(speed int) { p.Speed = clampPowerSpeed(speed) }

// ToolProgram is an ordered list of tool passes. Pen indices in HPGL/PCL
// output are derived from position within Passes (pen 1 is Passes[0],
// and so on), so the order here matters even though it has no bearing on
// which paths a pass matches.
type ToolProgram struct {
	Passes []ToolPass
}

// DefaultToolProgram returns a starting-point program of 16 disabled
// passes over a small stock palette, the natural "new job" state before
// a user assigns real passes.
func DefaultToolProgram() *ToolProgram {
	stock := [4]PathColour{
		{0, 0, 0},
		{255, 0, 0},
		{0, 255, 0},
		{0, 0, 255},
	}
	p := &ToolProgram{Passes: make([]ToolPass, NumPasses)}
	for i := range p.Passes {
		colour := stock[i%len(stock)]
		p.Passes[i] = NewToolPass(fmt.Sprintf("Pass %d", i+1), colour, 100, 20, false)
	}
	return p
}

// PassForColour returns the last enabled pass in program order whose
// colour matches, its index, and true, or the zero ToolPass, -1 and false
// if none enabled matches. When more than one pass shares a colour, later entries win;
// this mirrors the ambiguity already present in the protocol this
// program feeds (see DESIGN.md) rather than resolving it silently.
func (p *ToolProgram) PassForColour(colour PathColour) (pass ToolPass, index int, ok bool) {
	for i := len(p.Passes) - 1; i >= 0; i-- {
		if p.Passes[i].Enabled && p.Passes[i].Colour == colour {
			return p.Passes[i], i, true
		}
	}
	return ToolPass{}, -1, false
}

type toolPassJSON struct {
	Name    string   `json:"name"`
	Colour  [3]uint8 `json:"colour"`
	Power   int      `json:"power"`
	Speed   int      `json:"speed"`
	Enabled bool     `json:"enabled"`
}

// MarshalJSON exports the program as exactly NumPasses entries, padding
// with disabled zero-power passes or truncating extras as needed.
func (p *ToolProgram) MarshalJSON() ([]byte, error) {
	out := make([]toolPassJSON, NumPasses)
	for i := range out {
		if i < len(p.Passes) {
			pass := p.Passes[i]
			out[i] = toolPassJSON{
				Name:    pass.Name,
				Colour:  [3]uint8(pass.Colour),
				Power:   pass.Power,
				Speed:   pass.Speed,
				Enabled: pass.Enabled,
			}
		} else {
			out[i] = toolPassJSON{Name: "", Colour: [3]uint8{}, Power: 0, Speed: 0, Enabled: false}
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts any number of passes, unlike MarshalJSON's fixed
// 16-entry output; callers that need exactly 16 should call Pad.
func (p *ToolProgram) UnmarshalJSON(data []byte) error {
	var in []toolPassJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return errors.Wrap(err, "unmarshal tool program")
	}
	p.Passes = make([]ToolPass, len(in))
	for i, j := range in {
		p.Passes[i] = NewToolPass(j.Name, PathColour(j.Colour), j.Power, j.Speed, j.Enabled)
	}
	return nil
}

// Pad truncates or extends Passes to exactly NumPasses entries in place,
// padding with disabled zero-power passes.
func (p *ToolProgram) Pad() {
	if len(p.Passes) >= NumPasses {
		p.Passes = p.Passes[:NumPasses]
		return
	}
	for len(p.Passes) < NumPasses {
		p.Passes = append(p.Passes, ToolPass{})
	}
}
