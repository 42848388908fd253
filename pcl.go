package spirit

import (
	"fmt"
	"strings"
)

const esc = "\x1b"

// WrapInPCL wraps an HPGL/2 program in the PCL envelope a GCC Spirit
// expects to receive: a PJL job boundary, a PCL reset and filename
// announcement, the 16-entry pen table, rasteriser/unit-of-measure
// setup, a switch into HPGL mode to run hpgl, and a matching teardown
// back to PCL and another PJL job boundary. Byte layout grounded on
// DESIGN.md's pcl.go entry; filename is truncated to 255 bytes since
// its length is encoded in a single ESC!mNN N field.
func WrapInPCL(hpgl, filename string, program *ToolProgram) (string, error) {
	if program == nil || len(program.Passes) != NumPasses {
		return "", ErrEmitPrecondition
	}
	if len(filename) > 255 {
		filename = filename[:255]
	}

	var b strings.Builder
	b.WriteString(pjlUniversalExitLanguage())
	b.WriteString(pclReset())
	b.WriteString(pclFilename(filename))
	b.WriteString(pclPenTable(program.Passes))
	b.WriteString(pclRasterResolution(508))
	b.WriteString(pclUnitOfMeasure(508))
	fmt.Fprintf(&b, "%s!r0N", esc)
	b.WriteString(pclEnterPCLMode())
	fmt.Fprintf(&b, "%s!r1000I%s!r1000K%s!r500P", esc, esc, esc)
	b.WriteString(pclRasterResolution(508))
	b.WriteString(pclUnitOfMeasure(508))
	fmt.Fprintf(&b, "%s!m0S%s!s1S", esc, esc)
	b.WriteString(pclEnterHPGLMode())
	b.WriteString(hpgl)
	b.WriteString(pclEnterPCLMode())
	b.WriteString(pclReset())
	b.WriteString(pjlUniversalExitLanguage())
	return b.String(), nil
}

// pjlUniversalExitLanguage switches between PJL and PCL command
// contexts; a job starts and ends with it.
func pjlUniversalExitLanguage() string {
	return esc + "%-12345X"
}

// pclReset enters PCL and resets the printer to a known state.
func pclReset() string {
	return esc + "E"
}

// pclFilename reports the job's filename, shown on the machine's panel.
func pclFilename(filename string) string {
	return fmt.Sprintf("%s!m%dN%s", esc, len(filename), filename)
}

// pclPenTable builds the PCL pen table: enable flags, per-pen PPI, speed,
// power, and finally which pens are active, matching the original
// device firmware's expected field order (R, I, V, P, D).
func pclPenTable(passes []ToolPass) string {
	numPens := len(passes)
	messageBytes := numPens * 4

	var b strings.Builder
	fmt.Fprintf(&b, "%s!v%dR", esc, numPens)
	b.WriteString(strings.Repeat("1", numPens))

	fmt.Fprintf(&b, "%s!v%dI", esc, messageBytes)
	b.WriteString(strings.Repeat("0400", numPens))

	fmt.Fprintf(&b, "%s!v%dV", esc, messageBytes)
	for _, pass := range passes {
		fmt.Fprintf(&b, "%04d", pass.Speed)
	}

	fmt.Fprintf(&b, "%s!v%dP", esc, messageBytes)
	for _, pass := range passes {
		fmt.Fprintf(&b, "%04d", pass.Power)
	}

	fmt.Fprintf(&b, "%s!v%dD", esc, numPens)
	for _, pass := range passes {
		if pass.Enabled {
			b.WriteByte(0x02) // SOX
		} else {
			b.WriteByte(0x00) // NUL
		}
	}

	return b.String()
}

// pclRasterResolution sets the DPI used by PCL rasterisation.
func pclRasterResolution(dpi int) string {
	return fmt.Sprintf("%s*t%dR", esc, dpi)
}

// pclUnitOfMeasure sets the DPI equivalent of a single machine unit.
func pclUnitOfMeasure(dpi int) string {
	return fmt.Sprintf("%s&u%dR", esc, dpi)
}

// pclEnterPCLMode switches into PCL mode.
func pclEnterPCLMode() string {
	return esc + "%1A"
}

// pclEnterHPGLMode switches into the HPGL sub-mode of PCL.
func pclEnterHPGLMode() string {
	return esc + "%1B"
}
