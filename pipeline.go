package spirit

// CutInterval is the flattening/resampling resolution used when
// preparing a design for actual cutting: coarser than PreviewInterval
// since the laser traces real material, not a screen.
const CutInterval = 1.0

// BuildJob runs the full print-preparation pipeline end to end: flatten
// at cutting resolution, drop colours with no enabled pass, map into
// plotter units against bed, synthesise HPGL, and wrap it in the PCL
// envelope a GCC Spirit expects. filename is the job name shown on the
// machine's panel.
func BuildJob(design *DesignFile, offset DesignOffset, program *ToolProgram, bed *Bed, filename string) (string, error) {
	padded := &ToolProgram{Passes: append([]ToolPass(nil), program.Passes...)}
	padded.Pad()

	resolvedMM := ResolvePaths(design.Paths, offset, CutInterval)
	filtered := FilterToEnabledPasses(resolvedMM, padded)
	plotterUnits := ToPlotterUnits(filtered, bed)

	hpgl, err := EmitHPGL(plotterUnits, padded, bed)
	if err != nil {
		return "", err
	}
	return WrapInPCL(hpgl, filename, padded)
}
