package spirit

import "errors"

// The four error kinds a caller may need to distinguish. Wrap one of
// these with fmt.Errorf's %w or github.com/pkg/errors.Wrap and test with
// errors.Is.
var (
	// ErrSvgParse is returned when an SVG document cannot be parsed, or
	// when it contains path data this package does not understand.
	ErrSvgParse = errors.New("spirit: could not parse svg")

	// ErrEmitPrecondition is returned when HPGL/PCL emission is asked to
	// run against a precondition it cannot satisfy, such as a tool
	// program without exactly NumPasses entries or without an enabled
	// pass. A design with no resolvable paths is not an error.
	ErrEmitPrecondition = errors.New("spirit: precondition for emission not met")

	// ErrDeviceWrite is exported for collaborators that perform the
	// actual transport to a device; this package never raises it
	// itself, but wrapping transport errors with it lets every caller
	// use one errors.Is check regardless of transport.
	ErrDeviceWrite = errors.New("spirit: device write failed")

	// ErrPointOutOfBed marks a point that fell outside a Bed's
	// machine-representable range. It is logged, not returned as a hard
	// failure: out-of-bed points are dropped and the design continues.
	ErrPointOutOfBed = errors.New("spirit: point outside bed range")
)
