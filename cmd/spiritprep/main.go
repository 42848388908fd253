// Command spiritprep turns an SVG design into a PCL job ready to send to
// a GCC Spirit laser cutter, or renders a preview PNG of it.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"

	"github.com/pkg/errors"

	"hpgl.dev/go/spirit"
)

func main() {
	var (
		svgPath     = flag.String("svg", "", "path to the SVG design (required)")
		programPath = flag.String("program", "", "path to a tool-program JSON file (defaults to DefaultToolProgram)")
		offsetX     = flag.Float64("offset-x", 0, "design offset, mm")
		offsetY     = flag.Float64("offset-y", 0, "design offset, mm")
		previewOut  = flag.String("preview", "", "if set, write a preview PNG here instead of emitting PCL")
		previewSize = flag.Int("preview-size", 800, "preview canvas size, px")
		previewZoom = flag.Float64("preview-zoom", 1, "preview zoom, 1-5")
		verbose     = flag.Bool("v", false, "log warnings and progress to stderr")
	)
	flag.Parse()

	if *verbose {
		spirit.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	}

	if err := run(*svgPath, *programPath, *offsetX, *offsetY, *previewOut, *previewSize, *previewZoom); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(svgPath, programPath string, offsetX, offsetY float64, previewOut string, previewSize int, previewZoom float64) error {
	if svgPath == "" {
		return errors.New("spiritprep: -svg is required")
	}

	raw, err := os.ReadFile(svgPath)
	if err != nil {
		return errors.Wrap(err, "read svg")
	}
	design, err := spirit.LoadDesign(svgPath, raw)
	if err != nil {
		return errors.Wrap(err, "load design")
	}

	program := spirit.DefaultToolProgram()
	if programPath != "" {
		data, err := os.ReadFile(programPath)
		if err != nil {
			return errors.Wrap(err, "read tool program")
		}
		program = &spirit.ToolProgram{}
		if err := program.UnmarshalJSON(data); err != nil {
			return errors.Wrap(err, "parse tool program")
		}
	}

	bed := spirit.DefaultBed()
	offset := spirit.NewDesignOffset(offsetX, offsetY)

	if previewOut != "" {
		worker := spirit.NewPreviewWorker()
		defer worker.Close()

		reply := make(chan spirit.RenderResult, 1)
		worker.Submit(&spirit.RenderRequest{
			Design: design, Offset: offset, Program: program, Bed: bed,
			Size: previewSize, Zoom: previewZoom, Reply: reply,
		})
		result := <-reply
		if result.Dropped {
			return errors.New("spiritprep: preview render was dropped")
		}
		if result.Err != nil {
			return errors.Wrap(result.Err, "render preview")
		}

		f, err := os.Create(previewOut)
		if err != nil {
			return errors.Wrap(err, "create preview file")
		}
		defer f.Close()
		return png.Encode(f, result.Image)
	}

	pcl, err := spirit.BuildJob(design, offset, program, bed, svgPath)
	if err != nil {
		return errors.Wrap(err, "build job")
	}
	_, err = os.Stdout.WriteString(pcl)
	return err
}
