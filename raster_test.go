package spirit

import (
	"image/color"
	"testing"
)

func TestRasteriserRenderDrawsMarkerInPassColour(t *testing.T) {
	bed := NewBed(0, 100, false, 0, 100, false)
	program := DefaultToolProgram()
	black := PathColour{11, 22, 33}
	program.Passes[0] = NewToolPass("Black", black, 50, 50, true)

	paths := NewPathsByColour[PathInMM]()
	paths.Append(black, PathInMM{NewPointMM(50, 50)})

	r := NewRasteriser()
	img := r.Render(paths, program, bed, 100, MaxZoom)

	pixelsPerMM := 100.0 * MaxZoom / 100.0
	px, py := mmToPixel(NewPointMM(50, 50), bed, pixelsPerMM)
	got := img.At(px, py)
	want := color.RGBA{11, 22, 33, 255}
	if got != want {
		t.Errorf("marker pixel = %+v, want %+v", got, want)
	}
}

func TestRasteriserRenderSkipsColourWithNoEnabledPass(t *testing.T) {
	bed := NewBed(0, 100, false, 0, 100, false)
	program := DefaultToolProgram()
	unmatched := PathColour{9, 9, 9}

	paths := NewPathsByColour[PathInMM]()
	paths.Append(unmatched, PathInMM{NewPointMM(50, 50)})

	r := NewRasteriser()
	img := r.Render(paths, program, bed, 100, 1)

	pixelsPerMM := 100.0 * MaxZoom / 100.0
	px, py := mmToPixel(NewPointMM(50, 50), bed, pixelsPerMM)
	got := img.At(px, py)
	if got == (color.RGBA{9, 9, 9, 255}) {
		t.Error("a colour with no enabled pass should not be drawn")
	}
}

func TestRasteriserReusesCanvasWhenNotGrowing(t *testing.T) {
	bed := NewBed(0, 100, false, 0, 100, false)
	program := DefaultToolProgram()
	r := NewRasteriser()

	first := r.Render(NewPathsByColour[PathInMM](), program, bed, 50, 1)
	second := r.Render(NewPathsByColour[PathInMM](), program, bed, 50, 1)
	if &first.Pix[0] != &second.Pix[0] {
		t.Error("Render should reuse the backing canvas across calls of the same size")
	}
}

func TestMmToPixelOrigin(t *testing.T) {
	bed := NewBed(0, 100, false, 0, 100, false)
	px, py := mmToPixel(NewPointMM(0, 0), bed, 5.0)
	if px != 0 || py != 0 {
		t.Errorf("mmToPixel(0,0) = (%d,%d), want (0,0)", px, py)
	}
}

func TestRasteriserRenderCanvasSizeFollowsZoom(t *testing.T) {
	bed := NewBed(0, 100, false, 0, 100, false)
	program := DefaultToolProgram()
	r := NewRasteriser()

	img := r.Render(NewPathsByColour[PathInMM](), program, bed, 100, 2)
	want := 210 // ceil(100*2*1.05)
	if got := img.Bounds().Dx(); got != want {
		t.Errorf("canvas width = %d, want %d", got, want)
	}
	if got := img.Bounds().Dy(); got != want {
		t.Errorf("canvas height = %d, want %d (a square canvas)", got, want)
	}
}

func TestRasteriserRenderClampsZoom(t *testing.T) {
	bed := NewBed(0, 100, false, 0, 100, false)
	program := DefaultToolProgram()
	r := NewRasteriser()

	atMax := r.Render(NewPathsByColour[PathInMM](), program, bed, 100, MaxZoom)
	overMax := r.Render(NewPathsByColour[PathInMM](), program, bed, 100, 50)
	if overMax.Bounds().Dx() != atMax.Bounds().Dx() {
		t.Errorf("canvas width at zoom=50 (%d) should match zoom=MaxZoom (%d)",
			overMax.Bounds().Dx(), atMax.Bounds().Dx())
	}
}
