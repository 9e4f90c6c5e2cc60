package geometry

import (
	"errors"
	"strings"
	"testing"

	"clipforge/internal/services"
)

func TestCheckComputedFramingAlwaysPasses(t *testing.T) {
	sources := []struct{ w, h int }{
		{1920, 1080},
		{1080, 1920},
		{1280, 720},
		{3840, 2160},
		{640, 480},
	}
	zooms := []float64{0.2, 0.5, 1.0, 1.7, 3.0}
	pans := []float64{0, -150, 150}

	for _, src := range sources {
		for _, zoom := range zooms {
			for _, pan := range pans {
				in := Input{
					SourceWidth:  src.w,
					SourceHeight: src.h,
					Zoom:         zoom,
					PanX:         pan,
					PanY:         -pan,
				}
				if err := Check(Compute(in), in); err != nil {
					t.Fatalf("source %dx%d zoom %.1f pan %.0f: %v", src.w, src.h, zoom, pan, err)
				}
			}
		}
	}
}

func TestCheckMeasuredRectMatchingAspectPasses(t *testing.T) {
	in := Input{
		SourceWidth:  1080,
		SourceHeight: 1920,
		Zoom:         1.0,
		MeasuredRect: &Rect{W: 200, H: 400},
	}
	if err := Check(Compute(in), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckMeasuredRectAspectDriftFails(t *testing.T) {
	in := Input{
		SourceWidth:  1920,
		SourceHeight: 1080,
		Zoom:         1.0,
		MeasuredRect: &Rect{W: 200, H: 400},
	}
	err := Check(Compute(in), in)
	if err == nil {
		t.Fatal("expected invariant violation")
	}
	if !errors.Is(err, services.ErrGeometryInvariant) {
		t.Fatalf("error %v does not match ErrGeometryInvariant", err)
	}

	var invErr *InvariantError
	if !errors.As(err, &invErr) {
		t.Fatalf("error %v does not carry InvariantError", err)
	}
	names := make(map[string]bool)
	for _, v := range invErr.Violations {
		names[v.Name] = true
	}
	if !names["uniform-scale"] || !names["aspect-ratio"] {
		t.Fatalf("violations = %v, want uniform-scale and aspect-ratio", invErr.Violations)
	}
}

func TestCheckOutputResolutionMismatch(t *testing.T) {
	in := Input{SourceWidth: 1920, SourceHeight: 1080, Zoom: 1.0}
	g := Compute(in)
	g.OutputWidth = 720

	err := Check(g, in)
	if err == nil {
		t.Fatal("expected invariant violation")
	}
	if !strings.Contains(err.Error(), "output-resolution") {
		t.Fatalf("error %v missing output-resolution violation", err)
	}
}

func TestCheckCropBounds(t *testing.T) {
	in := Input{SourceWidth: 1920, SourceHeight: 1080, Zoom: 1.0}
	g := Compute(in)
	g.CropY = g.CanvasHeight

	err := Check(g, in)
	if err == nil || !strings.Contains(err.Error(), "crop-bounds") {
		t.Fatalf("error %v, want crop-bounds violation", err)
	}
}
