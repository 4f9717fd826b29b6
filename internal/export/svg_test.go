package export

import (
	"strings"
	"testing"
)

func TestSeriesToSVG(t *testing.T) {
	times := []float64{0, 1, 2, 3}
	values := []float64{1.5, 1.6, 1.8, 2.0}

	svg, err := SeriesToSVG(times, values, SVGOptions{Title: "levelC"})
	if err != nil {
		t.Fatalf("SeriesToSVG: %v", err)
	}
	if !strings.HasPrefix(svg, `<?xml version="1.0"`) {
		t.Error("missing XML prolog")
	}
	if !strings.Contains(svg, "<svg") || !strings.Contains(svg, "</svg>") {
		t.Error("not a complete SVG document")
	}
	if !strings.Contains(svg, "levelC") {
		t.Error("title not rendered")
	}
	if !strings.Contains(svg, "<path") {
		t.Error("no polyline path in output")
	}
}

func TestSeriesToSVGFlatSeries(t *testing.T) {
	times := []float64{0, 1, 2}
	values := []float64{1.5, 1.5, 1.5}

	svg, err := SeriesToSVG(times, values, SVGOptions{})
	if err != nil {
		t.Fatalf("flat series should render: %v", err)
	}
	if strings.Contains(svg, "NaN") || strings.Contains(svg, "Inf") {
		t.Error("flat series must not produce non-finite coordinates")
	}
}

func TestSeriesToSVGBadInput(t *testing.T) {
	if _, err := SeriesToSVG([]float64{0}, []float64{1}, SVGOptions{}); err == nil {
		t.Error("single sample should be rejected")
	}
	if _, err := SeriesToSVG([]float64{0, 1, 2}, []float64{1, 2}, SVGOptions{}); err == nil {
		t.Error("mismatched lengths should be rejected")
	}
}
