// Package export renders stored trajectories to SVG line charts.
package export

import (
	"fmt"
	"strings"
)

// SVGOptions controls chart geometry and styling.
type SVGOptions struct {
	Width  int
	Height int
	Stroke string
	Title  string
}

// DefaultSVGOptions returns the nominal chart styling.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{Width: 800, Height: 400, Stroke: "#49c0b6"}
}

// SeriesToSVG renders one sampled variable against time as an SVG
// polyline with a light padding margin around the data bounds.
func SeriesToSVG(times, values []float64, opts SVGOptions) (string, error) {
	if len(times) < 2 || len(times) != len(values) {
		return "", fmt.Errorf("export: need matching time and value series, got %d/%d", len(times), len(values))
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		d := DefaultSVGOptions()
		opts.Width, opts.Height = d.Width, d.Height
	}
	if opts.Stroke == "" {
		opts.Stroke = DefaultSVGOptions().Stroke
	}

	minT, maxT := bounds(times)
	minV, maxV := bounds(values)

	// Pad so a flat series still renders mid-chart.
	spanT := maxT - minT
	if spanT == 0 {
		spanT = 1
	}
	spanV := maxV - minV
	if spanV == 0 {
		spanV = 1
	}
	minV -= spanV * 0.1
	spanV *= 1.2

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#101418"/>
`, opts.Width, opts.Height, opts.Width, opts.Height)

	if opts.Title != "" {
		fmt.Fprintf(&sb, `<text x="12" y="22" fill="#c8d0d8" font-family="monospace" font-size="14">%s</text>
`, opts.Title)
	}

	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, opts.Stroke)
	for i := range times {
		x := (times[i] - minT) / spanT * float64(opts.Width)
		y := float64(opts.Height) - (values[i]-minV)/spanV*float64(opts.Height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n</svg>\n")
	return sb.String(), nil
}

func bounds(data []float64) (float64, float64) {
	lo, hi := data[0], data[0]
	for _, v := range data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
