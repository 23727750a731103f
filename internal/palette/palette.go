// Package palette provides the categorical palettes and the 256-entry value
// ramp shared by the aggregation layer and the chart endpoints.
package palette

import (
	"fmt"
	"math"
)

// Category10 is the standard 10-colour categorical palette.
var Category10 = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// Category20 is the standard 20-colour categorical palette.
var Category20 = []string{
	"#1f77b4", "#aec7e8", "#ff7f0e", "#ffbb78", "#2ca02c",
	"#98df8a", "#d62728", "#ff9896", "#9467bd", "#c5b0d5",
	"#8c564b", "#c49c94", "#e377c2", "#f7b6d2", "#7f7f7f",
	"#c7c7c7", "#bcbd22", "#dbdb8d", "#17becf", "#9edae5",
}

// rampAnchors are the perceptual ramp control points; Ramp256 interpolates
// them into 256 steps.
var rampAnchors = []string{
	"#440154", "#482777", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
}

// Ramp256 is the 256-entry value-to-colour ramp, built once at init.
var Ramp256 = buildRamp(rampAnchors, 256)

// SingleValueFallback is the colour used when a value range collapses to a
// single point and ramp scaling would divide by zero.
const SingleValueFallback = "#ffcc00"

func buildRamp(anchors []string, n int) []string {
	out := make([]string, n)
	segments := len(anchors) - 1
	for i := 0; i < n; i++ {
		pos := float64(i) / float64(n-1) * float64(segments)
		seg := int(pos)
		if seg >= segments {
			seg = segments - 1
		}
		out[i] = Lerp(anchors[seg], anchors[seg+1], pos-float64(seg))
	}
	return out
}

// Lerp linearly interpolates between two hex colours in RGB space.
func Lerp(a, b string, t float64) string {
	ar, ag, ab := rgb(a)
	br, bg, bb := rgb(b)
	mix := func(x, y int) int {
		return x + int(math.Round(float64(y-x)*t))
	}
	return fmt.Sprintf("#%02x%02x%02x", mix(ar, br), mix(ag, bg), mix(ab, bb))
}

func rgb(hex string) (r, g, b int) {
	fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b)
	return r, g, b
}
