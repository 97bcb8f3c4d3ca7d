package analysis

import (
	"strings"

	"github.com/san-kum/takosim/internal/sim"
)

type Point struct{ X, Y float64 }

// Portrait2D holds two recorded fields plotted against each other.
type Portrait2D struct {
	XLabel, YLabel string
	Points         []Point
}

// NewPortrait pairs two fields of every sample.
func NewPortrait(samples []sim.Sample, xLabel string, x func(sim.Sample) float64, yLabel string, y func(sim.Sample) float64) *Portrait2D {
	p := &Portrait2D{
		XLabel: xLabel,
		YLabel: yLabel,
		Points: make([]Point, 0, len(samples)),
	}
	for _, s := range samples {
		p.Points = append(p.Points, Point{X: x(s), Y: y(s)})
	}
	return p
}

// PortraitToASCII draws the portrait on a width x height character grid.
func PortraitToASCII(portrait *Portrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := portrait.Points[0].X, portrait.Points[0].X
	minY, maxY := portrait.Points[0].Y, portrait.Points[0].Y

	for _, p := range portrait.Points {
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}

	// pad
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	for _, p := range portrait.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))

		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// Crossings returns the interpolated times at which series rises through
// threshold.
func Crossings(times, series []float64, threshold float64) []float64 {
	out := make([]float64, 0)
	n := min(len(times), len(series))
	for i := 1; i < n; i++ {
		prev, curr := series[i-1], series[i]
		if prev < threshold && curr >= threshold {
			frac := (threshold - prev) / (curr - prev)
			out = append(out, times[i-1]+frac*(times[i]-times[i-1]))
		}
	}
	return out
}

// MeanInterval is the average gap between consecutive crossing times.
func MeanInterval(crossings []float64) float64 {
	if len(crossings) < 2 {
		return 0
	}
	return (crossings[len(crossings)-1] - crossings[0]) / float64(len(crossings)-1)
}
