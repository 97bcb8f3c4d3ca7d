package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/takosim/internal/sim"
	"github.com/san-kum/takosim/internal/viz"
)

// CanvasToSVG converts a Braille canvas to SVG, tinting every dot with the
// cook color of its cell.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2   // 2 sub-pixels per char
	height := float64(canvas.Height) * scale * 4 // 4 sub-pixels per char

	var sb strings.Builder

	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	// Braille dot-to-bit mapping
	pixelMap := [4][2]int{
		{0x01, 0x08},
		{0x02, 0x10},
		{0x04, 0x20},
		{0x40, 0x80},
	}

	dotRadius := scale * 0.4

	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			r := canvas.Grid[row][col]
			if r <= 0x2800 {
				continue
			}
			pattern := int(r - 0x2800)
			fill := viz.CookColor(canvas.Shade[row][col])

			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4

			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] != 0 {
						cx := baseX + float64(dx)*scale + scale/2
						cy := baseY + float64(dy)*scale + scale/2
						fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, cx, cy, dotRadius, fill)
					}
				}
			}
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// BallToSVG draws the session's ball in its current pose.
func BallToSVG(s *sim.Session, width, height int, scale float64) string {
	c := viz.NewCanvas(width, height)
	viz.DrawBall(c, viz.NewCamera(), s.Ball(), s.Mesh())
	return CanvasToSVG(c, scale)
}

type Point struct{ X, Y float64 }

// Series is one polyline of a chart.
type Series struct {
	Name   string
	Color  string
	Points []Point
}

// SampleSeries builds a series of field against time.
func SampleSeries(name, color string, samples []sim.Sample, field func(sim.Sample) float64) Series {
	pts := make([]Point, len(samples))
	for i, s := range samples {
		pts[i] = Point{s.Time, field(s)}
	}
	return Series{Name: name, Color: color, Points: pts}
}

// RunSeries is the default chart of a run: cook, shaping progress and
// mastery over time.
func RunSeries(samples []sim.Sample) []Series {
	return []Series{
		SampleSeries("cook", string(viz.CookColor(1)), samples, func(s sim.Sample) float64 { return s.Cook }),
		SampleSeries("progress", "#00ccff", samples, func(s sim.Sample) float64 { return s.Progress }),
		SampleSeries("mastery", "#ff88ff", samples, func(s sim.Sample) float64 { return s.Mastery }),
	}
}

// SeriesToSVG plots every series on shared axes with a small legend.
func SeriesToSVG(series []Series, width, height int) string {
	var minX, maxX, minY, maxY float64
	n := 0
	for _, s := range series {
		for _, p := range s.Points {
			if n == 0 {
				minX, maxX, minY, maxY = p.X, p.X, p.Y, p.Y
			}
			minX, maxX = min(minX, p.X), max(maxX, p.X)
			minY, maxY = min(minY, p.Y), max(maxY, p.Y)
			n++
		}
	}
	if n < 2 {
		return ""
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.05
	minY -= rangeY * 0.1
	rangeX *= 1.1
	rangeY *= 1.2

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for i, s := range series {
		if len(s.Points) < 2 {
			continue
		}
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, s.Color)
		for j, p := range s.Points {
			x := (p.X - minX) / rangeX * float64(width)
			y := float64(height) - (p.Y-minY)/rangeY*float64(height)
			if j == 0 {
				fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")
		fmt.Fprintf(&sb, `<text x="8" y="%d" fill="%s" font-family="monospace" font-size="12">%s</text>
`, 16+14*i, s.Color, s.Name)
	}

	sb.WriteString("</svg>")
	return sb.String()
}
