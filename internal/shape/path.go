package shape

import (
	"math"
	"strconv"
	"strings"
)

// Point is a screen-space coordinate
type Point struct {
	X, Y float64
}

// Path accumulates SVG path commands
type Path struct {
	b     strings.Builder
	empty bool
}

// NewPath returns an empty path
func NewPath() *Path {
	return &Path{empty: true}
}

func (p *Path) write(cmd byte, coords ...float64) {
	p.b.WriteByte(cmd)
	for i, c := range coords {
		if i > 0 {
			p.b.WriteByte(',')
		}
		p.b.WriteString(formatCoord(c))
	}
	p.empty = false
}

// MoveTo starts a new subpath
func (p *Path) MoveTo(x, y float64) { p.write('M', x, y) }

// LineTo draws a straight segment
func (p *Path) LineTo(x, y float64) { p.write('L', x, y) }

// BezierCurveTo draws a cubic segment
func (p *Path) BezierCurveTo(x1, y1, x2, y2, x, y float64) { p.write('C', x1, y1, x2, y2, x, y) }

// ClosePath closes the current subpath
func (p *Path) ClosePath() { p.write('Z') }

// String returns the path data, or "" when nothing was drawn
func (p *Path) String() string {
	if p.empty {
		return ""
	}
	return p.b.String()
}

// formatCoord prints at most three decimals without trailing zeros
func formatCoord(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	v = math.Round(v*1000) / 1000
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
