package shape

import (
	"math"
)

// Curve selects how consecutive points are joined
type Curve int

const (
	CurveLinear Curve = iota
	// CurveMonotoneX is a cubic spline that preserves monotonicity in y,
	// assuming x is monotonic (Steffen 1990).
	CurveMonotoneX
)

// curveWriter receives points for one line segment
type curveWriter interface {
	lineStart(line bool)
	point(x, y float64)
	lineEnd()
}

func newCurve(c Curve, p *Path) curveWriter {
	if c == CurveMonotoneX {
		return &monotoneX{path: p}
	}
	return &linear{path: p}
}

type linear struct {
	path  *Path
	line  bool
	count int
}

func (l *linear) lineStart(line bool) {
	l.line = line
	l.count = 0
}

func (l *linear) point(x, y float64) {
	if l.count == 0 && !l.line {
		l.path.MoveTo(x, y)
	} else {
		l.path.LineTo(x, y)
	}
	l.count++
}

func (l *linear) lineEnd() {}

type monotoneX struct {
	path           *Path
	line           bool
	x0, y0, x1, y1 float64
	t0             float64
	state          int
}

func (m *monotoneX) lineStart(line bool) {
	m.line = line
	m.x0, m.y0, m.x1, m.y1, m.t0 = math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()
	m.state = 0
}

func (m *monotoneX) point(x, y float64) {
	t1 := math.NaN()
	if x == m.x1 && y == m.y1 {
		return
	}
	switch m.state {
	case 0:
		m.state = 1
		if m.line {
			m.path.LineTo(x, y)
		} else {
			m.path.MoveTo(x, y)
		}
	case 1:
		m.state = 2
	case 2:
		m.state = 3
		t1 = m.slope3(x, y)
		m.bezier(m.slope2(t1), t1)
	default:
		t1 = m.slope3(x, y)
		m.bezier(m.t0, t1)
	}
	m.x0, m.x1 = m.x1, x
	m.y0, m.y1 = m.y1, y
	m.t0 = t1
}

func (m *monotoneX) lineEnd() {
	switch m.state {
	case 2:
		m.path.LineTo(m.x1, m.y1)
	case 3:
		m.bezier(m.t0, m.slope2(m.t0))
	}
}

// slope3 is the tangent at (x1,y1) given the next point
func (m *monotoneX) slope3(x2, y2 float64) float64 {
	h0 := m.x1 - m.x0
	h1 := x2 - m.x1
	s0 := (m.y1 - m.y0) / h0
	s1 := (y2 - m.y1) / h1
	p := (s0*h1 + s1*h0) / (h0 + h1)
	t := (sign(s0) + sign(s1)) * math.Min(math.Min(math.Abs(s0), math.Abs(s1)), 0.5*math.Abs(p))
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0
	}
	return t
}

// slope2 is the one-sided tangent at an end point
func (m *monotoneX) slope2(t float64) float64 {
	h := m.x1 - m.x0
	if h == 0 {
		return t
	}
	return (3*(m.y1-m.y0)/h - t) / 2
}

func (m *monotoneX) bezier(t0, t1 float64) {
	dx := (m.x1 - m.x0) / 3
	m.path.BezierCurveTo(m.x0+dx, m.y0+dx*t0, m.x1-dx, m.y1-dx*t1, m.x1, m.y1)
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
