package shape

// Line returns SVG path data through the points using the given curve
func Line(points []Point, curve Curve) string {
	if len(points) == 0 {
		return ""
	}
	p := NewPath()
	w := newCurve(curve, p)
	w.lineStart(false)
	for _, pt := range points {
		w.point(pt.X, pt.Y)
	}
	w.lineEnd()
	return p.String()
}

// AreaPoint is one x position with its baseline and top
type AreaPoint struct {
	X, Y0, Y1 float64
}

// Area returns a closed SVG path running along the tops left to right and
// back along the baselines.
func Area(points []AreaPoint, curve Curve) string {
	if len(points) == 0 {
		return ""
	}
	p := NewPath()

	top := newCurve(curve, p)
	top.lineStart(false)
	for _, pt := range points {
		top.point(pt.X, pt.Y1)
	}
	top.lineEnd()

	base := newCurve(curve, p)
	base.lineStart(true)
	for i := len(points) - 1; i >= 0; i-- {
		base.point(points[i].X, points[i].Y0)
	}
	base.lineEnd()

	p.ClosePath()
	return p.String()
}

// Circle returns path data for a circle, for renderers without a native
// circle primitive.
func Circle(cx, cy, r float64) string {
	p := NewPath()
	p.MoveTo(cx-r, cy)
	p.write('A', r, r, 0, 1, 0, cx+r, cy)
	p.write('A', r, r, 0, 1, 0, cx-r, cy)
	p.ClosePath()
	return p.String()
}
