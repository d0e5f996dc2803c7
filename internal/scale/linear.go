package scale

import (
	"math"
)

// Linear maps a continuous domain onto a continuous range
type Linear struct {
	d0, d1 float64
	r0, r1 float64
}

// NewLinear creates a linear scale from [d0,d1] to [r0,r1]
func NewLinear(d0, d1, r0, r1 float64) *Linear {
	return &Linear{d0: d0, d1: d1, r0: r0, r1: r1}
}

// Domain returns the current domain
func (s *Linear) Domain() (float64, float64) {
	return s.d0, s.d1
}

// Range returns the current range
func (s *Linear) Range() (float64, float64) {
	return s.r0, s.r1
}

// SetDomain replaces the domain
func (s *Linear) SetDomain(d0, d1 float64) *Linear {
	s.d0, s.d1 = d0, d1
	return s
}

// SetRange replaces the range
func (s *Linear) SetRange(r0, r1 float64) *Linear {
	s.r0, s.r1 = r0, r1
	return s
}

// Scale maps a domain value to the range. A collapsed domain maps every
// value to the middle of the range.
func (s *Linear) Scale(x float64) float64 {
	return interpolate(s.r0, s.r1, normalize(s.d0, s.d1, x))
}

// Invert maps a range value back to the domain
func (s *Linear) Invert(y float64) float64 {
	return interpolate(s.d0, s.d1, normalize(s.r0, s.r1, y))
}

// Ticks returns roughly count evenly spaced, human friendly values inside the
// domain.
func (s *Linear) Ticks(count int) []float64 {
	start, stop := s.d0, s.d1
	reverse := stop < start
	if reverse {
		start, stop = stop, start
	}
	if count <= 0 || start == stop {
		if start == stop {
			return []float64{start}
		}
		return nil
	}

	i1, i2, inc := tickSpec(start, stop, count)
	if i2 < i1 {
		return nil
	}

	n := int(i2 - i1 + 1)
	ticks := make([]float64, n)
	for i := 0; i < n; i++ {
		if inc < 0 {
			ticks[i] = (i1 + float64(i)) / -inc
		} else {
			ticks[i] = (i1 + float64(i)) * inc
		}
	}
	if reverse {
		for i, j := 0, len(ticks)-1; i < j; i, j = i+1, j-1 {
			ticks[i], ticks[j] = ticks[j], ticks[i]
		}
	}
	return ticks
}

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// tickSpec returns the first and last tick multiples and the increment. A
// negative increment means the ticks are i / -inc, which keeps small steps
// exact.
func tickSpec(start, stop float64, count int) (float64, float64, float64) {
	step := (stop - start) / float64(count)
	power := math.Floor(math.Log10(step))
	errRatio := step / math.Pow(10, power)

	factor := 1.0
	switch {
	case errRatio >= e10:
		factor = 10
	case errRatio >= e5:
		factor = 5
	case errRatio >= e2:
		factor = 2
	}

	var i1, i2, inc float64
	if power < 0 {
		inc = math.Pow(10, -power) / factor
		i1 = math.Round(start * inc)
		i2 = math.Round(stop * inc)
		if i1/inc < start {
			i1++
		}
		if i2/inc > stop {
			i2--
		}
		inc = -inc
	} else {
		inc = math.Pow(10, power) * factor
		i1 = math.Round(start / inc)
		i2 = math.Round(stop / inc)
		if i1*inc < start {
			i1++
		}
		if i2*inc > stop {
			i2--
		}
	}
	return i1, i2, inc
}

func normalize(a, b, x float64) float64 {
	if b-a == 0 {
		return 0.5
	}
	return (x - a) / (b - a)
}

func interpolate(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

// RoundHalfUp rounds .5 toward positive infinity, the way pointer positions
// are snapped to the nearest data index.
func RoundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
