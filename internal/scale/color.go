package scale

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Set2 is the ColorBrewer Set2 qualitative scheme
var Set2 = []string{"#66c2a5", "#fc8d62", "#8da0cb", "#e78ac3", "#a6d854", "#ffd92f", "#e5c494", "#b3b3b3"}

// Ordinal assigns colors to keys in domain order, cycling through the range.
// Unknown keys are appended to the domain on first use.
type Ordinal struct {
	index  map[string]int
	domain []string
	colors []colorful.Color
}

// NewOrdinal creates an ordinal color scale over the given hex palette
func NewOrdinal(domain []string, palette []string) *Ordinal {
	o := &Ordinal{index: make(map[string]int)}
	for _, hex := range palette {
		c, err := colorful.Hex(hex)
		if err != nil {
			continue
		}
		o.colors = append(o.colors, c)
	}
	if len(o.colors) == 0 {
		o.colors = []colorful.Color{{R: 0, G: 0, B: 0}}
	}
	for _, key := range domain {
		o.add(key)
	}
	return o
}

func (o *Ordinal) add(key string) int {
	if i, ok := o.index[key]; ok {
		return i
	}
	i := len(o.domain)
	o.index[key] = i
	o.domain = append(o.domain, key)
	return i
}

// Color returns the color for a key
func (o *Ordinal) Color(key string) colorful.Color {
	i := o.add(key)
	return o.colors[i%len(o.colors)]
}

// Hex returns the color for a key as #rrggbb
func (o *Ordinal) Hex(key string) string {
	return o.Color(key).Hex()
}

// Domain returns the keys seen so far in assignment order
func (o *Ordinal) Domain() []string {
	out := make([]string, len(o.domain))
	copy(out, o.domain)
	return out
}

// Interpolator maps t in [0,1] to a color
type Interpolator func(t float64) colorful.Color

// Sequential maps a numeric domain onto an interpolator
type Sequential struct {
	d0, d1 float64
	interp Interpolator
}

// NewSequential creates a sequential scale over [d0,d1]
func NewSequential(d0, d1 float64, interp Interpolator) *Sequential {
	return &Sequential{d0: d0, d1: d1, interp: interp}
}

// Color returns the color at v, clamping to the domain
func (s *Sequential) Color(v float64) colorful.Color {
	t := normalize(s.d0, s.d1, v)
	t = math.Max(0, math.Min(1, t))
	return s.interp(t)
}

// Hex returns the color at v as #rrggbb
func (s *Sequential) Hex(v float64) string {
	return s.Color(v).Clamped().Hex()
}

// cubehelix converts a cubehelix color (hue in degrees) to RGB in [0,1]
func cubehelix(h, s, l float64) colorful.Color {
	const (
		a = -0.14861
		b = +1.78277
		c = -0.29227
		d = -0.90649
		e = +1.97294
	)
	rad := (h + 120) * math.Pi / 180
	amp := s * l * (1 - l)
	cosh, sinh := math.Cos(rad), math.Sin(rad)
	return colorful.Color{
		R: l + amp*(a*cosh+b*sinh),
		G: l + amp*(c*cosh+d*sinh),
		B: l + amp*(e*cosh),
	}
}

// Cool is the "cool" ramp: a long cubehelix path from purple-blue to green
func Cool(t float64) colorful.Color {
	h := 260 + t*(80-260)
	s := 0.75 + t*(1.5-0.75)
	l := 0.35 + t*(0.8-0.35)
	return cubehelix(h, s, l).Clamped()
}
