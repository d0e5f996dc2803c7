package aggregate

import (
	"errors"
	"fmt"
	"strings"

	"emotionchart/internal/models"
)

// ErrUnknownOffset is returned when an offset name cannot be parsed
var ErrUnknownOffset = errors.New("unknown stack offset")

// Offset selects how the baseline of a stack is placed
type Offset string

const (
	OffsetNone       Offset = "none"
	OffsetExpand     Offset = "expand"
	OffsetSilhouette Offset = "silhouette"
	OffsetWiggle     Offset = "wiggle"
)

// Offsets lists the supported policies in selector order
var Offsets = []Offset{OffsetExpand, OffsetNone, OffsetSilhouette, OffsetWiggle}

// ParseOffset accepts "none", "wiggle", ... and the long "stackOffsetWiggle" form
func ParseOffset(s string) (Offset, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.TrimPrefix(name, "d3.")
	name = strings.TrimPrefix(name, "stackoffset")
	if name == "" {
		return OffsetNone, nil
	}
	for _, o := range Offsets {
		if string(o) == name {
			return o, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOffset, s)
}

// Stack turns a chunk-major matrix (rows = chunks, columns = categories) into
// one series per category of [baseline, top] pairs. Categories keep their
// column order. Every row must have the same number of columns.
func Stack(rows [][]float64, offset Offset) ([][]models.Interval, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	n := len(rows[0])
	m := len(rows)
	series := make([][]models.Interval, n)
	for i := range series {
		series[i] = make([]models.Interval, m)
	}
	for j, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", j, len(row), n)
		}
		for i, v := range row {
			series[i][j] = models.Interval{Baseline: 0, Top: v}
		}
	}

	switch offset {
	case OffsetNone, "":
		offsetNone(series)
	case OffsetExpand:
		offsetExpand(series)
	case OffsetSilhouette:
		offsetSilhouette(series)
	case OffsetWiggle:
		offsetWiggle(series)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOffset, offset)
	}

	return series, nil
}

// offsetNone stacks every series on top of the previous one
func offsetNone(series [][]models.Interval) {
	if len(series) < 2 {
		return
	}
	m := len(series[0])
	for i := 1; i < len(series); i++ {
		prev, cur := series[i-1], series[i]
		for j := 0; j < m; j++ {
			base := prev[j].Top
			cur[j].Baseline = base
			cur[j].Top += base
		}
	}
}

// offsetExpand normalizes each chunk so the stack spans [0,1]. All-zero
// chunks stay at zero.
func offsetExpand(series [][]models.Interval) {
	if len(series) == 0 {
		return
	}
	m := len(series[0])
	for j := 0; j < m; j++ {
		var total float64
		for i := range series {
			total += series[i][j].Top
		}
		if total != 0 {
			for i := range series {
				series[i][j].Top /= total
				series[i][j].Baseline /= total
			}
		}
	}
	offsetNone(series)
}

// offsetSilhouette centers each chunk around zero
func offsetSilhouette(series [][]models.Interval) {
	if len(series) == 0 {
		return
	}
	m := len(series[0])
	for j := 0; j < m; j++ {
		var total float64
		for i := range series {
			total += series[i][j].Top
		}
		series[0][j].Baseline = -total / 2
		series[0][j].Top += series[0][j].Baseline
	}
	offsetNone(series)
}

// offsetWiggle minimizes weighted change in slope (Byron & Wattenberg)
func offsetWiggle(series [][]models.Interval) {
	n := len(series)
	if n == 0 {
		return
	}
	m := len(series[0])
	if m == 0 {
		return
	}

	first := series[0]
	y := 0.0
	j := 1
	for ; j < m; j++ {
		var s1, s2 float64
		for i := 0; i < n; i++ {
			cur := series[i][j].Top
			prev := series[i][j-1].Top
			s3 := (cur - prev) / 2
			for k := 0; k < i; k++ {
				s3 += series[k][j].Top - series[k][j-1].Top
			}
			s1 += cur
			s2 += s3 * cur
		}
		first[j-1].Baseline = y
		first[j-1].Top += y
		if s1 != 0 {
			y -= s2 / s1
		}
	}
	first[j-1].Baseline = y
	first[j-1].Top += y

	offsetNone(series)
}

// Extent returns the smallest baseline and largest top across all series.
// ok is false when there are no points.
func Extent(series [][]models.Interval) (models.Domain, bool) {
	var d models.Domain
	ok := false
	for _, s := range series {
		for _, p := range s {
			if !ok {
				d = models.Domain{Min: p.Baseline, Max: p.Top}
				ok = true
				continue
			}
			if p.Baseline < d.Min {
				d.Min = p.Baseline
			}
			if p.Top > d.Max {
				d.Max = p.Top
			}
		}
	}
	return d, ok
}
