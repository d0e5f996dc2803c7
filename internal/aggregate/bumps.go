package aggregate

import (
	"math"
	"math/rand"
)

// Bumps returns m non-negative samples made of k random gaussian bumps, after
// Lee Byron's streamgraph test data generator.
func Bumps(rng *rand.Rand, m, k int) []float64 {
	a := make([]float64, m)
	for i := 0; i < k; i++ {
		bump(rng, a)
	}
	return a
}

func bump(rng *rand.Rand, a []float64) {
	n := len(a)
	x := 1 / (0.1 + rng.Float64())
	y := 2*rng.Float64() - 0.5
	z := 10 / (0.1 + rng.Float64())
	for i := 0; i < n; i++ {
		w := (float64(i)/float64(n) - y) * z
		a[i] += x * math.Exp(-w*w)
	}
}

// RandomMatrix builds a chunk-major matrix of m rows and n columns where each
// column is an independent Bumps series.
func RandomMatrix(rng *rand.Rand, n, m, k int) [][]float64 {
	rows := make([][]float64, m)
	for j := range rows {
		rows[j] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		col := Bumps(rng, m, k)
		for j, v := range col {
			rows[j][i] = v
		}
	}
	return rows
}
