// Package programs contains small SPMD programs built on
// collective operations.
//
// Each program is a function that every rank of a group
// calls with the same arguments; only the coordinator's
// data argument is read, and only the coordinator gets a
// result.
package programs

import (
	"math/rand"
)

const (
	// MinValue and MaxValue bound the values produced by
	// RandomData.
	MinValue = 1
	MaxValue = 10
)

// RandomData creates n random integers between MinValue
// and MaxValue, inclusive.
func RandomData(rng *rand.Rand, n int) []float64 {
	res := make([]float64, n)
	for i := range res {
		res[i] = float64(rng.Intn(MaxValue-MinValue+1) + MinValue)
	}
	return res
}
