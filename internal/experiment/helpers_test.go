package experiment

import (
	"fmt"
	"math/rand/v2"
)

func seededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func seededSource(seed byte) func() *rand.ChaCha8 {
	return func() *rand.ChaCha8 {
		var s [32]byte
		s[0] = seed
		return rand.NewChaCha8(s)
	}
}

func sequentialIDs(n int) []UserID {
	ids := make([]UserID, n)
	for i := range ids {
		ids[i] = UserID(fmt.Sprintf("%032x", i+1))
	}
	return ids
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
