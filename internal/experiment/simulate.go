package experiment

import "math/rand/v2"

// SimulateConversion draws one independent conversion flag per user. A user
// converts when a uniform draw in [0, 1) is at most the rate of their group.
// Control users are drawn first, then treatment users, each in partition order.
func SimulateConversion(rng *rand.Rand, p *Partition, params Parameters) Conversions {
	flags := make(Conversions, p.Size())
	for _, id := range p.Control {
		flags[id] = rng.Float64() <= params.ControlRate
	}
	for _, id := range p.Treatment {
		flags[id] = rng.Float64() <= params.TreatmentRate
	}
	return flags
}

// Count returns how many of ids converted.
func (c Conversions) Count(ids []UserID) int {
	n := 0
	for _, id := range ids {
		if c[id] {
			n++
		}
	}
	return n
}
