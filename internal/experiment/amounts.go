package experiment

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	GammaShape = 2.0
	GammaScale = 2000.0
)

// GenerateAmounts draws a purchase amount for every converted user from a
// gamma distribution (shape 2, scale 2000) and rounds it to the nearest
// integer, ties to even. When the effect is injected, converted treatment
// users get effect.Offset on top. Users that did not convert get no entry.
func GenerateAmounts(rng *rand.Rand, p *Partition, flags Conversions, effect TreatmentEffect) Amounts {
	dist := distuv.Gamma{
		Alpha: GammaShape,
		Beta:  1 / GammaScale,
		Src:   rng,
	}

	amounts := make(Amounts, flags.Count(p.Control)+flags.Count(p.Treatment))
	for _, id := range p.Control {
		if flags[id] {
			amounts[id] = math.RoundToEven(dist.Rand())
		}
	}
	for _, id := range p.Treatment {
		if flags[id] {
			amounts[id] = math.RoundToEven(dist.Rand())
		}
	}

	if effect.Injected {
		for _, id := range p.Treatment {
			if amount, ok := amounts[id]; ok {
				amounts[id] = amount + effect.Offset
			}
		}
	}

	return amounts
}
