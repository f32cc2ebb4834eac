package experiment

import (
	"math/rand/v2"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
)

const (
	minControlRate = 0.2
	maxControlRate = 0.6
	minUplift      = 0.02
	maxUplift      = 0.10
	rateEpsilon    = 1e-9

	// EffectOffset is added to every converted treatment amount when the effect is injected.
	EffectOffset = 300.0
)

// SampleParameters draws the conversion rates for a run of populationSize users.
// The control rate is uniform in [0.2, 0.6]; with probability one half the
// treatment rate is lifted by a uniform uplift in [0.02, 0.10], otherwise it
// equals the control rate. Both values are rounded to two decimals.
func SampleParameters(rng *rand.Rand, populationSize int) (Parameters, error) {
	if populationSize <= 0 {
		return Parameters{}, eris.Wrapf(ErrInvalidArgument, "population size must be positive, got %d", populationSize)
	}

	control := roundRate(uniform(rng, minControlRate, maxControlRate))
	params := Parameters{
		PopulationSize: populationSize,
		ControlRate:    control.InexactFloat64(),
		TreatmentRate:  control.InexactFloat64(),
	}

	if rng.IntN(2) == 1 {
		uplift := roundRate(uniform(rng, minUplift, maxUplift))
		params.RateChanged = true
		params.TreatmentRate = control.Add(uplift).InexactFloat64()
	}

	return params, nil
}

// SampleTreatmentEffect flips the run-level coin deciding whether treatment amounts are shifted.
func SampleTreatmentEffect(rng *rand.Rand) TreatmentEffect {
	return TreatmentEffect{
		Injected: rng.IntN(2) == 1,
		Offset:   EffectOffset,
	}
}

func validateParameters(p Parameters) error {
	if p.PopulationSize <= 0 {
		return eris.Wrapf(ErrInvalidArgument, "population size must be positive, got %d", p.PopulationSize)
	}
	if p.ControlRate < 0 || p.ControlRate > 1 {
		return eris.Wrapf(ErrInvalidArgument, "control rate %v outside [0, 1]", p.ControlRate)
	}
	if p.TreatmentRate < 0 || p.TreatmentRate > 1 {
		return eris.Wrapf(ErrInvalidArgument, "treatment rate %v outside [0, 1]", p.TreatmentRate)
	}

	uplift := p.TreatmentRate - p.ControlRate
	if !p.RateChanged && uplift != 0 {
		return eris.Wrapf(ErrInvalidArgument, "treatment rate %v differs from control rate %v without a rate change", p.TreatmentRate, p.ControlRate)
	}
	if p.RateChanged && (uplift < minUplift-rateEpsilon || uplift > maxUplift+rateEpsilon) {
		return eris.Wrapf(ErrInvalidArgument, "uplift %v outside [%v, %v]", uplift, minUplift, maxUplift)
	}
	return nil
}

func validateEffect(e TreatmentEffect) error {
	if e.Offset != EffectOffset {
		return eris.Wrapf(ErrInvalidArgument, "treatment effect offset must be %v, got %v", EffectOffset, e.Offset)
	}
	return nil
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

func roundRate(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}
