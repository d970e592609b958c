package engine

import (
	"context"
	"math"
	"math/rand"
	"sort"
)

// Throughput draws are clipped to this fraction of the mean so a tail
// sample can never divide the remaining work by zero or go negative.
const minThroughputFraction = 0.01

// Trials between cancellation checks.
const trialBatchSize = 256

// Simulate runs a Monte-Carlo forecast: each trial draws a throughput
// from the calibrated distribution (normal, clipped positive) and
// converts the remaining work into whole sprints, since partial
// sprints are not deliverable units.
//
// The generator is caller-owned and single-owner for the duration of
// the call: identical (model, remainingWork, cfg, seed) inputs yield a
// byte-identical result. Samples are returned in trial-index order;
// percentiles are taken from a sorted copy under cfg.Interpolation.
// Cancellation is honoured between trial batches.
func Simulate(ctx context.Context, m CalibratedModel, remainingWork float64, cfg SimulationConfig, rng *rand.Rand) (ForecastResult, error) {
	if cfg.Trials <= 0 {
		return ForecastResult{}, &TrialCountError{Trials: cfg.Trials}
	}
	if m.Throughput <= 0 {
		return ForecastResult{}, &DegenerateModelError{Throughput: m.Throughput}
	}
	if rng == nil {
		return ForecastResult{}, ErrNilRNG
	}
	if remainingWork <= 0 {
		// Nothing left to deliver; zero-sprint forecast.
		return ForecastResult{Samples: []float64{}}, nil
	}

	floor := m.Throughput * minThroughputFraction
	samples := make([]float64, cfg.Trials)
	for i := 0; i < cfg.Trials; i++ {
		if i%trialBatchSize == 0 {
			if err := ctx.Err(); err != nil {
				return ForecastResult{}, err
			}
		}
		draw := m.Throughput + m.StdDev*rng.NormFloat64()
		if draw < floor {
			draw = floor
		}
		samples[i] = math.Ceil(remainingWork / draw)
	}

	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	return ForecastResult{
		P50:     percentile(sorted, 0.50, cfg.Interpolation),
		P80:     percentile(sorted, 0.80, cfg.Interpolation),
		Samples: samples,
	}, nil
}
