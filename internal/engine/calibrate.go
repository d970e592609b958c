package engine

// Calibrate derives a fresh throughput model from the project
// snapshot. It dispatches on the project mode; each path has its own
// minimum-input requirements and fails with InsufficientDataError
// rather than returning a zero model. The returned value is complete
// or absent: a failed calibration never leaves a partial model behind.
func Calibrate(p Project, cfg CalibrationConfig) (CalibratedModel, error) {
	if err := validateSprints(p.Sprints); err != nil {
		return CalibratedModel{}, err
	}

	switch p.Mode {
	case ModeBaseline:
		return calibrateBaseline(p, cfg)
	case ModeGreenfield:
		return calibrateGreenfield(p, cfg)
	default:
		return CalibratedModel{}, &InsufficientDataError{Mode: p.Mode, Reason: "unknown estimation mode"}
	}
}

// calibrateBaseline scales the anchor sector's delivered effort by the
// ratio of complexity indices:
//
//	expectedEffort = historicalEffort * (currentIndex / historicalIndex)
//
// Throughput is expressed in complexity units per sprint, so simulating
// remainingWork = currentIndex reproduces expectedEffort on average.
func calibrateBaseline(p Project, cfg CalibrationConfig) (CalibratedModel, error) {
	if p.Sector == nil {
		return CalibratedModel{}, &InsufficientDataError{Mode: ModeBaseline, Reason: "no anchor sector referenced"}
	}
	if p.Sector.ComplexityIndex <= 0 || p.Sector.EffortSprints <= 0 {
		return CalibratedModel{}, &InsufficientDataError{
			Mode:   ModeBaseline,
			Reason: "anchor sector needs a positive complexity index and delivered effort",
		}
	}

	// A weight violation blocks calibration here, not the earlier CRUD.
	currentIndex, err := ComputeComplexityIndex(p.Factors, p.Scores)
	if err != nil {
		return CalibratedModel{}, err
	}

	throughput := p.Sector.ComplexityIndex / p.Sector.EffortSprints
	expected := p.Sector.EffortSprints * (currentIndex / p.Sector.ComplexityIndex)

	// Uncertainty: dispersion of observed velocities around the naive
	// linear (constant mean velocity) projection when sprints exist,
	// otherwise the configured default band. Baseline mode must produce
	// an initial forecast with zero sprints recorded.
	rel := cfg.DefaultUncertainty
	confidence := 0.5
	if n := len(p.Sprints); n > 0 {
		vs := velocities(p.Sprints)
		if m := mean(vs); m > 0 {
			rel = sampleStdDev(vs) / m
		}
		confidence = clip(0.5+0.05*float64(n), 0.5, 0.9)
	}

	return CalibratedModel{
		Mode:            ModeBaseline,
		Throughput:      throughput,
		StdDev:          throughput * rel,
		Confidence:      confidence,
		LowSample:       len(p.Sprints) == 0,
		ExpectedSprints: expected,
	}, nil
}

// calibrateGreenfield fits throughput as a recency-weighted mean of
// observed sprint velocities. Recent sprints carry exponentially more
// weight (decay constant cfg.DecayTau, in sprints) because throughput
// stabilises as a team ramps up. Uncertainty is the sample standard
// deviation of velocity, inflated while the sample is small to avoid
// false confidence.
func calibrateGreenfield(p Project, cfg CalibrationConfig) (CalibratedModel, error) {
	if len(p.Stories) == 0 {
		return CalibratedModel{}, &InsufficientDataError{Mode: ModeGreenfield, Reason: "no anchor stories defined"}
	}
	minSprints := cfg.MinSprints
	if minSprints < 1 {
		minSprints = 1
	}
	n := len(p.Sprints)
	if n < minSprints {
		return CalibratedModel{}, &InsufficientDataError{
			Mode:   ModeGreenfield,
			Reason: "cold start: not enough recorded sprints",
		}
	}

	vs := velocities(p.Sprints)
	throughput := decayWeightedMean(vs, cfg.DecayTau)
	if throughput <= 0 {
		return CalibratedModel{}, &InsufficientDataError{
			Mode:   ModeGreenfield,
			Reason: "recorded velocities are all zero",
		}
	}

	lowSampleThreshold := 2 * minSprints
	sd := sampleStdDev(vs)
	lowSample := n < lowSampleThreshold
	if lowSample {
		inflation := cfg.UncertaintyInflation
		if inflation < 1 {
			inflation = 1
		}
		sd *= inflation
	}

	var pointsSum float64
	for _, s := range p.Stories {
		pointsSum += s.Points
	}

	return CalibratedModel{
		Mode:            ModeGreenfield,
		Throughput:      throughput,
		StdDev:          sd,
		Confidence:      clip(float64(n)/float64(lowSampleThreshold), 0, 0.95),
		LowSample:       lowSample,
		StoryPointScale: pointsSum / float64(len(p.Stories)),
	}, nil
}

func velocities(sprints []SprintMetric) []float64 {
	vs := make([]float64, len(sprints))
	for i, s := range sprints {
		vs[i] = s.Velocity
	}
	return vs
}

// validateSprints enforces the append-only stream invariants: strictly
// increasing indices and non-negative velocities.
func validateSprints(sprints []SprintMetric) error {
	prev := -1
	for _, s := range sprints {
		if s.Velocity < 0 {
			return &SprintOrderError{Index: s.Index, Velocity: s.Velocity}
		}
		if s.Index <= prev {
			return &SprintOrderError{Index: s.Index, Previous: prev}
		}
		prev = s.Index
	}
	return nil
}
