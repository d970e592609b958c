package engine

// Slopes smaller than this are reported as a stable trend.
const trendEpsilon = 1e-9

// TheoreticalCurve applies the calibrated throughput linearly sprint
// over sprint, producing the cumulative progress the model predicts.
func TheoreticalCurve(m CalibratedModel, sprints int) []float64 {
	if sprints <= 0 {
		return nil
	}
	curve := make([]float64, sprints)
	for i := range curve {
		curve[i] = m.Throughput * float64(i+1)
	}
	return curve
}

// Compare reconciles predicted cumulative progress against recorded
// sprint metrics. Each delta is actual minus expected cumulative
// progress for that sprint, positive meaning ahead of plan. The trend
// slope is a least-squares fit over the delta series: a positive slope
// means the gap is closing (or the lead is growing). MedianDelta is the
// robust centre of the series, insensitive to one outlier sprint.
//
// With no recorded sprints there is no report: ErrNoSprintData is
// returned so dashboards cannot mistake "no data" for "on track".
func Compare(theoretical []float64, actuals []SprintMetric) (VarianceReport, error) {
	if len(actuals) == 0 {
		return VarianceReport{}, ErrNoSprintData
	}
	if err := validateSprints(actuals); err != nil {
		return VarianceReport{}, err
	}

	n := len(actuals)
	if len(theoretical) < n {
		n = len(theoretical)
	}

	deltas := make([]float64, n)
	cumulative := 0.0
	for i := 0; i < n; i++ {
		cumulative += actuals[i].Velocity
		deltas[i] = cumulative - theoretical[i]
	}

	slope := leastSquaresSlope(deltas)
	direction := TrendStable
	switch {
	case slope > trendEpsilon:
		direction = TrendImproving
	case slope < -trendEpsilon:
		direction = TrendDegrading
	}

	return VarianceReport{
		Deltas:      deltas,
		MedianDelta: median(deltas),
		TrendSlope:  slope,
		Direction:   direction,
		Sprints:     n,
	}, nil
}
