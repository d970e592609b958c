package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeComplexityIndex(t *testing.T) {
	tests := []struct {
		name     string
		factors  []Factor
		scores   map[string]float64
		expected float64
		wantErr  error
	}{
		{
			name: "reference three-factor vector",
			factors: []Factor{
				{Name: "A", Weight: 0.5},
				{Name: "B", Weight: 0.3},
				{Name: "C", Weight: 0.2},
			},
			scores:   map[string]float64{"A": 1.0, "B": 0.5, "C": 0.8},
			expected: 0.81,
		},
		{
			name:     "single factor with full weight",
			factors:  []Factor{{Name: "only", Weight: 1.0}},
			scores:   map[string]float64{"only": 0.42},
			expected: 0.42,
		},
		{
			name: "five factors at scale maximum stays within bounds",
			factors: []Factor{
				{Name: "a", Weight: 0.2}, {Name: "b", Weight: 0.2},
				{Name: "c", Weight: 0.2}, {Name: "d", Weight: 0.2},
				{Name: "e", Weight: 0.2},
			},
			scores:   map[string]float64{"a": 1, "b": 1, "c": 1, "d": 1, "e": 1},
			expected: 1.0,
		},
		{
			name: "weights summing to 0.999999 pass within tolerance",
			factors: []Factor{
				{Name: "A", Weight: 0.499999},
				{Name: "B", Weight: 0.5},
			},
			scores:   map[string]float64{"A": 0.5, "B": 0.5},
			expected: 0.4999995,
		},
		{
			name: "weights summing to 0.9 are rejected",
			factors: []Factor{
				{Name: "A", Weight: 0.5},
				{Name: "B", Weight: 0.4},
			},
			scores:  map[string]float64{"A": 0.5, "B": 0.5},
			wantErr: &WeightConfigError{},
		},
		{
			name: "missing score for an active factor",
			factors: []Factor{
				{Name: "A", Weight: 0.5},
				{Name: "B", Weight: 0.5},
			},
			scores:  map[string]float64{"A": 0.5},
			wantErr: &MissingScoreError{},
		},
		{
			name: "score outside the declared scale",
			factors: []Factor{
				{Name: "A", Weight: 1.0},
			},
			scores:  map[string]float64{"A": 1.5},
			wantErr: &ScoreRangeError{},
		},
		{
			name:    "empty factor set",
			factors: nil,
			scores:  map[string]float64{},
			wantErr: &WeightConfigError{},
		},
		{
			name: "more than five factors",
			factors: []Factor{
				{Name: "a", Weight: 0.2}, {Name: "b", Weight: 0.2},
				{Name: "c", Weight: 0.2}, {Name: "d", Weight: 0.2},
				{Name: "e", Weight: 0.1}, {Name: "f", Weight: 0.1},
			},
			scores:  map[string]float64{},
			wantErr: &WeightConfigError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index, err := ComputeComplexityIndex(tt.factors, tt.scores)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.IsType(t, tt.wantErr, err)
				return
			}

			require.NoError(t, err)
			assert.InDelta(t, tt.expected, index, 1e-9)
			assert.GreaterOrEqual(t, index, ScoreMin)
			assert.LessOrEqual(t, index, ScoreMax)
		})
	}
}

func TestComputeComplexityIndex_Deterministic(t *testing.T) {
	factors := []Factor{
		{Name: "A", Weight: 0.5},
		{Name: "B", Weight: 0.3},
		{Name: "C", Weight: 0.2},
	}
	scores := map[string]float64{"A": 1.0, "B": 0.5, "C": 0.8}

	first, err := ComputeComplexityIndex(factors, scores)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		again, err := ComputeComplexityIndex(factors, scores)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRelativeComplexityIndex(t *testing.T) {
	tests := []struct {
		name     string
		factors  []ScoredFactor
		expected float64
	}{
		{
			name:     "empty set yields neutral index",
			factors:  nil,
			expected: 1,
		},
		{
			name: "target harder than baseline",
			factors: []ScoredFactor{
				{Name: "integrations", Weight: 0.5, BaselineScore: 5, TargetScore: 7},
				{Name: "reports", Weight: 0.5, BaselineScore: 3, TargetScore: 6},
			},
			expected: (0.5*7 + 0.5*6) / (0.5*5 + 0.5*3),
		},
		{
			name: "zero baseline denominator yields neutral index",
			factors: []ScoredFactor{
				{Name: "x", Weight: 1, BaselineScore: 0, TargetScore: 4},
			},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, RelativeComplexityIndex(tt.factors), 1e-9)
		})
	}
}
