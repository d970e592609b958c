package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundToFibonacci(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		expected int
	}{
		{name: "non-positive clamps to one", value: -3, expected: 1},
		{name: "zero clamps to one", value: 0, expected: 1},
		{name: "exact scale value", value: 5, expected: 5},
		{name: "rounds down between points", value: 6.4, expected: 5},
		{name: "rounds up between points", value: 6.6, expected: 8},
		{name: "tie prefers the smaller point", value: 4, expected: 3},
		{name: "beyond the scale means split the story", value: 34, expected: 21},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RoundToFibonacci(tt.value))
		})
	}
}

func TestDaysPerStoryPoint(t *testing.T) {
	t.Run("no history falls back to one", func(t *testing.T) {
		assert.Equal(t, 1.0, DaysPerStoryPoint(nil))
	})

	t.Run("zero delivered points falls back to one", func(t *testing.T) {
		sprints := []SprintMetric{{Index: 1, Velocity: 0, PersonDays: 10}}
		assert.Equal(t, 1.0, DaysPerStoryPoint(sprints))
	})

	t.Run("aggregates across sprints", func(t *testing.T) {
		sprints := []SprintMetric{
			{Index: 1, Velocity: 13, PersonDays: 20},
			{Index: 2, Velocity: 8, PersonDays: 18},
			{Index: 3, Velocity: 21, PersonDays: 22},
			{Index: 4, Velocity: 5, PersonDays: 16},
		}
		assert.InDelta(t, 76.0/47.0, DaysPerStoryPoint(sprints), 1e-9)
	})
}

func TestEffortToStoryPoints(t *testing.T) {
	t.Run("zero days per point yields zero", func(t *testing.T) {
		assert.Zero(t, EffortToStoryPoints(6, 1.2, 0))
	})

	t.Run("scales by index and working days", func(t *testing.T) {
		// 6 pm * 22 days * index 1.5 / 2 days per SP
		assert.InDelta(t, 99.0, EffortToStoryPoints(6, 1.5, 2), 1e-9)
	})
}

func TestSprintsToWeeks(t *testing.T) {
	assert.Equal(t, 27.0, SprintsToWeeks(13.5))
}
