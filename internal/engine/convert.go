package engine

import "math"

// WorkingDaysPerMonth converts person-months to person-days.
const WorkingDaysPerMonth = 22.0

// WeeksPerSprint converts sprint counts to calendar weeks.
const WeeksPerSprint = 2.0

var fibonacciScale = []int{1, 2, 3, 5, 8, 13, 21}

// RoundToFibonacci snaps a raw story-point value onto the planning
// scale. Values beyond 21 clamp to 21, the signal that the story
// should be split rather than estimated.
func RoundToFibonacci(value float64) int {
	if value <= 0 {
		return 1
	}
	if value > 21 {
		return 21
	}
	closest := fibonacciScale[0]
	best := math.Abs(value - float64(closest))
	for _, f := range fibonacciScale[1:] {
		if d := math.Abs(value - float64(f)); d < best {
			best = d
			closest = f
		}
	}
	return closest
}

// DaysPerStoryPoint derives the historical cost of one story point:
// total person-days divided by total points delivered. Falls back to
// 1 when there is no usable history.
func DaysPerStoryPoint(sprints []SprintMetric) float64 {
	var days, points float64
	for _, s := range sprints {
		days += s.PersonDays
		points += s.Velocity
	}
	if points == 0 {
		return 1
	}
	return days / points
}

// EffortToStoryPoints converts an anchor effort in person-months into
// raw story points, scaled by the complexity index:
//
//	sp = (effortPM * WorkingDaysPerMonth * index) / daysPerSP
func EffortToStoryPoints(effortPM, complexityIndex, daysPerSP float64) float64 {
	if daysPerSP == 0 {
		return 0
	}
	return effortPM * WorkingDaysPerMonth * complexityIndex / daysPerSP
}

// SprintsToWeeks converts a sprint count into calendar weeks.
func SprintsToWeeks(sprints float64) float64 {
	return sprints * WeeksPerSprint
}
