package rules

import "math"

type FundingProgress struct {
	Percentage   float64 `json:"percentage"`
	HasValidGoal bool    `json:"hasValidGoal"`
}

// Progress is current/goal as a percentage capped at 100. A goal of zero or
// less means no goal was set and yields 0 with HasValidGoal false.
func Progress(current, goal float64) FundingProgress {
	if !(goal > 0) || math.IsInf(goal, 1) {
		return FundingProgress{}
	}
	if !(current > 0) {
		return FundingProgress{HasValidGoal: true}
	}
	return FundingProgress{
		Percentage:   math.Min(100, current/goal*100),
		HasValidGoal: true,
	}
}
