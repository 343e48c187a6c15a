package prediction

import "github.com/kilianp07/queuecast/core/model"

// DailyPattern is the expected arrival volume for each hour of the day.
type DailyPattern struct {
	Hourly            [24]int
	WeekendMultiplier float64
	PeakHours         []int
}

var dailyPatterns = map[model.Category]DailyPattern{
	model.CategoryFastFood: {
		Hourly:            [24]int{5, 3, 2, 2, 3, 5, 8, 12, 15, 18, 25, 35, 45, 35, 20, 15, 12, 25, 40, 35, 20, 15, 10, 8},
		WeekendMultiplier: 1.3,
		PeakHours:         []int{12, 13, 18, 19},
	},
	model.CategoryCasualDining: {
		Hourly:            [24]int{2, 1, 1, 1, 2, 3, 5, 8, 12, 15, 20, 30, 40, 25, 15, 10, 8, 15, 35, 45, 30, 20, 12, 5},
		WeekendMultiplier: 1.5,
		PeakHours:         []int{12, 13, 18, 19, 20},
	},
	model.CategoryFineDining: {
		Hourly:            [24]int{0, 0, 0, 0, 0, 0, 0, 2, 3, 5, 8, 12, 15, 10, 8, 5, 3, 8, 20, 35, 25, 15, 8, 3},
		WeekendMultiplier: 1.2,
		PeakHours:         []int{19, 20, 21},
	},
}

// PatternFor returns the daily pattern of a category. Unknown categories use
// the casual dining pattern.
func PatternFor(c model.Category) DailyPattern {
	if p, ok := dailyPatterns[c]; ok {
		return p
	}
	return dailyPatterns[model.CategoryCasualDining]
}
