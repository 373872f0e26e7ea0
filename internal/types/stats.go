package types

import "math"

// DailyStat is completion progress for one calendar day across all
// daily-frequency habits.
type DailyStat struct {
	Date       string `json:"date"`
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
}

// WeeklyStat is completion progress for one Sunday-aligned week. Total is
// 7 x (number of weekly habits); Completed counts completed logs in the
// week regardless of which day they fell on.
type WeeklyStat struct {
	WeekStart  string `json:"week_start"`
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
}

// MonthlyStat is completion progress for one calendar month. A monthly
// habit counts as completed at most once per month, however many logs it
// has within it.
type MonthlyStat struct {
	Month      string `json:"month"`
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
}

// Percentage returns round(completed/total*100), or 0 when total is 0.
func Percentage(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
