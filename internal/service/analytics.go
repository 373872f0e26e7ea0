// Package service composes repository calls into the business operations
// the UI consumes: completion toggling, streak computation, and
// date-bucketed aggregation. Derived statistics are never persisted; they
// are recomputed from raw logs on every read so the cached counters on
// habits can never drift from ground truth.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vesperhq/vesper/internal/store"
	"github.com/vesperhq/vesper/internal/types"
)

// AnalyticsService computes time-windowed completion statistics.
type AnalyticsService struct {
	habits *store.HabitRepository
	logs   *store.HabitLogRepository
}

// NewAnalyticsService creates an AnalyticsService over the repositories.
func NewAnalyticsService(habits *store.HabitRepository, logs *store.HabitLogRepository) *AnalyticsService {
	return &AnalyticsService{habits: habits, logs: logs}
}

// GetDailyStats returns one stat per calendar day for the last `days` days
// ending today: how many active daily habits were completed that day out of
// the current daily habit count. Days without logs appear with zero
// completions.
func (s *AnalyticsService) GetDailyStats(ctx context.Context, days int) ([]types.DailyStat, error) {
	if days < 1 {
		return nil, fmt.Errorf("days must be positive, got %d", days)
	}

	today := time.Now().UTC()
	start := types.FormatDate(today.AddDate(0, 0, -(days - 1)))
	end := types.FormatDate(today)

	total, err := s.countActive(ctx, types.FrequencyDaily)
	if err != nil {
		return nil, err
	}

	rows, err := s.logs.GetDailyStatsForRange(ctx, start, end, types.FrequencyDaily)
	if err != nil {
		return nil, err
	}
	completedByDate := make(map[string]int, len(rows))
	for _, row := range rows {
		completedByDate[row.Date] = row.Completed
	}

	stats := make([]types.DailyStat, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := types.FormatDate(today.AddDate(0, 0, -i))
		completed := completedByDate[date]
		stats = append(stats, types.DailyStat{
			Date:       date,
			Completed:  completed,
			Total:      total,
			Percentage: types.Percentage(completed, total),
		})
	}
	return stats, nil
}

// GetWeeklyStats returns one stat per Sunday-aligned week for the last
// `weeks` weeks ending in the current week. Total possible is 7 x the
// number of active weekly habits; completed counts completed logs anywhere
// in the week.
func (s *AnalyticsService) GetWeeklyStats(ctx context.Context, weeks int) ([]types.WeeklyStat, error) {
	if weeks < 1 {
		return nil, fmt.Errorf("weeks must be positive, got %d", weeks)
	}

	habitCount, err := s.countActive(ctx, types.FrequencyWeekly)
	if err != nil {
		return nil, err
	}

	today := time.Now().UTC()
	currentWeekStart := sundayOf(today)

	stats := make([]types.WeeklyStat, 0, weeks)
	for i := weeks - 1; i >= 0; i-- {
		weekStart := currentWeekStart.AddDate(0, 0, -7*i)
		weekEnd := weekStart.AddDate(0, 0, 6)

		completed, err := s.logs.CountCompletedInRange(ctx,
			types.FormatDate(weekStart), types.FormatDate(weekEnd), types.FrequencyWeekly)
		if err != nil {
			return nil, err
		}

		total := 7 * habitCount
		stats = append(stats, types.WeeklyStat{
			WeekStart:  types.FormatDate(weekStart),
			Completed:  completed,
			Total:      total,
			Percentage: types.Percentage(completed, total),
		})
	}
	return stats, nil
}

// GetMonthlyStats returns one stat per calendar month for the last `months`
// months ending in the current month. A monthly habit is satisfied once per
// month: completed counts distinct habits with at least one completed log
// in the month, not log rows.
func (s *AnalyticsService) GetMonthlyStats(ctx context.Context, months int) ([]types.MonthlyStat, error) {
	if months < 1 {
		return nil, fmt.Errorf("months must be positive, got %d", months)
	}

	total, err := s.countActive(ctx, types.FrequencyMonthly)
	if err != nil {
		return nil, err
	}

	today := time.Now().UTC()
	currentMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	stats := make([]types.MonthlyStat, 0, months)
	for i := months - 1; i >= 0; i-- {
		first := currentMonth.AddDate(0, -i, 0)
		last := first.AddDate(0, 1, -1)

		completed, err := s.logs.CountDistinctCompletedHabits(ctx,
			types.FormatDate(first), types.FormatDate(last), types.FrequencyMonthly)
		if err != nil {
			return nil, err
		}

		stats = append(stats, types.MonthlyStat{
			Month:      first.Format("2006-01"),
			Completed:  completed,
			Total:      total,
			Percentage: types.Percentage(completed, total),
		})
	}
	return stats, nil
}

// GetCurrentStreak returns the habit's run of consecutive cadence periods
// with a completed log, walked backward from the most recent completion.
// A habit with no completed logs has streak 0.
func (s *AnalyticsService) GetCurrentStreak(ctx context.Context, habitID string) (int, error) {
	habit, err := s.habits.GetByID(ctx, habitID)
	if err != nil {
		return 0, err
	}

	logs, err := s.logs.GetForHabit(ctx, habitID)
	if err != nil {
		return 0, err
	}

	return currentStreak(logs, habit.Frequency, types.Today()), nil
}

// currentStreak walks logs (ordered date descending) backward from the most
// recent completed date no later than today, counting entries that land
// exactly one cadence step apart. The walk stops at the first gap.
func currentStreak(logs []types.HabitLog, freq types.Frequency, today string) int {
	var (
		streak   int
		expected time.Time
	)

	for _, l := range logs {
		if !l.Completed || l.Date > today {
			continue
		}

		d, err := types.ParseDate(l.Date)
		if err != nil {
			continue
		}

		if streak == 0 {
			streak = 1
			expected = previousPeriod(d, freq)
			continue
		}

		if !d.Equal(expected) {
			break
		}
		streak++
		expected = previousPeriod(d, freq)
	}

	return streak
}

// previousPeriod steps one cadence back from d.
func previousPeriod(d time.Time, freq types.Frequency) time.Time {
	switch freq {
	case types.FrequencyWeekly:
		return d.AddDate(0, 0, -7)
	case types.FrequencyMonthly:
		return d.AddDate(0, -1, 0)
	default:
		return d.AddDate(0, 0, -1)
	}
}

// sundayOf returns the Sunday on or before t.
func sundayOf(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

func (s *AnalyticsService) countActive(ctx context.Context, freq types.Frequency) (int, error) {
	habits, err := s.habits.GetByFrequency(ctx, freq)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, h := range habits {
		if h.IsActive {
			count++
		}
	}
	return count, nil
}
