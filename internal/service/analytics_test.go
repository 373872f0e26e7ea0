package service

import (
	"context"
	"testing"
	"time"

	"github.com/vesperhq/vesper/internal/store"
	"github.com/vesperhq/vesper/internal/types"
)

func newTestGateway(t *testing.T) *store.Gateway {
	t.Helper()
	gw := store.NewGateway(":memory:")
	if err := gw.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { gw.Close() })
	return gw
}

func mustSaveHabit(t *testing.T, repo *store.HabitRepository, name string, freq types.Frequency) *types.Habit {
	t.Helper()
	h := &types.Habit{Name: name, Frequency: freq, IsActive: true}
	if err := repo.Save(context.Background(), h); err != nil {
		t.Fatal(err)
	}
	return h
}

func mustLog(t *testing.T, repo *store.HabitLogRepository, habitID, date string, completed bool) {
	t.Helper()
	l := &types.HabitLog{HabitID: habitID, Date: date, Completed: completed}
	if completed {
		now := time.Now().UTC()
		l.CompletedAt = &now
	}
	if err := repo.Upsert(context.Background(), l); err != nil {
		t.Fatal(err)
	}
}

func TestCurrentStreak_ConsecutiveDays(t *testing.T) {
	logs := []types.HabitLog{
		{Date: "2024-01-10", Completed: true},
		{Date: "2024-01-09", Completed: true},
		{Date: "2024-01-08", Completed: true},
		{Date: "2024-01-06", Completed: true}, // gap on the 7th stops the walk
	}

	if got := currentStreak(logs, types.FrequencyDaily, "2024-01-10"); got != 3 {
		t.Errorf("expected streak 3, got %d", got)
	}
}

func TestCurrentStreak_SkipsIncompleteAndFuture(t *testing.T) {
	logs := []types.HabitLog{
		{Date: "2024-01-12", Completed: true}, // beyond today, ignore
		{Date: "2024-01-10", Completed: false},
		{Date: "2024-01-09", Completed: true},
		{Date: "2024-01-08", Completed: true},
	}

	if got := currentStreak(logs, types.FrequencyDaily, "2024-01-10"); got != 2 {
		t.Errorf("expected streak 2, got %d", got)
	}
}

func TestCurrentStreak_NoCompletedLogs(t *testing.T) {
	logs := []types.HabitLog{{Date: "2024-01-10", Completed: false}}
	if got := currentStreak(logs, types.FrequencyDaily, "2024-01-10"); got != 0 {
		t.Errorf("expected streak 0, got %d", got)
	}
}

func TestCurrentStreak_WeeklyCadence(t *testing.T) {
	logs := []types.HabitLog{
		{Date: "2024-01-20", Completed: true},
		{Date: "2024-01-13", Completed: true},
		{Date: "2024-01-06", Completed: true},
	}
	if got := currentStreak(logs, types.FrequencyWeekly, "2024-01-20"); got != 3 {
		t.Errorf("expected weekly streak 3, got %d", got)
	}
}

func TestCurrentStreak_MonthlyCadence(t *testing.T) {
	logs := []types.HabitLog{
		{Date: "2024-03-15", Completed: true},
		{Date: "2024-02-15", Completed: true},
		{Date: "2023-12-15", Completed: true}, // January missing
	}
	if got := currentStreak(logs, types.FrequencyMonthly, "2024-03-20"); got != 2 {
		t.Errorf("expected monthly streak 2, got %d", got)
	}
}

func TestPreviousPeriod(t *testing.T) {
	d := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	if got := previousPeriod(d, types.FrequencyDaily); got.Day() != 14 {
		t.Errorf("daily: expected the 14th, got %v", got)
	}
	if got := previousPeriod(d, types.FrequencyWeekly); got.Day() != 8 {
		t.Errorf("weekly: expected the 8th, got %v", got)
	}
	if got := previousPeriod(d, types.FrequencyMonthly); got.Month() != time.February {
		t.Errorf("monthly: expected February, got %v", got)
	}
}

func TestSundayOf(t *testing.T) {
	// 2024-01-10 is a Wednesday; its week starts Sunday 2024-01-07.
	wednesday := time.Date(2024, 1, 10, 15, 30, 0, 0, time.UTC)
	if got := sundayOf(wednesday); types.FormatDate(got) != "2024-01-07" {
		t.Errorf("expected 2024-01-07, got %s", types.FormatDate(got))
	}

	sunday := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	if got := sundayOf(sunday); types.FormatDate(got) != "2024-01-07" {
		t.Errorf("sunday should map to itself, got %s", types.FormatDate(got))
	}
}

func TestAnalyticsService_GetDailyStatsFillsGaps(t *testing.T) {
	gw := newTestGateway(t)
	habits := store.NewHabitRepository(gw)
	logs := store.NewHabitLogRepository(gw)
	svc := NewAnalyticsService(habits, logs)
	ctx := context.Background()

	h := mustSaveHabit(t, habits, "Prayer", types.FrequencyDaily)
	mustSaveHabit(t, habits, "Reading", types.FrequencyDaily)

	// Only yesterday has a completion; every other day in the window must
	// still appear with zero completed.
	yesterday := types.FormatDate(time.Now().UTC().AddDate(0, 0, -1))
	mustLog(t, logs, h.ID, yesterday, true)

	stats, err := svc.GetDailyStats(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 7 {
		t.Fatalf("expected 7 daily stats, got %d", len(stats))
	}

	var found bool
	for _, s := range stats {
		if s.Total != 2 {
			t.Errorf("expected total 2 active daily habits on %s, got %d", s.Date, s.Total)
		}
		if s.Date == yesterday {
			found = true
			if s.Completed != 1 {
				t.Errorf("expected 1 completion on %s, got %d", s.Date, s.Completed)
			}
			if s.Percentage != 50 {
				t.Errorf("expected 50%%, got %d", s.Percentage)
			}
		} else if s.Completed != 0 {
			t.Errorf("expected gap day %s to report 0 completed, got %d", s.Date, s.Completed)
		}
	}
	if !found {
		t.Errorf("expected %s in the window", yesterday)
	}
}

func TestAnalyticsService_GetWeeklyStats(t *testing.T) {
	gw := newTestGateway(t)
	habits := store.NewHabitRepository(gw)
	logs := store.NewHabitLogRepository(gw)
	svc := NewAnalyticsService(habits, logs)
	ctx := context.Background()

	mustSaveHabit(t, habits, "Sabbath Rest", types.FrequencyWeekly)
	mustSaveHabit(t, habits, "Family Night", types.FrequencyWeekly)

	stats, err := svc.GetWeeklyStats(ctx, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 4 {
		t.Fatalf("expected 4 weekly stats, got %d", len(stats))
	}
	for _, s := range stats {
		// Two weekly habits give 14 completion slots per week.
		if s.Total != 14 {
			t.Errorf("expected total 14 for week %s, got %d", s.WeekStart, s.Total)
		}
		if wd, err := types.ParseDate(s.WeekStart); err != nil || wd.Weekday() != time.Sunday {
			t.Errorf("expected week start on a Sunday, got %s", s.WeekStart)
		}
	}
}

func TestAnalyticsService_GetMonthlyStatsCountsDistinctHabits(t *testing.T) {
	gw := newTestGateway(t)
	habits := store.NewHabitRepository(gw)
	logs := store.NewHabitLogRepository(gw)
	svc := NewAnalyticsService(habits, logs)
	ctx := context.Background()

	h := mustSaveHabit(t, habits, "Fasting", types.FrequencyMonthly)
	mustSaveHabit(t, habits, "Tithing", types.FrequencyMonthly)

	// Two completions of the same habit this month count once.
	now := time.Now().UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	mustLog(t, logs, h.ID, types.FormatDate(first), true)
	mustLog(t, logs, h.ID, types.FormatDate(first.AddDate(0, 0, 1)), true)

	stats, err := svc.GetMonthlyStats(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 3 {
		t.Fatalf("expected 3 monthly stats, got %d", len(stats))
	}

	current := stats[len(stats)-1]
	if current.Month != first.Format("2006-01") {
		// Months are oldest-first; find the current one explicitly.
		for _, s := range stats {
			if s.Month == first.Format("2006-01") {
				current = s
			}
		}
	}
	if current.Completed != 1 {
		t.Errorf("expected 1 distinct habit completed this month, got %d", current.Completed)
	}
	if current.Total != 2 {
		t.Errorf("expected total 2 monthly habits, got %d", current.Total)
	}
}

func TestAnalyticsService_GetCurrentStreakFromStore(t *testing.T) {
	gw := newTestGateway(t)
	habits := store.NewHabitRepository(gw)
	logs := store.NewHabitLogRepository(gw)
	svc := NewAnalyticsService(habits, logs)
	ctx := context.Background()

	h := mustSaveHabit(t, habits, "Prayer", types.FrequencyDaily)
	today := time.Now().UTC()
	for i := 0; i < 3; i++ {
		mustLog(t, logs, h.ID, types.FormatDate(today.AddDate(0, 0, -i)), true)
	}

	streak, err := svc.GetCurrentStreak(ctx, h.ID)
	if err != nil {
		t.Fatal(err)
	}
	if streak != 3 {
		t.Errorf("expected streak 3, got %d", streak)
	}
}
