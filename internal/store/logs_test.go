package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vesperhq/vesper/internal/types"
)

func seedHabit(t *testing.T, repo *HabitRepository, name string, freq types.Frequency) *types.Habit {
	t.Helper()
	h := &types.Habit{Name: name, Frequency: freq, IsActive: true}
	if err := repo.Save(context.Background(), h); err != nil {
		t.Fatal(err)
	}
	return h
}

func TestHabitLogRepository_UpsertKeepsOneRowPerDay(t *testing.T) {
	gw := newTestGateway(t)
	habits := NewHabitRepository(gw)
	logs := NewHabitLogRepository(gw)
	ctx := context.Background()

	h := seedHabit(t, habits, "Morning Prayer", types.FrequencyDaily)
	now := time.Now().UTC()

	first := &types.HabitLog{HabitID: h.ID, Date: "2024-01-10", Completed: true, CompletedAt: &now}
	if err := logs.Upsert(ctx, first); err != nil {
		t.Fatal(err)
	}

	// Second upsert for the same day flips the flag but must reuse the row.
	second := &types.HabitLog{HabitID: h.ID, Date: "2024-01-10", Completed: false}
	if err := logs.Upsert(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, err := logs.Get(ctx, h.ID, "2024-01-10")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != first.ID {
		t.Errorf("expected canonical row id %q to survive, got %q", first.ID, got.ID)
	}
	if got.Completed {
		t.Error("expected completed=false after second upsert")
	}
	if got.CreatedAt.Unix() != first.CreatedAt.Unix() {
		t.Errorf("created_at changed across upserts: %v vs %v", got.CreatedAt, first.CreatedAt)
	}

	day, err := logs.GetForDate(ctx, "2024-01-10")
	if err != nil {
		t.Fatal(err)
	}
	if len(day) != 1 {
		t.Fatalf("expected exactly one log for the day, got %d", len(day))
	}
}

func TestHabitLogRepository_GetNotFound(t *testing.T) {
	gw := newTestGateway(t)
	logs := NewHabitLogRepository(gw)

	_, err := logs.Get(context.Background(), "nope", "2024-01-01")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHabitLogRepository_GetForDateRange(t *testing.T) {
	gw := newTestGateway(t)
	habits := NewHabitRepository(gw)
	logs := NewHabitLogRepository(gw)
	ctx := context.Background()

	h := seedHabit(t, habits, "Scripture Reading", types.FrequencyDaily)
	now := time.Now().UTC()
	for _, date := range []string{"2024-01-08", "2024-01-09", "2024-01-10", "2024-01-15"} {
		if err := logs.Upsert(ctx, &types.HabitLog{HabitID: h.ID, Date: date, Completed: true, CompletedAt: &now}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := logs.GetForDateRange(ctx, "2024-01-08", "2024-01-10")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 logs in range, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Date < got[i-1].Date {
			t.Errorf("range results out of order: %q before %q", got[i-1].Date, got[i].Date)
		}
	}
}

func TestHabitLogRepository_Delete(t *testing.T) {
	gw := newTestGateway(t)
	habits := NewHabitRepository(gw)
	logs := NewHabitLogRepository(gw)
	ctx := context.Background()

	h := seedHabit(t, habits, "Fasting", types.FrequencyMonthly)
	if err := logs.Upsert(ctx, &types.HabitLog{HabitID: h.ID, Date: "2024-02-01", Completed: true}); err != nil {
		t.Fatal(err)
	}

	if err := logs.Delete(ctx, h.ID, "2024-02-01"); err != nil {
		t.Fatal(err)
	}
	if err := logs.Delete(ctx, h.ID, "2024-02-01"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestHabitLogRepository_GetDailyStatsForRange(t *testing.T) {
	gw := newTestGateway(t)
	habits := NewHabitRepository(gw)
	logs := NewHabitLogRepository(gw)
	ctx := context.Background()

	a := seedHabit(t, habits, "Prayer", types.FrequencyDaily)
	b := seedHabit(t, habits, "Reading", types.FrequencyDaily)
	seedHabit(t, habits, "Sabbath", types.FrequencyWeekly) // must not count toward daily stats

	now := time.Now().UTC()
	// Day one: both complete. Day two: only one.
	for _, l := range []*types.HabitLog{
		{HabitID: a.ID, Date: "2024-01-10", Completed: true, CompletedAt: &now},
		{HabitID: b.ID, Date: "2024-01-10", Completed: true, CompletedAt: &now},
		{HabitID: a.ID, Date: "2024-01-11", Completed: true, CompletedAt: &now},
		{HabitID: b.ID, Date: "2024-01-11", Completed: false},
	} {
		if err := logs.Upsert(ctx, l); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := logs.GetDailyStatsForRange(ctx, "2024-01-10", "2024-01-11", types.FrequencyDaily)
	if err != nil {
		t.Fatal(err)
	}
	byDate := make(map[string]types.DailyStat, len(stats))
	for _, s := range stats {
		byDate[s.Date] = s
	}
	if byDate["2024-01-10"].Completed != 2 {
		t.Errorf("expected 2 completed on day one, got %d", byDate["2024-01-10"].Completed)
	}
	if byDate["2024-01-11"].Completed != 1 {
		t.Errorf("expected 1 completed on day two, got %d", byDate["2024-01-11"].Completed)
	}
}

func TestHabitLogRepository_Counts(t *testing.T) {
	gw := newTestGateway(t)
	habits := NewHabitRepository(gw)
	logs := NewHabitLogRepository(gw)
	ctx := context.Background()

	a := seedHabit(t, habits, "Prayer", types.FrequencyDaily)
	b := seedHabit(t, habits, "Reading", types.FrequencyDaily)

	now := time.Now().UTC()
	for _, l := range []*types.HabitLog{
		{HabitID: a.ID, Date: "2024-01-08", Completed: true, CompletedAt: &now},
		{HabitID: a.ID, Date: "2024-01-09", Completed: true, CompletedAt: &now},
		{HabitID: b.ID, Date: "2024-01-09", Completed: true, CompletedAt: &now},
		{HabitID: b.ID, Date: "2024-01-10", Completed: false},
	} {
		if err := logs.Upsert(ctx, l); err != nil {
			t.Fatal(err)
		}
	}

	completed, err := logs.CountCompletedInRange(ctx, "2024-01-08", "2024-01-10", types.FrequencyDaily)
	if err != nil {
		t.Fatal(err)
	}
	if completed != 3 {
		t.Errorf("expected 3 completed rows in range, got %d", completed)
	}

	distinct, err := logs.CountDistinctCompletedHabits(ctx, "2024-01-08", "2024-01-10", types.FrequencyDaily)
	if err != nil {
		t.Fatal(err)
	}
	if distinct != 2 {
		t.Errorf("expected 2 distinct habits, got %d", distinct)
	}
}
