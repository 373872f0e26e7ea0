package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vesperhq/vesper/internal/store"
	"github.com/vesperhq/vesper/internal/types"
)

func TestHabitLogService_ToggleCreatesCompletedLog(t *testing.T) {
	gw := newTestGateway(t)
	habits := store.NewHabitRepository(gw)
	logs := store.NewHabitLogRepository(gw)
	svc := NewHabitLogService(habits, logs)
	ctx := context.Background()

	h := mustSaveHabit(t, habits, "Morning Prayer", types.FrequencyDaily)

	log, err := svc.Toggle(ctx, h.ID, "2024-01-10")
	if err != nil {
		t.Fatal(err)
	}
	if !log.Completed {
		t.Error("first toggle should mark completed")
	}
	if log.CompletedAt == nil {
		t.Error("expected completed_at on a completed log")
	}
}

func TestHabitLogService_ToggleFlipsExistingLog(t *testing.T) {
	gw := newTestGateway(t)
	habits := store.NewHabitRepository(gw)
	logs := store.NewHabitLogRepository(gw)
	svc := NewHabitLogService(habits, logs)
	ctx := context.Background()

	h := mustSaveHabit(t, habits, "Scripture Reading", types.FrequencyDaily)

	first, err := svc.Toggle(ctx, h.ID, "2024-01-10")
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Toggle(ctx, h.ID, "2024-01-10")
	if err != nil {
		t.Fatal(err)
	}

	if second.Completed {
		t.Error("second toggle should mark incomplete")
	}
	if second.CompletedAt != nil {
		t.Error("incomplete log should not carry completed_at")
	}
	if second.ID != first.ID {
		t.Errorf("toggle should reuse the day's row: %q vs %q", second.ID, first.ID)
	}
}

func TestHabitLogService_ToggleUnknownHabit(t *testing.T) {
	gw := newTestGateway(t)
	svc := NewHabitLogService(store.NewHabitRepository(gw), store.NewHabitLogRepository(gw))

	_, err := svc.Toggle(context.Background(), "missing", "2024-01-10")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHabitLogService_ToggleRejectsBadDate(t *testing.T) {
	gw := newTestGateway(t)
	svc := NewHabitLogService(store.NewHabitRepository(gw), store.NewHabitLogRepository(gw))

	if _, err := svc.Toggle(context.Background(), "any", "10/01/2024"); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestHabitLogService_ConcurrentTogglesKeepOneRow(t *testing.T) {
	gw := newTestGateway(t)
	habits := store.NewHabitRepository(gw)
	logs := store.NewHabitLogRepository(gw)
	svc := NewHabitLogService(habits, logs)
	ctx := context.Background()

	h := mustSaveHabit(t, habits, "Gratitude Journal", types.FrequencyDaily)

	const n = 8
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := svc.Toggle(ctx, h.ID, "2024-01-10"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	day, err := logs.GetForDate(ctx, "2024-01-10")
	if err != nil {
		t.Fatal(err)
	}
	if len(day) != 1 {
		t.Fatalf("expected a single row after concurrent toggles, got %d", len(day))
	}
	// An even number of toggles always lands back on incomplete.
	if day[0].Completed {
		t.Error("expected completed=false after an even number of toggles")
	}
}

func TestHabitLogService_ToggleRefreshesHabitCache(t *testing.T) {
	gw := newTestGateway(t)
	habits := store.NewHabitRepository(gw)
	logs := store.NewHabitLogRepository(gw)
	svc := NewHabitLogService(habits, logs)
	ctx := context.Background()

	h := mustSaveHabit(t, habits, "Evening Prayer", types.FrequencyDaily)

	today := types.FormatDate(time.Now().UTC())
	yesterday := types.FormatDate(time.Now().UTC().AddDate(0, 0, -1))
	if _, err := svc.Toggle(ctx, h.ID, yesterday); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Toggle(ctx, h.ID, today); err != nil {
		t.Fatal(err)
	}

	got, err := habits.GetByID(ctx, h.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Streak != 2 {
		t.Errorf("expected cached streak 2, got %d", got.Streak)
	}
	if got.LastCompletedDate == nil || *got.LastCompletedDate != today {
		t.Errorf("expected last completed date %s, got %v", today, got.LastCompletedDate)
	}
}

func TestHabitLogService_Remove(t *testing.T) {
	gw := newTestGateway(t)
	habits := store.NewHabitRepository(gw)
	logs := store.NewHabitLogRepository(gw)
	svc := NewHabitLogService(habits, logs)
	ctx := context.Background()

	h := mustSaveHabit(t, habits, "Fasting", types.FrequencyMonthly)
	if _, err := svc.Toggle(ctx, h.ID, "2024-02-01"); err != nil {
		t.Fatal(err)
	}

	if err := svc.Remove(ctx, h.ID, "2024-02-01"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Remove(ctx, h.ID, "2024-02-01"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second remove, got %v", err)
	}
}
