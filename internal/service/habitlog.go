package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vesperhq/vesper/internal/store"
	"github.com/vesperhq/vesper/internal/types"
)

// HabitLogService manages completion toggling. Toggles are linearized per
// (habit, date) key so a rapid double-toggle cannot produce interleaved
// writes: the second toggle observes the first one's row.
type HabitLogService struct {
	habits *store.HabitRepository
	logs   *store.HabitLogRepository
	locks  *keyedMutex
}

// NewHabitLogService creates a HabitLogService over the repositories.
func NewHabitLogService(habits *store.HabitRepository, logs *store.HabitLogRepository) *HabitLogService {
	return &HabitLogService{
		habits: habits,
		logs:   logs,
		locks:  newKeyedMutex(),
	}
}

// Toggle flips the completion state of habitID on date, creating the log as
// completed when none exists. The habit's cached streak and last completed
// date are refreshed afterwards on a best-effort basis; a failure there is
// logged, not returned, since analytics recompute from logs anyway.
func (s *HabitLogService) Toggle(ctx context.Context, habitID, date string) (*types.HabitLog, error) {
	if _, err := types.ParseDate(date); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(habitID + "\x00" + date)
	defer unlock()

	habit, err := s.habits.GetByID(ctx, habitID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	log, err := s.logs.Get(ctx, habitID, date)
	switch {
	case errors.Is(err, store.ErrNotFound):
		log = &types.HabitLog{
			HabitID:     habitID,
			Date:        date,
			Completed:   true,
			CompletedAt: &now,
		}
	case err != nil:
		return nil, err
	default:
		log.Completed = !log.Completed
		if log.Completed {
			log.CompletedAt = &now
		} else {
			log.CompletedAt = nil
		}
	}

	if err := s.logs.Upsert(ctx, log); err != nil {
		return nil, err
	}

	s.refreshHabitCache(ctx, habit)

	return log, nil
}

// GetForDate returns all logs on one calendar date.
func (s *HabitLogService) GetForDate(ctx context.Context, date string) ([]types.HabitLog, error) {
	return s.logs.GetForDate(ctx, date)
}

// GetForRange returns logs with date within [start, end] inclusive.
func (s *HabitLogService) GetForRange(ctx context.Context, start, end string) ([]types.HabitLog, error) {
	return s.logs.GetForDateRange(ctx, start, end)
}

// Remove deletes the log for one habit on one date.
func (s *HabitLogService) Remove(ctx context.Context, habitID, date string) error {
	unlock := s.locks.Lock(habitID + "\x00" + date)
	defer unlock()

	return s.logs.Delete(ctx, habitID, date)
}

// refreshHabitCache recomputes the habit's convenience display fields from
// its logs. The cached values are not the source of truth.
func (s *HabitLogService) refreshHabitCache(ctx context.Context, habit *types.Habit) {
	logs, err := s.logs.GetForHabit(ctx, habit.ID)
	if err != nil {
		slog.Warn("refresh habit cache failed", "habit_id", habit.ID, "error", err)
		return
	}

	habit.Streak = currentStreak(logs, habit.Frequency, types.Today())
	habit.LastCompletedDate = nil
	for _, l := range logs {
		if l.Completed {
			habit.LastCompletedDate = &l.Date
			break
		}
	}

	if err := s.habits.Save(ctx, habit); err != nil {
		slog.Warn("refresh habit cache failed", "habit_id", habit.ID, "error", err)
	}
}
