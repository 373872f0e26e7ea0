package legacy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vesperhq/vesper/internal/store"
	"github.com/vesperhq/vesper/internal/types"
)

// Report summarizes one importer run. Each of the three sources is imported
// independently; a failure in one is collected here and does not abort the
// others. Success is false when any error was recorded.
type Report struct {
	Success           bool     `json:"success"`
	Skipped           bool     `json:"skipped"`
	HabitsImported    int      `json:"habits_imported"`
	LogsImported      int      `json:"logs_imported"`
	GratitudeImported int      `json:"gratitude_imported"`
	Errors            []string `json:"errors"`
}

// Importer replays the legacy key-value blobs through the repositories'
// save paths. Source ids are preserved, so the upserts make a forced rerun
// idempotent at the row level.
type Importer struct {
	kv        *KVStore
	habits    *store.HabitRepository
	logs      *store.HabitLogRepository
	gratitude *store.GratitudeRepository
}

// NewImporter creates an Importer over the legacy store and repositories.
func NewImporter(kv *KVStore, habits *store.HabitRepository, logs *store.HabitLogRepository, gratitude *store.GratitudeRepository) *Importer {
	return &Importer{kv: kv, habits: habits, logs: logs, gratitude: gratitude}
}

// legacy blob shapes, field names as the mobile client serialized them.

type legacyHabit struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Icon              string  `json:"icon"`
	Frequency         string  `json:"frequency"`
	ReminderTime      *string `json:"reminderTime"`
	Streak            int     `json:"streak"`
	LastCompletedDate *string `json:"lastCompletedDate"`
	IsActive          bool    `json:"isActive"`
	IsDefault         bool    `json:"isDefault"`
	CreatedAt         string  `json:"createdAt"`
	UpdatedAt         string  `json:"updatedAt"`
}

type legacyHabitLog struct {
	ID          string  `json:"id"`
	HabitID     string  `json:"habitId"`
	Date        string  `json:"date"`
	Completed   bool    `json:"completed"`
	CompletedAt *string `json:"completedAt"`
	CreatedAt   string  `json:"createdAt"`
}

type legacyGratitudeEntry struct {
	ID        string   `json:"id"`
	Date      string   `json:"date"`
	Entries   []string `json:"entries"`
	CreatedAt string   `json:"createdAt"`
}

// Run performs the one-shot import. It is gated by the persisted completion
// flag: once a run has happened the importer never re-runs unless force is
// set. The flag is written even after a partial failure; reconciling
// partial data is a manual re-trigger with force.
func (im *Importer) Run(ctx context.Context, force bool) (*Report, error) {
	report := &Report{Errors: []string{}}

	if !force {
		done, err := im.completed()
		if err != nil {
			return nil, err
		}
		if done {
			report.Success = true
			report.Skipped = true
			return report, nil
		}
	}

	im.importHabits(ctx, report)
	im.importLogs(ctx, report)
	im.importGratitude(ctx, report)

	report.Success = len(report.Errors) == 0

	if err := im.kv.Set(KeyMigrationComplete, json.RawMessage(`true`)); err != nil {
		report.Success = false
		report.Errors = append(report.Errors, fmt.Sprintf("persist completion flag: %v", err))
	}

	return report, nil
}

func (im *Importer) completed() (bool, error) {
	blob, ok, err := im.kv.Get(KeyMigrationComplete)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	var done bool
	if err := json.Unmarshal(blob, &done); err != nil {
		return false, nil
	}
	return done, nil
}

func (im *Importer) importHabits(ctx context.Context, report *Report) {
	blob, ok, err := im.kv.Get(KeyHabits)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("habits: %v", err))
		return
	}
	if !ok {
		return
	}

	var habits []legacyHabit
	if err := json.Unmarshal(blob, &habits); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("habits: parse: %v", err))
		return
	}

	for _, lh := range habits {
		freq := types.Frequency(lh.Frequency)
		if !freq.Valid() {
			report.Errors = append(report.Errors, fmt.Sprintf("habits: %s: unknown frequency %q", lh.ID, lh.Frequency))
			continue
		}

		h := types.Habit{
			ID:                lh.ID,
			Name:              lh.Name,
			Icon:              lh.Icon,
			Frequency:         freq,
			ReminderTime:      lh.ReminderTime,
			Streak:            lh.Streak,
			LastCompletedDate: lh.LastCompletedDate,
			IsActive:          lh.IsActive,
			IsDefault:         lh.IsDefault,
			CreatedAt:         parseLegacyTime(lh.CreatedAt),
		}
		if err := im.habits.Save(ctx, &h); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("habits: %s: %v", lh.ID, err))
			continue
		}
		report.HabitsImported++
	}
}

func (im *Importer) importLogs(ctx context.Context, report *Report) {
	blob, ok, err := im.kv.Get(KeyHabitLogs)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("logs: %v", err))
		return
	}
	if !ok {
		return
	}

	var logs []legacyHabitLog
	if err := json.Unmarshal(blob, &logs); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("logs: parse: %v", err))
		return
	}

	for _, ll := range logs {
		l := types.HabitLog{
			ID:        ll.ID,
			HabitID:   ll.HabitID,
			Date:      ll.Date,
			Completed: ll.Completed,
			CreatedAt: parseLegacyTime(ll.CreatedAt),
		}
		if ll.CompletedAt != nil {
			if t, err := time.Parse(time.RFC3339, *ll.CompletedAt); err == nil {
				l.CompletedAt = &t
			}
		}
		if err := im.logs.Upsert(ctx, &l); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("logs: %s/%s: %v", ll.HabitID, ll.Date, err))
			continue
		}
		report.LogsImported++
	}
}

func (im *Importer) importGratitude(ctx context.Context, report *Report) {
	blob, ok, err := im.kv.Get(KeyGratitudeEntries)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("gratitude: %v", err))
		return
	}
	if !ok {
		return
	}

	var entries []legacyGratitudeEntry
	if err := json.Unmarshal(blob, &entries); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("gratitude: parse: %v", err))
		return
	}

	for _, le := range entries {
		e := types.GratitudeEntry{
			ID:        le.ID,
			Date:      le.Date,
			Items:     le.Entries,
			CreatedAt: parseLegacyTime(le.CreatedAt),
		}
		if err := im.gratitude.Save(ctx, &e); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("gratitude: %s: %v", le.Date, err))
			continue
		}
		report.GratitudeImported++
	}
}

// parseLegacyTime parses the mobile client's timestamps, falling back to
// now for absent or malformed values rather than rejecting the record.
func parseLegacyTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Now().UTC()
}
