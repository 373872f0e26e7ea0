package store

import (
	"context"

	"github.com/vesperhq/vesper/internal/types"
)

// defaultHabits is the practice set seeded at first launch.
var defaultHabits = []types.Habit{
	{Name: "Morning Prayer", Icon: "sunrise", Frequency: types.FrequencyDaily},
	{Name: "Scripture Reading", Icon: "book", Frequency: types.FrequencyDaily},
	{Name: "Gratitude Journal", Icon: "heart", Frequency: types.FrequencyDaily},
	{Name: "Sabbath Rest", Icon: "moon", Frequency: types.FrequencyWeekly},
	{Name: "Fasting", Icon: "flame", Frequency: types.FrequencyMonthly},
}

// SeedDefaults inserts the default habit set when the habits table is
// empty. Re-running on a populated database is a no-op, so a user who
// deleted a default habit does not get it back.
func (r *HabitRepository) SeedDefaults(ctx context.Context) error {
	row, err := r.gw.QueryRow(ctx, `SELECT COUNT(*) FROM habits`)
	if err != nil {
		return err
	}

	var count int
	if err := row.Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, h := range defaultHabits {
		h.IsActive = true
		h.IsDefault = true
		if err := r.Save(ctx, &h); err != nil {
			return err
		}
	}
	return nil
}
