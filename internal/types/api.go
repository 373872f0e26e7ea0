package types

// HealthResponse reports service status and basic store counts.
type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	HabitCount int    `json:"habit_count"`
}

// HabitRequest is the payload for creating or updating a habit.
type HabitRequest struct {
	Name         string  `json:"name"`
	Icon         string  `json:"icon"`
	Frequency    string  `json:"frequency"`
	ReminderTime *string `json:"reminder_time"`
	IsActive     *bool   `json:"is_active"`
}

// ToggleRequest is the payload for toggling a habit's completion.
type ToggleRequest struct {
	Date string `json:"date"`
}

// GratitudeSaveRequest is the payload for saving a day's gratitude items.
type GratitudeSaveRequest struct {
	Items []string `json:"items"`
}

// PrayerCreateRequest is the payload for creating a prayer request.
type PrayerCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
}

// PrayerPatchRequest is the payload for a partial prayer update. Nil
// fields are left unchanged.
type PrayerPatchRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Priority    *string `json:"priority"`
}

// PrayerNoteRequest carries a note for answer/update operations.
type PrayerNoteRequest struct {
	Note string `json:"note"`
}

// StreakResponse reports a habit's current streak.
type StreakResponse struct {
	HabitID string `json:"habit_id"`
	Streak  int    `json:"streak"`
}
