// Package types defines the domain entities persisted by the store and the
// request/response shapes exposed by the API.
package types

import "time"

// Frequency is the cadence on which a habit is expected to be completed.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// Habit is a recurring spiritual practice tracked by the user.
//
// Streak and LastCompletedDate are cached display values refreshed
// opportunistically after a toggle; analytics always recompute from logs.
type Habit struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Icon              string    `json:"icon,omitempty"`
	Frequency         Frequency `json:"frequency"`
	ReminderTime      *string   `json:"reminder_time,omitempty"`
	Streak            int       `json:"streak"`
	LastCompletedDate *string   `json:"last_completed_date,omitempty"`
	IsActive          bool      `json:"is_active"`
	IsDefault         bool      `json:"is_default"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// HabitLog is one completion record for a habit on a calendar date.
// At most one log exists per (HabitID, Date) pair.
type HabitLog struct {
	ID          string     `json:"id"`
	HabitID     string     `json:"habit_id"`
	Date        string     `json:"date"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// GratitudeEntry is a day's ordered list of gratitude items. Date is unique
// per entry; items are replaced wholesale on every save.
type GratitudeEntry struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Items     []string  `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PrayerCategory groups prayer requests for filtering.
type PrayerCategory string

const (
	PrayerCategoryPersonal PrayerCategory = "personal"
	PrayerCategoryFamily   PrayerCategory = "family"
	PrayerCategoryHealth   PrayerCategory = "health"
	PrayerCategoryWork     PrayerCategory = "work"
	PrayerCategoryWorld    PrayerCategory = "world"
	PrayerCategoryOther    PrayerCategory = "other"
)

// Valid reports whether c is one of the known categories.
func (c PrayerCategory) Valid() bool {
	switch c {
	case PrayerCategoryPersonal, PrayerCategoryFamily, PrayerCategoryHealth,
		PrayerCategoryWork, PrayerCategoryWorld, PrayerCategoryOther:
		return true
	}
	return false
}

// PrayerPriority orders prayer requests: urgent before high before normal.
type PrayerPriority string

const (
	PrayerPriorityUrgent PrayerPriority = "urgent"
	PrayerPriorityHigh   PrayerPriority = "high"
	PrayerPriorityNormal PrayerPriority = "normal"
)

// Valid reports whether p is one of the known priorities.
func (p PrayerPriority) Valid() bool {
	switch p {
	case PrayerPriorityUrgent, PrayerPriorityHigh, PrayerPriorityNormal:
		return true
	}
	return false
}

// Rank returns the sort rank of the priority; lower sorts first.
func (p PrayerPriority) Rank() int {
	switch p {
	case PrayerPriorityUrgent:
		return 0
	case PrayerPriorityHigh:
		return 1
	default:
		return 2
	}
}

// PrayerStatus is the lifecycle state of a prayer request. Transitions are
// one-directional: active -> answered or active -> archived.
type PrayerStatus string

const (
	PrayerStatusActive   PrayerStatus = "active"
	PrayerStatusAnswered PrayerStatus = "answered"
	PrayerStatusArchived PrayerStatus = "archived"
)

// Valid reports whether s is one of the known statuses.
func (s PrayerStatus) Valid() bool {
	switch s {
	case PrayerStatusActive, PrayerStatusAnswered, PrayerStatusArchived:
		return true
	}
	return false
}

// PrayerNote is one timestamped note appended to a prayer request.
// The notes list is append-only.
type PrayerNote struct {
	ID        int64     `json:"id"`
	PrayerID  string    `json:"prayer_id"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// PrayerRequest is a tracked prayer need with lifecycle status.
type PrayerRequest struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description,omitempty"`
	Category     PrayerCategory `json:"category"`
	Priority     PrayerPriority `json:"priority"`
	Status       PrayerStatus   `json:"status"`
	AnsweredAt   *time.Time     `json:"answered_at,omitempty"`
	AnsweredNote *string        `json:"answered_note,omitempty"`
	Updates      []PrayerNote   `json:"updates"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
