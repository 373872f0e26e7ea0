// Package validation checks request fields at the API boundary. The
// repositories perform no input validation; everything user-supplied is
// rejected here before it reaches a service.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/vesperhq/vesper/internal/types"
)

// MaxNameLength bounds habit names and prayer titles.
const MaxNameLength = 100

// MaxTextLength bounds free-text fields (descriptions, notes, items).
const MaxTextLength = 1000

var reminderTimeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// HasErrors returns true if the collector has accumulated any errors.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// ValidateRequired returns an error when the value is blank.
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

// ValidateMaxLength returns an error if the value exceeds max runes.
func ValidateMaxLength(field, value string, max int) *ValidationError {
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("exceeds maximum length of %d characters", max),
		}
	}
	return nil
}

// ValidateDate returns an error if the value is not an ISO calendar date.
func ValidateDate(field, value string) *ValidationError {
	if _, err := types.ParseDate(value); err != nil {
		return &ValidationError{Field: field, Message: "must be a date in YYYY-MM-DD format"}
	}
	return nil
}

// ValidateFrequency returns an error for an unknown habit frequency.
func ValidateFrequency(field, value string) *ValidationError {
	if !types.Frequency(value).Valid() {
		return &ValidationError{Field: field, Message: "must be one of daily, weekly, monthly"}
	}
	return nil
}

// ValidateReminderTime returns an error if the value is not HH:MM 24h.
func ValidateReminderTime(field, value string) *ValidationError {
	if !reminderTimeRegex.MatchString(value) {
		return &ValidationError{Field: field, Message: "must be a time in HH:MM 24-hour format"}
	}
	return nil
}

// ValidatePrayerCategory returns an error for an unknown category.
func ValidatePrayerCategory(field, value string) *ValidationError {
	if !types.PrayerCategory(value).Valid() {
		return &ValidationError{Field: field, Message: "is not a known category"}
	}
	return nil
}

// ValidatePrayerPriority returns an error for an unknown priority.
func ValidatePrayerPriority(field, value string) *ValidationError {
	if !types.PrayerPriority(value).Valid() {
		return &ValidationError{Field: field, Message: "must be one of urgent, high, normal"}
	}
	return nil
}

// ValidatePrayerStatus returns an error for an unknown status.
func ValidatePrayerStatus(field, value string) *ValidationError {
	if !types.PrayerStatus(value).Valid() {
		return &ValidationError{Field: field, Message: "must be one of active, answered, archived"}
	}
	return nil
}
