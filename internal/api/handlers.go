// Package api exposes the persistence and analytics layer over a local
// HTTP surface. Handlers are thin: decode, validate, call a service,
// encode. All domain invariants live below this package.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vesperhq/vesper/internal/service"
	"github.com/vesperhq/vesper/internal/types"
	"github.com/vesperhq/vesper/internal/validation"
)

// Handler implements the API handlers.
type Handler struct {
	habits    *service.HabitService
	logs      *service.HabitLogService
	analytics *service.AnalyticsService
	gratitude *service.GratitudeService
	prayers   *service.PrayerService
	version   string
}

// NewHandler creates a Handler over the domain services.
func NewHandler(
	habits *service.HabitService,
	logs *service.HabitLogService,
	analytics *service.AnalyticsService,
	gratitude *service.GratitudeService,
	prayers *service.PrayerService,
	version string,
) *Handler {
	return &Handler{
		habits:    habits,
		logs:      logs,
		analytics: analytics,
		gratitude: gratitude,
		prayers:   prayers,
		version:   version,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Health returns the health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	habits, err := h.habits.GetAll(r.Context())
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, types.HealthResponse{
		Status:     "healthy",
		Version:    h.version,
		HabitCount: len(habits),
	})
}

// ListHabits handles GET /api/v1/habits with an optional frequency filter.
func (h *Handler) ListHabits(w http.ResponseWriter, r *http.Request) {
	var (
		habits []types.Habit
		err    error
	)

	if freq := r.URL.Query().Get("frequency"); freq != "" {
		if verr := validation.ValidateFrequency("frequency", freq); verr != nil {
			WriteProblemWithErrors(w, r, "Invalid query parameters", []validation.ValidationError{*verr})
			return
		}
		habits, err = h.habits.GetByFrequency(r.Context(), types.Frequency(freq))
	} else {
		habits, err = h.habits.GetAll(r.Context())
	}
	if err != nil {
		slog.Error("list habits failed", "error", err)
		MapStoreError(w, r, err)
		return
	}

	if habits == nil {
		habits = []types.Habit{}
	}
	writeJSON(w, http.StatusOK, habits)
}

// GetHabit handles GET /api/v1/habits/{id}.
func (h *Handler) GetHabit(w http.ResponseWriter, r *http.Request) {
	habit, err := h.habits.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, habit)
}

func validateHabitRequest(req types.HabitRequest) []validation.ValidationError {
	var c validation.Collector
	c.Add(validation.ValidateRequired("name", req.Name))
	c.Add(validation.ValidateMaxLength("name", req.Name, validation.MaxNameLength))
	c.Add(validation.ValidateFrequency("frequency", req.Frequency))
	if req.ReminderTime != nil {
		c.Add(validation.ValidateReminderTime("reminder_time", *req.ReminderTime))
	}
	return c.Errors()
}

// CreateHabit handles POST /api/v1/habits.
func (h *Handler) CreateHabit(w http.ResponseWriter, r *http.Request) {
	var req types.HabitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	if errs := validateHabitRequest(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	habit := types.Habit{
		Name:         req.Name,
		Icon:         req.Icon,
		Frequency:    types.Frequency(req.Frequency),
		ReminderTime: req.ReminderTime,
		IsActive:     true,
	}
	if err := h.habits.Save(r.Context(), &habit); err != nil {
		slog.Error("create habit failed", "error", err)
		MapStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, habit)
}

// UpdateHabit handles PUT /api/v1/habits/{id}.
func (h *Handler) UpdateHabit(w http.ResponseWriter, r *http.Request) {
	var req types.HabitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	if errs := validateHabitRequest(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	habit, err := h.habits.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	habit.Name = req.Name
	habit.Icon = req.Icon
	habit.Frequency = types.Frequency(req.Frequency)
	habit.ReminderTime = req.ReminderTime
	if req.IsActive != nil {
		habit.IsActive = *req.IsActive
	}

	if err := h.habits.Save(r.Context(), habit); err != nil {
		slog.Error("update habit failed", "error", err, "habit_id", habit.ID)
		MapStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, habit)
}

// DeleteHabit handles DELETE /api/v1/habits/{id}. The habit's logs are
// removed with it.
func (h *Handler) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	if err := h.habits.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleHabit handles POST /api/v1/habits/{id}/toggle.
func (h *Handler) ToggleHabit(w http.ResponseWriter, r *http.Request) {
	var req types.ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if req.Date == "" {
		req.Date = types.Today()
	}
	if verr := validation.ValidateDate("date", req.Date); verr != nil {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{*verr})
		return
	}

	log, err := h.logs.Toggle(r.Context(), chi.URLParam(r, "id"), req.Date)
	if err != nil {
		slog.Error("toggle failed", "error", err, "habit_id", chi.URLParam(r, "id"), "date", req.Date)
		MapStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, log)
}

// GetStreak handles GET /api/v1/habits/{id}/streak.
func (h *Handler) GetStreak(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	streak, err := h.analytics.GetCurrentStreak(r.Context(), id)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, types.StreakResponse{HabitID: id, Streak: streak})
}

// ListLogs handles GET /api/v1/logs?date= or ?start=&end=.
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		logs []types.HabitLog
		err  error
	)
	switch {
	case q.Get("date") != "":
		if verr := validation.ValidateDate("date", q.Get("date")); verr != nil {
			WriteProblemWithErrors(w, r, "Invalid query parameters", []validation.ValidationError{*verr})
			return
		}
		logs, err = h.logs.GetForDate(r.Context(), q.Get("date"))
	case q.Get("start") != "" && q.Get("end") != "":
		var c validation.Collector
		c.Add(validation.ValidateDate("start", q.Get("start")))
		c.Add(validation.ValidateDate("end", q.Get("end")))
		if c.HasErrors() {
			WriteProblemWithErrors(w, r, "Invalid query parameters", c.Errors())
			return
		}
		logs, err = h.logs.GetForRange(r.Context(), q.Get("start"), q.Get("end"))
	default:
		WriteProblem(w, r, http.StatusBadRequest, "Provide either date or start and end query parameters")
		return
	}
	if err != nil {
		slog.Error("list logs failed", "error", err)
		MapStoreError(w, r, err)
		return
	}

	if logs == nil {
		logs = []types.HabitLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

// queryWindow parses a positive integer query parameter with a default.
func queryWindow(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return n, nil
}

// DailyStats handles GET /api/v1/stats/daily?days=N.
func (h *Handler) DailyStats(w http.ResponseWriter, r *http.Request) {
	days, err := queryWindow(r, "days", 30)
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.analytics.GetDailyStats(r.Context(), days)
	if err != nil {
		slog.Error("daily stats failed", "error", err)
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// WeeklyStats handles GET /api/v1/stats/weekly?weeks=N.
func (h *Handler) WeeklyStats(w http.ResponseWriter, r *http.Request) {
	weeks, err := queryWindow(r, "weeks", 12)
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.analytics.GetWeeklyStats(r.Context(), weeks)
	if err != nil {
		slog.Error("weekly stats failed", "error", err)
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// MonthlyStats handles GET /api/v1/stats/monthly?months=N.
func (h *Handler) MonthlyStats(w http.ResponseWriter, r *http.Request) {
	months, err := queryWindow(r, "months", 6)
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.analytics.GetMonthlyStats(r.Context(), months)
	if err != nil {
		slog.Error("monthly stats failed", "error", err)
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
