package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vesperhq/vesper/internal/types"
	"github.com/vesperhq/vesper/internal/validation"
)

// TodayGratitude handles GET /api/v1/gratitude/today.
func (h *Handler) TodayGratitude(w http.ResponseWriter, r *http.Request) {
	entry, err := h.gratitude.GetTodayEntry(r.Context())
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// GetGratitude handles GET /api/v1/gratitude/{date}.
func (h *Handler) GetGratitude(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if verr := validation.ValidateDate("date", date); verr != nil {
		WriteProblemWithErrors(w, r, "Invalid path parameters", []validation.ValidationError{*verr})
		return
	}

	entry, err := h.gratitude.GetEntry(r.Context(), date)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// SaveGratitude handles PUT /api/v1/gratitude/{date}.
func (h *Handler) SaveGratitude(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if verr := validation.ValidateDate("date", date); verr != nil {
		WriteProblemWithErrors(w, r, "Invalid path parameters", []validation.ValidationError{*verr})
		return
	}

	var req types.GratitudeSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	var c validation.Collector
	for i, item := range req.Items {
		c.Add(validation.ValidateMaxLength(fmt.Sprintf("items[%d]", i), item, validation.MaxTextLength))
	}
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", c.Errors())
		return
	}

	entry, err := h.gratitude.SaveEntry(r.Context(), date, req.Items)
	if err != nil {
		slog.Error("save gratitude failed", "error", err, "date", date)
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// MonthGratitude handles GET /api/v1/gratitude?year=YYYY&month=M.
func (h *Handler) MonthGratitude(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "year must be an integer")
		return
	}
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil || month < 1 || month > 12 {
		WriteProblem(w, r, http.StatusBadRequest, "month must be an integer between 1 and 12")
		return
	}

	entries, err := h.gratitude.GetEntriesForMonth(r.Context(), year, time.Month(month))
	if err != nil {
		slog.Error("month gratitude failed", "error", err)
		MapStoreError(w, r, err)
		return
	}

	if entries == nil {
		entries = []types.GratitudeEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// DeleteGratitude handles DELETE /api/v1/gratitude/{date}.
func (h *Handler) DeleteGratitude(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if verr := validation.ValidateDate("date", date); verr != nil {
		WriteProblemWithErrors(w, r, "Invalid path parameters", []validation.ValidationError{*verr})
		return
	}

	if err := h.gratitude.DeleteEntry(r.Context(), date); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
