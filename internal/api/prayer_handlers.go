package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vesperhq/vesper/internal/store"
	"github.com/vesperhq/vesper/internal/types"
	"github.com/vesperhq/vesper/internal/validation"
)

// ListPrayers handles GET /api/v1/prayers with optional status and
// category filters.
func (h *Handler) ListPrayers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter store.PrayerFilter
	var c validation.Collector
	if raw := q.Get("status"); raw != "" {
		c.Add(validation.ValidatePrayerStatus("status", raw))
		status := types.PrayerStatus(raw)
		filter.Status = &status
	}
	if raw := q.Get("category"); raw != "" {
		c.Add(validation.ValidatePrayerCategory("category", raw))
		category := types.PrayerCategory(raw)
		filter.Category = &category
	}
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Invalid query parameters", c.Errors())
		return
	}

	prayers, err := h.prayers.List(r.Context(), filter)
	if err != nil {
		slog.Error("list prayers failed", "error", err)
		MapStoreError(w, r, err)
		return
	}

	if prayers == nil {
		prayers = []types.PrayerRequest{}
	}
	writeJSON(w, http.StatusOK, prayers)
}

// CreatePrayer handles POST /api/v1/prayers.
func (h *Handler) CreatePrayer(w http.ResponseWriter, r *http.Request) {
	var req types.PrayerCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	var c validation.Collector
	c.Add(validation.ValidateRequired("title", req.Title))
	c.Add(validation.ValidateMaxLength("title", req.Title, validation.MaxNameLength))
	c.Add(validation.ValidateMaxLength("description", req.Description, validation.MaxTextLength))
	if req.Category != "" {
		c.Add(validation.ValidatePrayerCategory("category", req.Category))
	}
	if req.Priority != "" {
		c.Add(validation.ValidatePrayerPriority("priority", req.Priority))
	}
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", c.Errors())
		return
	}

	prayer := &types.PrayerRequest{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Category:    types.PrayerCategory(req.Category),
		Priority:    types.PrayerPriority(req.Priority),
	}
	if err := h.prayers.Create(r.Context(), prayer); err != nil {
		slog.Error("create prayer failed", "error", err)
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, prayer)
}

// GetPrayer handles GET /api/v1/prayers/{id}.
func (h *Handler) GetPrayer(w http.ResponseWriter, r *http.Request) {
	prayer, err := h.prayers.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prayer)
}

// PatchPrayer handles PATCH /api/v1/prayers/{id}. Only the fields
// present in the payload are changed.
func (h *Handler) PatchPrayer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req types.PrayerPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	var c validation.Collector
	var patch store.PrayerPatch
	if req.Title != nil {
		c.Add(validation.ValidateRequired("title", *req.Title))
		c.Add(validation.ValidateMaxLength("title", *req.Title, validation.MaxNameLength))
		patch.Title = req.Title
	}
	if req.Description != nil {
		c.Add(validation.ValidateMaxLength("description", *req.Description, validation.MaxTextLength))
		patch.Description = req.Description
	}
	if req.Category != nil {
		c.Add(validation.ValidatePrayerCategory("category", *req.Category))
		category := types.PrayerCategory(*req.Category)
		patch.Category = &category
	}
	if req.Priority != nil {
		c.Add(validation.ValidatePrayerPriority("priority", *req.Priority))
		priority := types.PrayerPriority(*req.Priority)
		patch.Priority = &priority
	}
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", c.Errors())
		return
	}

	if err := h.prayers.Update(r.Context(), id, patch); err != nil {
		MapStoreError(w, r, err)
		return
	}

	prayer, err := h.prayers.Get(r.Context(), id)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prayer)
}

// AnswerPrayer handles POST /api/v1/prayers/{id}/answer.
func (h *Handler) AnswerPrayer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req types.PrayerNoteRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
			return
		}
	}

	var note *string
	if strings.TrimSpace(req.Note) != "" {
		note = &req.Note
	}
	if err := h.prayers.MarkAnswered(r.Context(), id, note); err != nil {
		MapStoreError(w, r, err)
		return
	}

	prayer, err := h.prayers.Get(r.Context(), id)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prayer)
}

// ArchivePrayer handles POST /api/v1/prayers/{id}/archive.
func (h *Handler) ArchivePrayer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.prayers.Archive(r.Context(), id); err != nil {
		MapStoreError(w, r, err)
		return
	}

	prayer, err := h.prayers.Get(r.Context(), id)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prayer)
}

// AddPrayerUpdate handles POST /api/v1/prayers/{id}/updates.
func (h *Handler) AddPrayerUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req types.PrayerNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	var c validation.Collector
	c.Add(validation.ValidateRequired("note", req.Note))
	c.Add(validation.ValidateMaxLength("note", req.Note, validation.MaxTextLength))
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", c.Errors())
		return
	}

	if err := h.prayers.AddUpdate(r.Context(), id, req.Note); err != nil {
		MapStoreError(w, r, err)
		return
	}

	prayer, err := h.prayers.Get(r.Context(), id)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, prayer)
}

// DeletePrayer handles DELETE /api/v1/prayers/{id}.
func (h *Handler) DeletePrayer(w http.ResponseWriter, r *http.Request) {
	if err := h.prayers.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
