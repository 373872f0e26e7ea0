package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/habits", func(r chi.Router) {
			r.Get("/", h.ListHabits)
			r.Post("/", h.CreateHabit)
			r.Get("/{id}", h.GetHabit)
			r.Put("/{id}", h.UpdateHabit)
			r.Delete("/{id}", h.DeleteHabit)
			r.Post("/{id}/toggle", h.ToggleHabit)
			r.Get("/{id}/streak", h.GetStreak)
		})

		r.Get("/logs", h.ListLogs)

		r.Route("/stats", func(r chi.Router) {
			r.Get("/daily", h.DailyStats)
			r.Get("/weekly", h.WeeklyStats)
			r.Get("/monthly", h.MonthlyStats)
		})

		r.Route("/gratitude", func(r chi.Router) {
			r.Get("/", h.MonthGratitude)
			r.Get("/today", h.TodayGratitude)
			r.Get("/{date}", h.GetGratitude)
			r.Put("/{date}", h.SaveGratitude)
			r.Delete("/{date}", h.DeleteGratitude)
		})

		r.Route("/prayers", func(r chi.Router) {
			r.Get("/", h.ListPrayers)
			r.Post("/", h.CreatePrayer)
			r.Get("/{id}", h.GetPrayer)
			r.Patch("/{id}", h.PatchPrayer)
			r.Delete("/{id}", h.DeletePrayer)
			r.Post("/{id}/answer", h.AnswerPrayer)
			r.Post("/{id}/archive", h.ArchivePrayer)
			r.Post("/{id}/updates", h.AddPrayerUpdate)
		})
	})

	return r
}
