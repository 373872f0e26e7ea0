package service

import (
	"context"

	"github.com/vesperhq/vesper/internal/store"
	"github.com/vesperhq/vesper/internal/types"
)

// HabitService fronts habit CRUD for the API layer. It exists so handlers
// never hold repositories directly and so first-launch seeding has a home
// beside the other habit operations.
type HabitService struct {
	habits *store.HabitRepository
}

// NewHabitService creates a HabitService over the repository.
func NewHabitService(habits *store.HabitRepository) *HabitService {
	return &HabitService{habits: habits}
}

// GetAll returns every habit in creation order.
func (s *HabitService) GetAll(ctx context.Context) ([]types.Habit, error) {
	return s.habits.GetAll(ctx)
}

// GetByID returns one habit, or store.ErrNotFound.
func (s *HabitService) GetByID(ctx context.Context, id string) (*types.Habit, error) {
	return s.habits.GetByID(ctx, id)
}

// GetByFrequency returns habits with the given cadence.
func (s *HabitService) GetByFrequency(ctx context.Context, freq types.Frequency) ([]types.Habit, error) {
	return s.habits.GetByFrequency(ctx, freq)
}

// Save inserts or updates a habit, assigning an id when absent.
func (s *HabitService) Save(ctx context.Context, h *types.Habit) error {
	return s.habits.Save(ctx, h)
}

// Delete removes a habit; its logs cascade away with it.
func (s *HabitService) Delete(ctx context.Context, id string) error {
	return s.habits.Delete(ctx, id)
}

// SeedDefaults inserts the starter habit set into an empty store.
func (s *HabitService) SeedDefaults(ctx context.Context) error {
	return s.habits.SeedDefaults(ctx)
}
