package service

import (
	"context"
	"sort"

	"github.com/vesperhq/vesper/internal/store"
	"github.com/vesperhq/vesper/internal/types"
)

// PrayerService manages prayer requests and applies the presentation
// ordering policy: urgent before high before normal, ties broken by
// creation time descending. Status and category filters compose
// independently.
type PrayerService struct {
	prayers *store.PrayerRepository
}

// NewPrayerService creates a PrayerService over the repository.
func NewPrayerService(prayers *store.PrayerRepository) *PrayerService {
	return &PrayerService{prayers: prayers}
}

// Create stores a new prayer request; it starts active.
func (s *PrayerService) Create(ctx context.Context, p *types.PrayerRequest) error {
	p.Status = types.PrayerStatusActive
	return s.prayers.Create(ctx, p)
}

// Get returns one prayer request with its updates.
func (s *PrayerService) Get(ctx context.Context, id string) (*types.PrayerRequest, error) {
	return s.prayers.GetByID(ctx, id)
}

// List returns prayer requests matching the filter, priority-sorted.
func (s *PrayerService) List(ctx context.Context, filter store.PrayerFilter) ([]types.PrayerRequest, error) {
	prayers, err := s.prayers.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(prayers, func(i, j int) bool {
		ri, rj := prayers[i].Priority.Rank(), prayers[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return prayers[i].CreatedAt.After(prayers[j].CreatedAt)
	})

	return prayers, nil
}

// Update applies a partial update to a prayer request.
func (s *PrayerService) Update(ctx context.Context, id string, patch store.PrayerPatch) error {
	return s.prayers.Update(ctx, id, patch)
}

// MarkAnswered transitions the request to answered with an optional note.
func (s *PrayerService) MarkAnswered(ctx context.Context, id string, note *string) error {
	return s.prayers.MarkAnswered(ctx, id, note)
}

// Archive transitions the request to archived.
func (s *PrayerService) Archive(ctx context.Context, id string) error {
	return s.prayers.Archive(ctx, id)
}

// AddUpdate appends a timestamped note to the request.
func (s *PrayerService) AddUpdate(ctx context.Context, id, note string) error {
	return s.prayers.AddUpdate(ctx, id, note)
}

// Delete hard-deletes the request and its updates.
func (s *PrayerService) Delete(ctx context.Context, id string) error {
	return s.prayers.Delete(ctx, id)
}
