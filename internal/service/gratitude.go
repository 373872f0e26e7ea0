package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vesperhq/vesper/internal/store"
	"github.com/vesperhq/vesper/internal/types"
)

// GratitudeService manages the daily gratitude journal.
type GratitudeService struct {
	entries *store.GratitudeRepository
}

// NewGratitudeService creates a GratitudeService over the repository.
func NewGratitudeService(entries *store.GratitudeRepository) *GratitudeService {
	return &GratitudeService{entries: entries}
}

// GetTodayEntry returns today's entry or store.ErrNotFound.
func (s *GratitudeService) GetTodayEntry(ctx context.Context) (*types.GratitudeEntry, error) {
	return s.entries.GetByDate(ctx, types.Today())
}

// GetEntry returns the entry for one date or store.ErrNotFound.
func (s *GratitudeService) GetEntry(ctx context.Context, date string) (*types.GratitudeEntry, error) {
	return s.entries.GetByDate(ctx, date)
}

// SaveEntry upserts the entry for date with the given items. Blank items
// are filtered out before storage; the remaining items replace the stored
// list in their given order. An existing entry keeps its id and created_at.
func (s *GratitudeService) SaveEntry(ctx context.Context, date string, items []string) (*types.GratitudeEntry, error) {
	if _, err := types.ParseDate(date); err != nil {
		return nil, err
	}

	filtered := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			filtered = append(filtered, trimmed)
		}
	}

	entry, err := s.entries.GetByDate(ctx, date)
	switch {
	case errors.Is(err, store.ErrNotFound):
		entry = &types.GratitudeEntry{Date: date}
	case err != nil:
		return nil, err
	}
	entry.Items = filtered

	if err := s.entries.Save(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// GetEntriesForMonth returns the month's entries in date order.
func (s *GratitudeService) GetEntriesForMonth(ctx context.Context, year int, month time.Month) ([]types.GratitudeEntry, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("invalid month %d", month)
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	return s.entries.GetByDateRange(ctx, types.FormatDate(first), types.FormatDate(last))
}

// DeleteEntry removes the entry for one date.
func (s *GratitudeService) DeleteEntry(ctx context.Context, date string) error {
	return s.entries.Delete(ctx, date)
}
