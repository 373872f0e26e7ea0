package legacy

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/vesperhq/vesper/internal/store"
	"github.com/vesperhq/vesper/internal/types"
)

func newTestGateway(t *testing.T) *store.Gateway {
	t.Helper()
	gw := store.NewGateway(":memory:")
	if err := gw.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { gw.Close() })
	return gw
}

func writeLegacyFile(t *testing.T, kv map[string]any) string {
	t.Helper()
	data, err := json.Marshal(kv)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "legacy.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestImporter(t *testing.T, gw *store.Gateway, path string) *Importer {
	t.Helper()
	return NewImporter(
		NewKVStore(path),
		store.NewHabitRepository(gw),
		store.NewHabitLogRepository(gw),
		store.NewGratitudeRepository(gw),
	)
}

func TestImporter_FullRun(t *testing.T) {
	gw := newTestGateway(t)
	path := writeLegacyFile(t, map[string]any{
		KeyHabits: []map[string]any{
			{
				"id":        "habit-1",
				"name":      "Morning Prayer",
				"icon":      "sunrise",
				"frequency": "daily",
				"isActive":  true,
				"createdAt": "2023-06-01T08:00:00Z",
				"updatedAt": "2023-06-01T08:00:00Z",
			},
		},
		KeyHabitLogs: []map[string]any{
			{
				"id":          "log-1",
				"habitId":     "habit-1",
				"date":        "2023-06-02",
				"completed":   true,
				"completedAt": "2023-06-02T07:45:00Z",
				"createdAt":   "2023-06-02T07:45:00Z",
			},
		},
		KeyGratitudeEntries: []map[string]any{
			{
				"id":        "grat-1",
				"date":      "2023-06-02",
				"entries":   []string{"Sunshine", "Coffee"},
				"createdAt": "2023-06-02T21:00:00Z",
			},
		},
	})

	im := newTestImporter(t, gw, path)
	report, err := im.Run(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}

	if !report.Success {
		t.Fatalf("expected success, errors: %v", report.Errors)
	}
	if report.HabitsImported != 1 || report.LogsImported != 1 || report.GratitudeImported != 1 {
		t.Errorf("unexpected counts: %+v", report)
	}

	ctx := context.Background()
	habit, err := store.NewHabitRepository(gw).GetByID(ctx, "habit-1")
	if err != nil {
		t.Fatal(err)
	}
	if habit.Name != "Morning Prayer" || habit.Frequency != types.FrequencyDaily {
		t.Errorf("habit not imported faithfully: %+v", habit)
	}

	log, err := store.NewHabitLogRepository(gw).Get(ctx, "habit-1", "2023-06-02")
	if err != nil {
		t.Fatal(err)
	}
	if !log.Completed || log.CompletedAt == nil {
		t.Errorf("log not imported faithfully: %+v", log)
	}

	entry, err := store.NewGratitudeRepository(gw).GetByDate(ctx, "2023-06-02")
	if err != nil {
		t.Fatal(err)
	}
	if len(entry.Items) != 2 {
		t.Errorf("expected 2 gratitude items, got %v", entry.Items)
	}
}

func TestImporter_SecondRunIsSkipped(t *testing.T) {
	gw := newTestGateway(t)
	path := writeLegacyFile(t, map[string]any{
		KeyHabits: []map[string]any{
			{"id": "habit-1", "name": "Prayer", "frequency": "daily", "isActive": true},
		},
	})

	im := newTestImporter(t, gw, path)
	first, err := im.Run(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if first.Skipped || first.HabitsImported != 1 {
		t.Fatalf("first run should import: %+v", first)
	}

	second, err := im.Run(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Skipped || !second.Success {
		t.Errorf("second run should be skipped: %+v", second)
	}
	if second.HabitsImported != 0 {
		t.Errorf("skipped run must not import, got %d", second.HabitsImported)
	}
}

func TestImporter_ForceReruns(t *testing.T) {
	gw := newTestGateway(t)
	path := writeLegacyFile(t, map[string]any{
		KeyHabits: []map[string]any{
			{"id": "habit-1", "name": "Prayer", "frequency": "daily", "isActive": true},
		},
	})

	im := newTestImporter(t, gw, path)
	if _, err := im.Run(context.Background(), false); err != nil {
		t.Fatal(err)
	}

	forced, err := im.Run(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if forced.Skipped {
		t.Error("forced run must not be skipped")
	}
	if forced.HabitsImported != 1 {
		t.Errorf("forced run should re-import, got %d", forced.HabitsImported)
	}

	// Re-import must upsert, not duplicate.
	all, err := store.NewHabitRepository(gw).GetAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 habit after forced rerun, got %d", len(all))
	}
}

func TestImporter_PartialFailureContinues(t *testing.T) {
	gw := newTestGateway(t)
	path := writeLegacyFile(t, map[string]any{
		KeyHabits: []map[string]any{
			{"id": "bad", "name": "Bad", "frequency": "fortnightly", "isActive": true},
			{"id": "good", "name": "Good", "frequency": "daily", "isActive": true},
		},
		KeyGratitudeEntries: []map[string]any{
			{"id": "grat-1", "date": "2023-06-02", "entries": []string{"x"}},
		},
	})

	im := newTestImporter(t, gw, path)
	report, err := im.Run(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}

	if report.Success {
		t.Error("expected failure with a bad record")
	}
	if len(report.Errors) != 1 {
		t.Errorf("expected 1 error, got %v", report.Errors)
	}
	if report.HabitsImported != 1 {
		t.Errorf("valid habit should still import, got %d", report.HabitsImported)
	}
	if report.GratitudeImported != 1 {
		t.Errorf("gratitude stream should still import, got %d", report.GratitudeImported)
	}
}

func TestImporter_MissingFileIsEmptyRun(t *testing.T) {
	gw := newTestGateway(t)
	path := filepath.Join(t.TempDir(), "absent.json")

	im := newTestImporter(t, gw, path)
	report, err := im.Run(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Success {
		t.Errorf("empty run should succeed: %+v", report)
	}
	if report.HabitsImported+report.LogsImported+report.GratitudeImported != 0 {
		t.Errorf("nothing to import, got %+v", report)
	}

	// The completion flag is persisted even for an empty run.
	done, ok, err := NewKVStore(path).Get(KeyMigrationComplete)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || string(done) != "true" {
		t.Errorf("expected completion flag written, got %q (present=%v)", done, ok)
	}
}

func TestKVStore_SetThenGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.json")
	kv := NewKVStore(path)

	if err := kv.Set("@answer", json.RawMessage(`42`)); err != nil {
		t.Fatal(err)
	}

	blob, ok, err := kv.Get("@answer")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || string(blob) != "42" {
		t.Errorf("round trip failed: %q (present=%v)", blob, ok)
	}

	_, ok, err = kv.Get("@missing")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("missing key reported as present")
	}
}
