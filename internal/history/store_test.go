package history

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_AppendAndRecent(t *testing.T) {
	store := openTestStore(t)

	committed := &Record{
		Device:       "dot-a",
		Verdict:      VerdictCommitted,
		Target:       []float64{0.001, 0, 0, 0, 0, 0},
		Actual:       []float64{0.00101, 0, 0, 0, 0, 0},
		MaxDeviation: 0.001,
	}
	if err := store.Append(committed); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if committed.RunID == "" {
		t.Error("Expected a run id to be assigned")
	}

	rolledBack := &Record{
		Device:       "dot-a",
		Verdict:      VerdictSafetyRollback,
		Target:       []float64{0.01, 0, 0, 0, 0, 0},
		MaxDeviation: 0.01,
		Detail:       "emergency stop: gate 1 deviates by 0.01 V",
		CreatedAt:    time.Now().UTC().Add(time.Second),
	}
	if err := store.Append(rolledBack); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	records, err := store.Recent("dot-a", 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	// Newest first
	if records[0].Verdict != VerdictSafetyRollback {
		t.Errorf("Expected newest record first, got verdict %q", records[0].Verdict)
	}
	if records[0].Actual != nil {
		t.Error("Expected no readback on a rolled-back move")
	}
	if records[1].Verdict != VerdictCommitted {
		t.Errorf("Expected committed record second, got %q", records[1].Verdict)
	}
	if len(records[1].Actual) != 6 || records[1].Actual[0] != 0.00101 {
		t.Errorf("Readback round trip failed: %v", records[1].Actual)
	}
	if len(records[1].Target) != 6 || records[1].Target[0] != 0.001 {
		t.Errorf("Target round trip failed: %v", records[1].Target)
	}
}

func TestStore_RecentFiltersByDevice(t *testing.T) {
	store := openTestStore(t)

	for _, device := range []string{"dot-a", "dot-b", "dot-a"} {
		err := store.Append(&Record{
			Device:  device,
			Verdict: VerdictCommitted,
			Target:  []float64{0, 0, 0, 0, 0, 0},
		})
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	records, err := store.Recent("dot-a", 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 records for dot-a, got %d", len(records))
	}

	all, err := store.Recent("", 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 records for all devices, got %d", len(all))
	}
}

func TestStore_RecentLimit(t *testing.T) {
	store := openTestStore(t)

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		err := store.Append(&Record{
			Device:    "dot-a",
			Verdict:   VerdictCommitted,
			Target:    []float64{float64(i), 0, 0, 0, 0, 0},
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	records, err := store.Recent("dot-a", 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].Target[0] != 4 {
		t.Errorf("Expected newest record first, got target %v", records[0].Target)
	}
}
