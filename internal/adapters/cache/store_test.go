package cache

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/d-bias/dbias-go/internal/core"
)

func sampleResult() *core.AnalysisResult {
	return &core.AnalysisResult{
		ID:            "a-1",
		DatasetName:   "adult.csv",
		UploadDate:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Status:        core.StatusComplete,
		FairnessScore: 72,
		FairnessLabel: core.FairnessGood,
		BiasRisk:      core.RiskLow,
		DetectedBiases: []core.BiasEntry{
			{ID: "b1", BiasType: "Representation Bias", Column: "sex", Severity: core.SeverityHigh},
		},
		TotalBiases: 1,
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "analysis_response.json"))

	want := sampleResult()
	if err := store.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestStore_LoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope.json"))
	got, err := store.Load()
	if err != nil {
		t.Fatalf("missing cache must not error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil result, got %+v", got)
	}
	if store.Exists() {
		t.Error("Exists() should be false")
	}
}

func TestStore_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewStore(path).Load()
	if !core.IsCategory(err, core.ErrCatMalformed) {
		t.Errorf("expected malformed error, got %v", err)
	}
}

func TestStore_ChecksumMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tampered.json")
	store := NewStore(path)
	if err := store.Save(sampleResult()); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// Flip the dataset name inside the stored result.
	tampered := []byte(replaceOnce(string(data), "adult.csv", "other.csv"))
	if err := os.WriteFile(path, tampered, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = store.Load()
	if !core.IsCategory(err, core.ErrCatMalformed) {
		t.Errorf("expected checksum failure, got %v", err)
	}
}

func replaceOnce(s, old, repl string) string {
	for i := 0; i+len(old) <= len(s); i++ {
		if s[i:i+len(old)] == old {
			return s[:i] + repl + s[i+len(old):]
		}
	}
	return s
}

func TestStore_SaveNil(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "x.json"))
	if err := store.Save(nil); err == nil {
		t.Error("saving nil should error")
	}
}

func TestStore_OverwriteKeepsLatest(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "x.json"))

	first := sampleResult()
	if err := store.Save(first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	second := sampleResult()
	second.ID = "a-2"
	if err := store.Save(second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ID != "a-2" {
		t.Errorf("loaded id = %q, want a-2", got.ID)
	}
}
