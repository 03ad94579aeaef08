package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/blueprint/internal/executor"
)

func writeManifestFile(t *testing.T, dir, runID string, ts time.Time, success bool) string {
	t.Helper()
	manifest := &executor.RunManifest{
		RunID:         runID,
		Timestamp:     ts,
		BlueprintName: "deploy",
		Success:       success,
		Elapsed:       "2s",
		Phases: []executor.ManifestPhase{
			{Name: "build", Success: success, Steps: []executor.ManifestStep{
				{Description: "run: make build", Success: success},
			}},
		},
	}
	if err := executor.SaveManifest(manifest, dir); err != nil {
		t.Fatalf("SaveManifest() error = %v", err)
	}
	return filepath.Join(dir, ts.Format("20060102_150405")+"_"+runID+".json")
}

func TestCollectRuns(t *testing.T) {
	dir := t.TempDir()

	older := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	writeManifestFile(t, dir, "0198aaaa", older, true)
	writeManifestFile(t, dir, "0199bbbb", newer, false)

	// Foreign files are skipped
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "junk.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	runs, err := collectRuns(dir)
	if err != nil {
		t.Fatalf("collectRuns() error = %v", err)
	}

	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if runs[0].RunID != "0199bbbb" {
		t.Errorf("first run = %s, want newest (0199bbbb)", runs[0].RunID)
	}
	if runs[1].RunID != "0198aaaa" {
		t.Errorf("second run = %s, want 0198aaaa", runs[1].RunID)
	}
	if runs[0].Blueprint != "deploy" {
		t.Errorf("Blueprint = %q, want deploy", runs[0].Blueprint)
	}
	if runs[0].Success {
		t.Error("newest run should be failed")
	}
	if runs[0].Elapsed != "2s" {
		t.Errorf("Elapsed = %q, want 2s", runs[0].Elapsed)
	}
}

func TestCollectRuns_MissingDir(t *testing.T) {
	runs, err := collectRuns(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("collectRuns() error = %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("runs = %d, want 0", len(runs))
	}
}

func TestFindManifest(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	path := writeManifestFile(t, dir, "0198aaaa", ts, true)
	writeManifestFile(t, dir, "0199bbbb", ts.Add(time.Hour), true)

	got, err := findManifest(dir, "0198aaaa")
	if err != nil {
		t.Fatalf("findManifest() error = %v", err)
	}
	if got != path {
		t.Errorf("findManifest() = %s, want %s", got, path)
	}

	// Unique prefix
	got, err = findManifest(dir, "0198")
	if err != nil {
		t.Fatalf("findManifest() by prefix error = %v", err)
	}
	if got != path {
		t.Errorf("findManifest() by prefix = %s, want %s", got, path)
	}

	if _, err := findManifest(dir, "zzzz"); err == nil {
		t.Error("expected error for unknown run ID")
	}
}

func TestReadManifest_Rejects(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := readManifest(bad); err == nil {
		t.Error("expected error for malformed JSON")
	}

	// Valid JSON that is not a manifest
	other := filepath.Join(dir, "other.json")
	if err := os.WriteFile(other, []byte(`{"kind":"something else"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := readManifest(other); err == nil {
		t.Error("expected error for JSON without a run ID")
	}
}
