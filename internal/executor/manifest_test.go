package executor

import (
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/blueprint/internal/blueprint"
)

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(a, []byte("content"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("different"), 0644); err != nil {
		t.Fatal(err)
	}

	hashA, err := HashFile(a)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(hashA, "blake3:") {
		t.Errorf("hash = %q, want blake3 prefix", hashA)
	}

	hashA2, err := HashFile(a)
	if err != nil {
		t.Fatal(err)
	}
	if hashA != hashA2 {
		t.Errorf("hash not deterministic: %q vs %q", hashA, hashA2)
	}

	hashB, err := HashFile(b)
	if err != nil {
		t.Fatal(err)
	}
	if hashA == hashB {
		t.Error("different content produced identical hashes")
	}

	if _, err := HashFile(filepath.Join(dir, "missing")); err == nil {
		t.Error("HashFile(missing) error = nil, want error")
	}
}

func TestNewManifest(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "artifact.bin")
	if err := os.WriteFile(artifact, []byte("bin"), 0644); err != nil {
		t.Fatal(err)
	}

	bp := &blueprint.Blueprint{
		Name:   "Ship",
		Phases: []blueprint.Phase{{Name: "P", Steps: []blueprint.Step{{Type: blueprint.StepCommand, Command: "x"}}}},
	}
	result := &ExecutionResult{
		RunID:         "run-1",
		BlueprintName: "Ship",
		Success:       false,
		StartedAt:     time.Now(),
		Elapsed:       3 * time.Second,
		Err:           stderrors.New("phase P blew up"),
		Phases: []PhaseResult{
			{
				Name: "P",
				Steps: []StepResult{
					{Description: "good", Success: true},
					{Description: "bad", Err: stderrors.New("boom")},
				},
				Err: stderrors.New("boom"),
			},
		},
	}

	// One real artifact and one vanished path: hashing degrades, never
	// fails the manifest
	m := NewManifest(bp, result, []string{artifact, filepath.Join(dir, "vanished")})

	if m.RunID != "run-1" || m.BlueprintName != "Ship" {
		t.Errorf("identity = %q/%q", m.RunID, m.BlueprintName)
	}
	if m.Success {
		t.Error("Success = true, want false")
	}
	if m.Error != "phase P blew up" {
		t.Errorf("Error = %q", m.Error)
	}
	if m.Elapsed != "3s" {
		t.Errorf("Elapsed = %q, want 3s", m.Elapsed)
	}
	if !strings.HasPrefix(m.BlueprintHash, "blake3:") {
		t.Errorf("BlueprintHash = %q, want blake3 prefix", m.BlueprintHash)
	}

	if len(m.Phases) != 1 {
		t.Fatalf("phases = %d, want 1", len(m.Phases))
	}
	p := m.Phases[0]
	if p.Name != "P" || p.Success || p.Error != "boom" {
		t.Errorf("phase = %+v", p)
	}
	if len(p.Steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(p.Steps))
	}
	if !p.Steps[0].Success || p.Steps[0].Error != "" {
		t.Errorf("step 0 = %+v", p.Steps[0])
	}
	if p.Steps[1].Success || p.Steps[1].Error != "boom" {
		t.Errorf("step 1 = %+v", p.Steps[1])
	}

	if len(m.OutputHashes) != 1 {
		t.Fatalf("OutputHashes = %v, want only the real artifact", m.OutputHashes)
	}
	if _, ok := m.OutputHashes[artifact]; !ok {
		t.Errorf("OutputHashes missing %q", artifact)
	}
}

func TestNewManifestNilBlueprint(t *testing.T) {
	m := NewManifest(nil, &ExecutionResult{RunID: "r"}, nil)
	if m.BlueprintHash != "" {
		t.Errorf("BlueprintHash = %q, want empty without a document", m.BlueprintHash)
	}
}

func TestSaveManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := &RunManifest{
		RunID:     "abc-123",
		Timestamp: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Success:   true,
		Elapsed:   "1s",
	}

	if err := SaveManifest(m, filepath.Join(dir, "deep", "manifests")); err != nil {
		t.Fatalf("SaveManifest: %v", err)
	}

	path := filepath.Join(dir, "deep", "manifests", "20260314_092653_abc-123.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("manifest file: %v", err)
	}

	var loaded RunManifest
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if loaded.RunID != "abc-123" || !loaded.Success {
		t.Errorf("loaded = %+v", loaded)
	}
}
