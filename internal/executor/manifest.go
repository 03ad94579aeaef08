package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"

	"github.com/felixgeelhaar/blueprint/internal/blueprint"
)

// RunManifest is the audit record written after a run. It is a
// caller-opt-in side product; the in-memory ExecutionResult stays the
// primary output.
type RunManifest struct {
	RunID         string            `json:"run_id"`
	Timestamp     time.Time         `json:"timestamp"`
	BlueprintName string            `json:"blueprint_name"`
	BlueprintHash string            `json:"blueprint_hash,omitempty"`
	Success       bool              `json:"success"`
	Error         string            `json:"error,omitempty"`
	Elapsed       string            `json:"elapsed"`
	Phases        []ManifestPhase   `json:"phases"`
	OutputHashes  map[string]string `json:"output_hashes,omitempty"`
}

// ManifestPhase records one phase outcome
type ManifestPhase struct {
	Name    string         `json:"name"`
	Success bool           `json:"success"`
	Error   string         `json:"error,omitempty"`
	Steps   []ManifestStep `json:"steps"`
}

// ManifestStep records one step outcome
type ManifestStep struct {
	Description string `json:"description"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

// NewManifest builds a manifest from a finished run. Hash failures
// degrade to omitted fields; a manifest never blocks the run result.
func NewManifest(bp *blueprint.Blueprint, result *ExecutionResult, written []string) *RunManifest {
	m := &RunManifest{
		RunID:         result.RunID,
		Timestamp:     result.StartedAt,
		BlueprintName: result.BlueprintName,
		Success:       result.Success,
		Error:         errText(result.Err),
		Elapsed:       result.Elapsed.String(),
	}

	if bp != nil {
		if hash, err := blueprint.Hash(bp); err == nil {
			m.BlueprintHash = hash
		}
	}

	for _, pr := range result.Phases {
		mp := ManifestPhase{
			Name:    pr.Name,
			Success: pr.Success,
			Error:   errText(pr.Err),
		}
		for _, sr := range pr.Steps {
			mp.Steps = append(mp.Steps, ManifestStep{
				Description: sr.Description,
				Success:     sr.Success,
				Error:       errText(sr.Err),
			})
		}
		m.Phases = append(m.Phases, mp)
	}

	for _, path := range written {
		hash, err := HashFile(path)
		if err != nil {
			continue
		}
		if m.OutputHashes == nil {
			m.OutputHashes = make(map[string]string)
		}
		m.OutputHashes[path] = hash
	}

	return m
}

// SaveManifest writes a run manifest to dir, named by timestamp and
// run ID
func SaveManifest(manifest *RunManifest, dir string) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.json",
		manifest.Timestamp.Format("20060102_150405"),
		manifest.RunID)
	path := filepath.Join(dir, filename)

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// HashFile computes the blake3 hash of a file, matching the
// fingerprint scheme used for blueprint documents
func HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}

	return fmt.Sprintf("blake3:%x", hasher.Sum(nil)), nil
}

// writeManifest persists the run manifest when a manifest directory is
// configured. Failures are logged, never surfaced to the run.
func (e *Executor) writeManifest(bp *blueprint.Blueprint, result *ExecutionResult) {
	if e.manifestDir == "" {
		return
	}

	manifest := NewManifest(bp, result, e.writtenFiles())
	if err := SaveManifest(manifest, e.manifestDir); err != nil {
		e.logger.WarnContext(context.Background(), "run manifest not written", "error", err.Error())
	}
}
