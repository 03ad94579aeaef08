package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/blueprint/internal/blueprint"
)

func stashInitFlags(t *testing.T) func() {
	t.Helper()
	origForce, origDryRun := initForce, initDryRun
	initForce = false
	initDryRun = false
	return func() { initForce, initDryRun = origForce, origDryRun }
}

func TestRunInit_CreatesWorkspace(t *testing.T) {
	restore := stashInitFlags(t)
	defer restore()

	dir := t.TempDir()
	if err := runInit(initCmd, []string{dir}); err != nil {
		t.Fatalf("runInit() error = %v", err)
	}

	for _, path := range []string{
		filepath.Join(dir, ".blueprint", "config.yaml"),
		filepath.Join(dir, ".blueprint", "runs"),
		filepath.Join(dir, ".blueprint", "logs"),
		filepath.Join(dir, "blueprint.yaml"),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing %s: %v", path, err)
		}
	}

	// The starter blueprint must load and validate
	bp, err := blueprint.Load(filepath.Join(dir, "blueprint.yaml"))
	if err != nil {
		t.Fatalf("starter blueprint does not validate: %v", err)
	}
	if bp.Name != "hello" {
		t.Errorf("starter blueprint name = %q, want hello", bp.Name)
	}
	if len(bp.Phases) != 1 {
		t.Errorf("starter blueprint phases = %d, want 1", len(bp.Phases))
	}
}

func TestRunInit_PreservesExistingFiles(t *testing.T) {
	restore := stashInitFlags(t)
	defer restore()

	dir := t.TempDir()
	existing := filepath.Join(dir, "blueprint.yaml")
	if err := os.WriteFile(existing, []byte("name: custom\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := runInit(initCmd, []string{dir}); err != nil {
		t.Fatalf("runInit() error = %v", err)
	}

	data, err := os.ReadFile(existing)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "name: custom\n" {
		t.Error("existing blueprint.yaml was overwritten without --force")
	}

	initForce = true
	if err := runInit(initCmd, []string{dir}); err != nil {
		t.Fatalf("runInit() with --force error = %v", err)
	}
	data, err = os.ReadFile(existing)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) == "name: custom\n" {
		t.Error("--force should overwrite existing files")
	}
}

func TestRunInit_DryRun(t *testing.T) {
	restore := stashInitFlags(t)
	defer restore()
	initDryRun = true

	dir := t.TempDir()
	if err := runInit(initCmd, []string{dir}); err != nil {
		t.Fatalf("runInit() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, ".blueprint")); !os.IsNotExist(err) {
		t.Error("dry run should not create the .blueprint directory")
	}
	if _, err := os.Stat(filepath.Join(dir, "blueprint.yaml")); !os.IsNotExist(err) {
		t.Error("dry run should not write blueprint.yaml")
	}
}
