package ux

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathDefaults provides smart defaults for common file paths
type PathDefaults struct {
	BlueprintDir string
}

// NewPathDefaults creates a new PathDefaults with sensible defaults
func NewPathDefaults() *PathDefaults {
	return &PathDefaults{
		BlueprintDir: ".blueprint",
	}
}

// BlueprintFile returns the conventional blueprint document path. A
// blueprint.yaml in the working directory wins over the config directory.
func (pd *PathDefaults) BlueprintFile() string {
	if _, err := os.Stat("blueprint.yaml"); err == nil {
		return "blueprint.yaml"
	}
	return filepath.Join(pd.BlueprintDir, "blueprint.yaml")
}

// ConfigFile returns the default path to config.yaml
func (pd *PathDefaults) ConfigFile() string {
	return filepath.Join(pd.BlueprintDir, "config.yaml")
}

// ManifestDir returns the default run manifest directory
func (pd *PathDefaults) ManifestDir() string {
	return filepath.Join(pd.BlueprintDir, "runs")
}

// LogDir returns the default log directory
func (pd *PathDefaults) LogDir() string {
	return filepath.Join(pd.BlueprintDir, "logs")
}

// ValidateBlueprintSetup checks if the .blueprint directory is initialized
func (pd *PathDefaults) ValidateBlueprintSetup() error {
	if _, err := os.Stat(pd.BlueprintDir); os.IsNotExist(err) {
		return fmt.Errorf(".blueprint directory not found. Create one with 'mkdir .blueprint' or pass an explicit blueprint file")
	}
	return nil
}

// ValidateRequiredFile checks if a required file exists and provides helpful error
func ValidateRequiredFile(path string, fileType string, hint string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("%s not found at: %s\n\n%s", fileType, path, hint)
	} else if err != nil {
		return fmt.Errorf("error accessing %s: %w", path, err)
	}
	return nil
}

// SuggestNextSteps provides contextual next steps based on what exists
func SuggestNextSteps() string {
	defaults := NewPathDefaults()

	_, hasDir := os.Stat(defaults.BlueprintDir)
	_, hasBlueprint := os.Stat(defaults.BlueprintFile())

	if os.IsNotExist(hasDir) {
		return "Create a .blueprint directory to hold configuration and run manifests"
	}

	if os.IsNotExist(hasBlueprint) {
		return "Write a blueprint.yaml describing your phases and steps, then check it with 'blueprint validate'"
	}

	return "Execute your blueprint with 'blueprint run blueprint.yaml'"
}
