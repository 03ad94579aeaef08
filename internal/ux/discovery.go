package ux

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DiscoverBlueprintDir searches for a .blueprint directory in multiple locations
// Priority: current dir -> parent dirs -> git root
func DiscoverBlueprintDir() (string, error) {
	// 1. Check current directory
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	blueprintPath := filepath.Join(cwd, ".blueprint")
	if _, err := os.Stat(blueprintPath); err == nil {
		return blueprintPath, nil
	}

	// 2. Search parent directories (up to git root or filesystem root)
	dir := cwd
	for {
		blueprintPath = filepath.Join(dir, ".blueprint")
		if _, err := os.Stat(blueprintPath); err == nil {
			return blueprintPath, nil
		}

		// Check if we're at git root
		gitDir := filepath.Join(dir, ".git")
		if _, err := os.Stat(gitDir); err == nil {
			// We're at git root but no .blueprint found yet
			// Keep searching up one more level in case it's in a parent workspace
			parent := filepath.Dir(dir)
			if parent == dir {
				// At filesystem root
				break
			}
			dir = parent
			continue
		}

		// Move up one directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	// 3. Try git root explicitly
	if gitRoot, err := getGitRoot(); err == nil {
		blueprintPath = filepath.Join(gitRoot, ".blueprint")
		if _, err := os.Stat(blueprintPath); err == nil {
			return blueprintPath, nil
		}
	}

	// 4. Fallback to current directory (will be created if needed)
	return filepath.Join(cwd, ".blueprint"), nil
}

// DiscoverConfigFile searches for a config file in multiple locations
func DiscoverConfigFile(filename string) (string, error) {
	// Try these locations in order:
	// 1. .blueprint/<filename>
	// 2. ./<filename>
	// 3. Parent directories up to git root
	// 4. ~/.blueprint/<filename>

	// 1. Check .blueprint directory
	blueprintDir, err := DiscoverBlueprintDir()
	if err == nil {
		configPath := filepath.Join(blueprintDir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
	}

	// 2. Check current directory
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(cwd, filename)
	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	}

	// 3. Search parent directories
	dir := cwd
	for {
		configPath = filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		// Stop at git root
		gitDir := filepath.Join(dir, ".git")
		if _, err := os.Stat(gitDir); err == nil {
			break
		}

		// Move up one directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	// 4. Check home directory .blueprint
	if homeDir, err := os.UserHomeDir(); err == nil {
		configPath = filepath.Join(homeDir, ".blueprint", filename)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
	}

	// Not found - return expected location in .blueprint dir
	if blueprintDir != "" {
		return filepath.Join(blueprintDir, filename), nil
	}

	return filepath.Join(cwd, ".blueprint", filename), nil
}

// getGitRoot returns the git repository root directory
func getGitRoot() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// EnsureBlueprintDir ensures the .blueprint directory exists
func EnsureBlueprintDir() error {
	blueprintDir, err := DiscoverBlueprintDir()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if _, err := os.Stat(blueprintDir); os.IsNotExist(err) {
		if err := os.MkdirAll(blueprintDir, 0755); err != nil {
			return err
		}
	}

	// Create subdirectories
	subdirs := []string{"runs", "logs"}
	for _, subdir := range subdirs {
		path := filepath.Join(blueprintDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return err
		}
	}

	return nil
}

// PathDefaultsWithDiscovery creates PathDefaults using auto-discovery
type PathDefaultsWithDiscovery struct {
	*PathDefaults
	discoveredDir string
}

// NewPathDefaultsWithDiscovery creates PathDefaults with an auto-discovered .blueprint directory
func NewPathDefaultsWithDiscovery() (*PathDefaultsWithDiscovery, error) {
	dir, err := DiscoverBlueprintDir()
	if err != nil {
		// Fallback to default
		return &PathDefaultsWithDiscovery{
			PathDefaults:  NewPathDefaults(),
			discoveredDir: ".blueprint",
		}, nil
	}

	return &PathDefaultsWithDiscovery{
		PathDefaults: &PathDefaults{
			BlueprintDir: dir,
		},
		discoveredDir: dir,
	}, nil
}

// DiscoveredDir returns the auto-discovered .blueprint directory path
func (pd *PathDefaultsWithDiscovery) DiscoveredDir() string {
	return pd.discoveredDir
}

// IsDiscovered returns true if the .blueprint directory was found (vs created)
func (pd *PathDefaultsWithDiscovery) IsDiscovered() bool {
	_, err := os.Stat(pd.discoveredDir)
	return err == nil
}
