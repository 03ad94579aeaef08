package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/blueprint/internal/executor"
	"github.com/felixgeelhaar/blueprint/internal/ux"
)

var (
	runsDir    string
	runsOutput string
	runsLimit  int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded run manifests",
	Long: `Browse the JSON manifests left by past runs.

Manifests are written to the configured manifest directory
(.blueprint/runs by convention) when manifest recording is enabled.

Examples:
  # List recorded runs
  blueprint runs

  # Show one run in full
  blueprint runs show 0198b2c4

  # List as JSON
  blueprint runs -o json`,
	RunE: runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one recorded run manifest",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	runsCmd.PersistentFlags().StringVar(&runsDir, "dir", "", "manifest directory (default from config)")
	runsCmd.PersistentFlags().StringVarP(&runsOutput, "output", "o", "text", "output format: text, json, or yaml")
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "number of runs to list")

	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

// manifestDir resolves where run manifests live: the --dir flag, then
// config, then the conventional default
func manifestDir() string {
	if runsDir != "" {
		return runsDir
	}
	if cfg, err := loadConfig(); err == nil && cfg.ManifestDir != "" {
		return cfg.ManifestDir
	}
	return ux.NewPathDefaults().ManifestDir()
}

// RunInfo summarizes one recorded manifest for listings
type RunInfo struct {
	RunID     string    `json:"run_id" yaml:"run_id"`
	Blueprint string    `json:"blueprint" yaml:"blueprint"`
	Success   bool      `json:"success" yaml:"success"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Elapsed   string    `json:"elapsed" yaml:"elapsed"`
	Path      string    `json:"path" yaml:"path"`
	Size      int64     `json:"size" yaml:"size"`
}

func runRunsList(cmd *cobra.Command, args []string) error {
	dir := manifestDir()

	runs, err := collectRuns(dir)
	if err != nil {
		return ux.FormatError(err, "listing run manifests")
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs found")
		return nil
	}
	if runsLimit > 0 && len(runs) > runsLimit {
		runs = runs[:runsLimit]
	}

	if runsOutput == "json" || runsOutput == "yaml" {
		formatter, err := ux.NewFormatter(runsOutput, &ux.FormatterOptions{})
		if err != nil {
			return err
		}
		return formatter.Format(runs)
	}

	fmt.Printf("Recorded runs in %s:\n\n", dir)
	for _, r := range runs {
		fmt.Printf("  %s %s  %-20s %s  (%s)\n",
			statusMark(r.Success),
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Blueprint,
			r.RunID,
			r.Elapsed)
	}
	fmt.Printf("\nTotal: %d runs\n", len(runs))
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	dir := manifestDir()

	path, err := findManifest(dir, args[0])
	if err != nil {
		return err
	}
	manifest, err := readManifest(path)
	if err != nil {
		return ux.FormatError(err, "reading run manifest")
	}

	if runsOutput == "json" || runsOutput == "yaml" {
		formatter, err := ux.NewFormatter(runsOutput, &ux.FormatterOptions{})
		if err != nil {
			return err
		}
		return formatter.Format(manifest)
	}

	printManifest(manifest)
	return nil
}

func collectRuns(dir string) ([]RunInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read manifest directory: %w", err)
	}

	var runs []RunInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		manifest, err := readManifest(path)
		if err != nil {
			// Foreign files in the manifest directory are skipped
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		runs = append(runs, RunInfo{
			RunID:     manifest.RunID,
			Blueprint: manifest.BlueprintName,
			Success:   manifest.Success,
			Timestamp: manifest.Timestamp,
			Elapsed:   manifest.Elapsed,
			Path:      path,
			Size:      info.Size(),
		})
	}

	// Newest first
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})

	return runs, nil
}

func readManifest(path string) (*executor.RunManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var manifest executor.RunManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, err
	}
	if manifest.RunID == "" {
		return nil, fmt.Errorf("not a run manifest: %s", path)
	}
	return &manifest, nil
}

// findManifest locates a manifest by run ID. A unique run ID prefix is
// accepted too.
func findManifest(dir, runID string) (string, error) {
	if matches, err := filepath.Glob(filepath.Join(dir, "*_"+runID+".json")); err == nil && len(matches) > 0 {
		return matches[0], nil
	}

	runs, err := collectRuns(dir)
	if err != nil {
		return "", err
	}
	for _, r := range runs {
		if r.RunID == runID || strings.HasPrefix(r.RunID, runID) {
			return r.Path, nil
		}
	}
	return "", fmt.Errorf("run %s not found in %s", runID, dir)
}

func printManifest(m *executor.RunManifest) {
	fmt.Printf("Run %s\n\n", m.RunID)
	fmt.Printf("  Blueprint:   %s\n", m.BlueprintName)
	if m.BlueprintHash != "" {
		fmt.Printf("  Fingerprint: %s\n", m.BlueprintHash)
	}
	fmt.Printf("  Started:     %s\n", m.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Printf("  Elapsed:     %s\n", m.Elapsed)
	if m.Success {
		fmt.Printf("  Result:      success\n")
	} else {
		fmt.Printf("  Result:      failed\n")
		if m.Error != "" {
			fmt.Printf("  Error:       %s\n", m.Error)
		}
	}

	for _, phase := range m.Phases {
		fmt.Printf("\n  %s Phase %s\n", statusMark(phase.Success), phase.Name)
		for _, step := range phase.Steps {
			fmt.Printf("    %s %s\n", statusMark(step.Success), step.Description)
			if step.Error != "" {
				fmt.Printf("      %s\n", step.Error)
			}
		}
	}

	if len(m.OutputHashes) > 0 {
		fmt.Println("\n  Written files:")
		paths := make([]string, 0, len(m.OutputHashes))
		for path := range m.OutputHashes {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		for _, path := range paths {
			fmt.Printf("    %s  %s\n", path, m.OutputHashes[path])
		}
	}
}

func statusMark(success bool) string {
	if success {
		return "✓"
	}
	return "✗"
}
