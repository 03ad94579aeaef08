package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/blueprint/internal/ux"
	"github.com/spf13/cobra"
)

var (
	initForce  bool
	initDryRun bool
)

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a blueprint workspace",
	Long: `Create the .blueprint directory with a starter configuration and a
starter blueprint.yaml in the target directory.

Examples:
  # Initialize the current directory
  blueprint init

  # Initialize another directory
  blueprint init ./service

  # Preview changes without writing files
  blueprint init --dry-run

  # Overwrite existing files
  blueprint init --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing files")
	initCmd.Flags().BoolVar(&initDryRun, "dry-run", false, "preview changes without writing files")

	rootCmd.AddCommand(initCmd)
}

const starterConfig = `# Engine configuration. Every setting is optional; BLUEPRINT_*
# environment variables override the file.
#max_retries: 3
#retry_delay: 2s
#max_execution_time: 30m
#auto_recovery: true
#manifest_dir: .blueprint/runs
#default_models:
#  codegen: claude-sonnet-4-5
#  fast: claude-haiku-4-5
log:
  level: info
  format: text
`

const starterBlueprint = `name: hello
description: Starter blueprint. Replace the phases with your own.
phases:
  - name: greet
    steps:
      - type: command
        command: echo "hello from blueprint"
      - type: file
        description: record the greeting
        file_op:
          op: write
          path: hello.txt
          content: |
            hello from blueprint
    verification:
      kind: file_exists
      path: hello.txt
`

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	absDir, err := filepath.Abs(targetDir)
	if err != nil {
		return ux.FormatError(err, "resolving directory path")
	}

	defaults := ux.NewPathDefaults()
	dirs := []string{
		filepath.Join(absDir, defaults.BlueprintDir),
		filepath.Join(absDir, defaults.ManifestDir()),
		filepath.Join(absDir, defaults.LogDir()),
	}
	files := []struct {
		path    string
		content string
	}{
		{filepath.Join(absDir, defaults.ConfigFile()), starterConfig},
		{filepath.Join(absDir, "blueprint.yaml"), starterBlueprint},
	}

	if initDryRun {
		fmt.Println("Would create:")
		for _, dir := range dirs {
			fmt.Printf("  %s/\n", dir)
		}
		for _, f := range files {
			fmt.Printf("  %s\n", f.path)
		}
		return nil
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ux.FormatError(err, "creating workspace directories")
		}
	}

	for _, f := range files {
		if _, err := os.Stat(f.path); err == nil && !initForce {
			fmt.Printf("  skipped %s (exists, use --force to overwrite)\n", f.path)
			continue
		}
		if err := os.WriteFile(f.path, []byte(f.content), 0o644); err != nil {
			return ux.FormatError(err, "writing "+filepath.Base(f.path))
		}
		fmt.Printf("  created %s\n", f.path)
	}

	fmt.Println()
	fmt.Printf("Next: %s\n", ux.SuggestNextSteps())
	return nil
}
