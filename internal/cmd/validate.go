package cmd

import (
	"fmt"

	"github.com/felixgeelhaar/blueprint/internal/blueprint"
	"github.com/felixgeelhaar/blueprint/internal/ux"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [blueprint file]",
	Short: "Validate a blueprint without executing it",
	Long: `Parse a blueprint, check its structure, and print its canonical
fingerprint. Validation catches unknown step types, missing payloads,
and empty phases before a run is attempted. The fingerprint is stable
across formatting changes, so it identifies the blueprint in manifests
and logs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

var validateOutput string

func init() {
	validateCmd.Flags().StringVarP(&validateOutput, "output", "o", "text", "output format: text, json, or yaml")

	rootCmd.AddCommand(validateCmd)
}

// ValidationReport describes a blueprint that passed validation
type ValidationReport struct {
	Valid       bool   `json:"valid" yaml:"valid"`
	File        string `json:"file" yaml:"file"`
	Name        string `json:"name" yaml:"name"`
	Phases      int    `json:"phases" yaml:"phases"`
	Steps       int    `json:"steps" yaml:"steps"`
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := ux.NewPathDefaults().BlueprintFile()
	if len(args) > 0 {
		path = args[0]
	}

	bp, err := blueprint.Load(path)
	if err != nil {
		return err
	}

	fingerprint, err := blueprint.Hash(bp)
	if err != nil {
		return err
	}

	return outputValidation(buildValidationReport(path, bp, fingerprint))
}

func buildValidationReport(path string, bp *blueprint.Blueprint, fingerprint string) *ValidationReport {
	return &ValidationReport{
		Valid:       true,
		File:        path,
		Name:        bp.Name,
		Phases:      len(bp.Phases),
		Steps:       countSteps(bp),
		Fingerprint: fingerprint,
	}
}

// countSteps totals the authored steps across all phases. A
// conditional counts as one step regardless of its branch contents.
func countSteps(bp *blueprint.Blueprint) int {
	total := 0
	for i := range bp.Phases {
		total += len(bp.Phases[i].Steps)
	}
	return total
}

func outputValidation(report *ValidationReport) error {
	if validateOutput == "json" || validateOutput == "yaml" {
		formatter, err := ux.NewFormatter(validateOutput, &ux.FormatterOptions{})
		if err != nil {
			return err
		}
		return formatter.Format(report)
	}

	fmt.Printf("✓ %s is valid\n\n", report.File)
	fmt.Printf("  Name:        %s\n", report.Name)
	fmt.Printf("  Phases:      %d\n", report.Phases)
	fmt.Printf("  Steps:       %d\n", report.Steps)
	fmt.Printf("  Fingerprint: %s\n", report.Fingerprint)
	return nil
}
