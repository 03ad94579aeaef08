package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/felixgeelhaar/blueprint/internal/blueprint"
	"github.com/felixgeelhaar/blueprint/internal/config"
	"github.com/felixgeelhaar/blueprint/internal/executor"
	"github.com/felixgeelhaar/blueprint/internal/log"
	"github.com/felixgeelhaar/blueprint/internal/progress"
	"github.com/felixgeelhaar/blueprint/internal/provider"
	"github.com/felixgeelhaar/blueprint/internal/tui"
	"github.com/felixgeelhaar/blueprint/internal/ux"
	"github.com/felixgeelhaar/blueprint/internal/verify"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [blueprint file]",
	Short: "Execute a blueprint",
	Long: `Execute a blueprint phase by phase. Each step retries within the
configured budget, phases gate on their verification checks, and the run
stops at the first phase that cannot be completed.

On a terminal the run renders a live progress display; elsewhere it
streams plain progress lines. Blueprints that delete or move files ask
for confirmation first unless --yes is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

var (
	runYes         bool
	runVerbose     bool
	runOutput      string
	runPlain       bool
	runAICommand   string
	runDialect     string
	runManifestDir string
	runWorkDir     string
)

func init() {
	runCmd.Flags().BoolVarP(&runYes, "yes", "y", false, "skip the confirmation prompt for destructive file operations")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "stream step output in plain mode")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "text", "output format: text, json, or yaml")
	runCmd.Flags().BoolVar(&runPlain, "plain", false, "plain line output even on a terminal")
	runCmd.Flags().StringVar(&runAICommand, "ai-command", "", "executable bridging AI task steps (JSON over stdin/stdout)")
	runCmd.Flags().StringVar(&runDialect, "dialect", "", "toolchain dialect for build and test checks (go, node, python, rust, make)")
	runCmd.Flags().StringVar(&runManifestDir, "manifest-dir", "", "directory for JSON run manifests (overrides config)")
	runCmd.Flags().StringVar(&runWorkDir, "workdir", "", "working directory for commands and file operations")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	switch runOutput {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q (must be text, json, or yaml)", runOutput)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogging(cfg)

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
	logger.Info("blueprint loaded",
		"file", path,
		"blueprint", bp.Name,
		"phases", len(bp.Phases),
		"fingerprint", fingerprint,
	)

	if !runYes && hasDestructiveSteps(bp) && tui.ShouldPrompt() {
		ok, promptErr := tui.PromptForConfirmation(
			fmt.Sprintf("Blueprint %q deletes or moves files. Continue?", bp.Name), false)
		if promptErr != nil {
			return promptErr
		}
		if !ok {
			fmt.Println("Run aborted")
			return nil
		}
	}

	opts, err := executorOptions(cfg, logger)
	if err != nil {
		return err
	}
	if opts.Chat != nil {
		defer opts.Chat.Close()
	}

	ctx := cmd.Context()
	interactive := !runPlain && runOutput == "text" && tui.ShouldPrompt()

	var result *executor.ExecutionResult
	var indicator *progress.Indicator

	if interactive {
		adapter := tui.NewAdapter()
		opts.Events = adapter
		eng := executor.New(opts)

		resultCh := make(chan *executor.ExecutionResult, 1)
		model := tui.NewModel(bp, tui.Hooks{
			Start: func() { resultCh <- eng.Execute(ctx, bp) },
			Stop:  eng.Stop,
			Tail:  eng.Log().Tail,
		})

		if runErr := adapter.Run(model); runErr != nil {
			// The display failed. Stop the engine and reap the run
			// before reporting the terminal error.
			eng.Stop()
			<-resultCh
			return runErr
		}
		result = <-resultCh
	} else {
		// Progress lines go to stderr when stdout carries the report
		writer := os.Stdout
		if runOutput != "text" {
			writer = os.Stderr
		}
		indicator = progress.NewIndicator(progress.Config{
			Writer:  writer,
			IsCI:    true,
			Verbose: runVerbose,
		})
		opts.Events = indicator
		eng := executor.New(opts)

		indicator.Start()
		result = eng.Execute(ctx, bp)
		indicator.Stop()
	}

	switch {
	case runOutput == "json" || runOutput == "yaml":
		formatter, ferr := ux.NewFormatter(runOutput, &ux.FormatterOptions{})
		if ferr != nil {
			return ferr
		}
		if ferr := formatter.Format(buildRunReport(result)); ferr != nil {
			return ferr
		}
	case indicator != nil:
		indicator.PrintSummary(result)
	}

	return result.Err
}

// executorOptions assembles engine options from config and run flags
func executorOptions(cfg *config.Config, logger *log.Logger) (executor.Options, error) {
	opts := executor.Options{
		MaxRetries:       cfg.MaxRetries,
		RetryDelay:       cfg.RetryDelay,
		MaxExecutionTime: cfg.MaxExecutionTime,
		AutoRecovery:     cfg.AutoRecovery,
		WorkDir:          runWorkDir,
		PreviewLen:       cfg.CommandPreviewLen,
		LogRetention:     func() int { return cfg.LogRetention },
		MaxHistorySize:   cfg.MaxHistorySize,
		ManifestDir:      cfg.ManifestDir,
		Logger:           logger,
		Models:           provider.StaticResolver{Models: modelHints(cfg.DefaultModels)},
	}
	if runManifestDir != "" {
		opts.ManifestDir = runManifestDir
	}

	if runAICommand != "" {
		chat, err := provider.NewExecClient(runAICommand)
		if err != nil {
			return executor.Options{}, err
		}
		opts.Chat = chat
	}

	if runDialect != "" {
		dialect, err := verify.DialectFor(runDialect)
		if err != nil {
			return executor.Options{}, err
		}
		agent := verify.NewBuildAgent(dialect)
		agent.WorkDir = runWorkDir
		agent.Logger = logger
		opts.Verifier = verify.NewRunner(agent)
	}

	return opts, nil
}

// modelHints converts config model names keyed by intent strings
func modelHints(models map[string]string) map[provider.Intent]string {
	hints := make(map[provider.Intent]string, len(models))
	for intent, model := range models {
		hints[provider.Intent(intent)] = model
	}
	return hints
}

// hasDestructiveSteps reports whether any step deletes or moves files,
// including steps nested in conditional branches
func hasDestructiveSteps(bp *blueprint.Blueprint) bool {
	for i := range bp.Phases {
		if anyDestructive(bp.Phases[i].Steps) {
			return true
		}
	}
	return false
}

func anyDestructive(steps []blueprint.Step) bool {
	for i := range steps {
		step := &steps[i]
		if step.Type == blueprint.StepFileOperation && step.FileOp != nil {
			if step.FileOp.Op == blueprint.FileDelete || step.FileOp.Op == blueprint.FileMove {
				return true
			}
		}
		if step.Type == blueprint.StepConditional && step.Cond != nil {
			if anyDestructive(step.Cond.Then) || anyDestructive(step.Cond.Else) {
				return true
			}
		}
	}
	return false
}

// RunReport is the serializable shape of an execution result
type RunReport struct {
	RunID     string        `json:"run_id" yaml:"run_id"`
	Blueprint string        `json:"blueprint" yaml:"blueprint"`
	Success   bool          `json:"success" yaml:"success"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Elapsed   string        `json:"elapsed" yaml:"elapsed"`
	Phases    []PhaseReport `json:"phases" yaml:"phases"`
}

// PhaseReport is one phase of a RunReport
type PhaseReport struct {
	Name    string       `json:"name" yaml:"name"`
	Success bool         `json:"success" yaml:"success"`
	Error   string       `json:"error,omitempty" yaml:"error,omitempty"`
	Steps   []StepReport `json:"steps" yaml:"steps"`
}

// StepReport is one step of a PhaseReport
type StepReport struct {
	Description string `json:"description" yaml:"description"`
	Success     bool   `json:"success" yaml:"success"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
}

func buildRunReport(result *executor.ExecutionResult) *RunReport {
	report := &RunReport{
		RunID:     result.RunID,
		Blueprint: result.BlueprintName,
		Success:   result.Success,
		StartedAt: result.StartedAt,
		Elapsed:   result.Elapsed.Round(time.Millisecond).String(),
		Phases:    make([]PhaseReport, 0, len(result.Phases)),
	}
	if result.Err != nil {
		report.Error = result.Err.Error()
	}

	for _, phase := range result.Phases {
		pr := PhaseReport{
			Name:    phase.Name,
			Success: phase.Success,
			Steps:   make([]StepReport, 0, len(phase.Steps)),
		}
		if phase.Err != nil {
			pr.Error = phase.Err.Error()
		}
		for _, step := range phase.Steps {
			sr := StepReport{
				Description: step.Description,
				Success:     step.Success,
			}
			if step.Err != nil {
				sr.Error = step.Err.Error()
			}
			pr.Steps = append(pr.Steps, sr)
		}
		report.Phases = append(report.Phases, pr)
	}

	return report
}
