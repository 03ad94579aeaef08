package blueprint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/blueprint/internal/errors"
)

// Repository defines the interface for loading and saving blueprint
// documents. This interface enables dependency injection and makes
// testing easier.
type Repository interface {
	// Load reads a Blueprint from a file
	Load(path string) (*Blueprint, error)

	// Save writes a Blueprint to a file
	Save(bp *Blueprint, path string) error
}

// FileRepository implements Repository for file-based storage.
// YAML and JSON documents are supported, selected by file extension.
type FileRepository struct{}

// NewFileRepository creates a new file-based blueprint repository
func NewFileRepository() *FileRepository {
	return &FileRepository{}
}

// Load reads a Blueprint from a YAML or JSON file and validates it
func (r *FileRepository) Load(path string) (*Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFoundError(path)
		}
		return nil, fmt.Errorf("read blueprint file: %w", err)
	}

	var bp Blueprint
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &bp); err != nil {
			return nil, errors.NewBlueprintParseError(path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &bp); err != nil {
			return nil, errors.NewBlueprintParseError(path, err)
		}
	}

	// Documents cannot carry predicate functions, so reject custom
	// checks before Validate reports a misleading missing predicate
	if err := rejectCustomChecks(&bp); err != nil {
		return nil, errors.NewInvalidBlueprintError(err.Error())
	}

	if err := bp.Validate(); err != nil {
		return nil, errors.NewInvalidBlueprintError(err.Error())
	}

	return &bp, nil
}

// Save writes a Blueprint to a YAML or JSON file, selected by extension
func (r *FileRepository) Save(bp *Blueprint, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(bp, "", "  ")
	default:
		data, err = yaml.Marshal(bp)
	}
	if err != nil {
		return fmt.Errorf("marshal blueprint: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write blueprint file: %w", err)
	}

	return nil
}

// Default instance for package-level functions
var defaultRepository = NewFileRepository()

// Load reads a Blueprint from a file using the default repository
func Load(path string) (*Blueprint, error) {
	return defaultRepository.Load(path)
}

// Save writes a Blueprint to a file using the default repository
func Save(bp *Blueprint, path string) error {
	return defaultRepository.Save(bp, path)
}

// rejectCustomChecks fails when any check in the document uses the
// custom kind
func rejectCustomChecks(bp *Blueprint) error {
	for i := range bp.Phases {
		phase := &bp.Phases[i]
		if phase.Verification != nil && phase.Verification.Kind == CheckCustom {
			return fmt.Errorf("phase %q: custom checks cannot be used in blueprint documents", phase.Name)
		}
		if err := rejectCustomInSteps(phase.Steps, phase.Name); err != nil {
			return err
		}
	}
	return nil
}

func rejectCustomInSteps(steps []Step, phase string) error {
	for i := range steps {
		step := &steps[i]
		if step.Check != nil && step.Check.Kind == CheckCustom {
			return fmt.Errorf("phase %q step %d: custom checks cannot be used in blueprint documents", phase, i)
		}
		if step.Cond != nil {
			if err := rejectCustomInSteps(step.Cond.Then, phase); err != nil {
				return err
			}
			if err := rejectCustomInSteps(step.Cond.Else, phase); err != nil {
				return err
			}
		}
	}
	return nil
}

// Compile-time verification that FileRepository implements Repository
var _ Repository = (*FileRepository)(nil)
