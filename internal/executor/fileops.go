package executor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/blueprint/internal/blueprint"
	"github.com/felixgeelhaar/blueprint/internal/errors"
	"github.com/felixgeelhaar/blueprint/internal/log"
)

// FileOps executes file operation steps. Each operation is fault
// isolated: a failure becomes a failed StepResult and nothing else.
// There are no transactional semantics; a failed move can leave the
// filesystem in whatever intermediate state the underlying rename did.
type FileOps struct {
	// WorkDir anchors relative paths
	WorkDir string

	Logger *log.Logger

	// OnWrite is called with the resolved path after every successful
	// write or move destination, feeding the run manifest. Nil is fine.
	OnWrite func(path string)
}

// Apply dispatches a file operation and returns its result
func (f *FileOps) Apply(op *blueprint.FileOperation, description string) StepResult {
	result := StepResult{Description: description}
	if op == nil {
		result.Err = fmt.Errorf("file step has no operation")
		return result
	}

	switch op.Op {
	case blueprint.FileRead:
		return f.read(op, result)
	case blueprint.FileWrite:
		return f.write(op, result)
	case blueprint.FileDelete:
		return f.delete(op, result)
	case blueprint.FileMove:
		return f.move(op, result)
	case blueprint.FileExists:
		return f.exists(op, result)
	default:
		result.Err = fmt.Errorf("file operation %q is not valid", op.Op)
		return result
	}
}

func (f *FileOps) read(op *blueprint.FileOperation, result StepResult) StepResult {
	path := f.resolve(op.Path)
	data, err := os.ReadFile(path)
	if err != nil {
		result.Err = classifyPathError(op.Path, "read", err)
		return result
	}

	result.Success = true
	result.Output = string(data)
	return result
}

func (f *FileOps) write(op *blueprint.FileOperation, result StepResult) StepResult {
	path := f.resolve(op.Path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		result.Err = classifyPathError(op.Path, "write", err)
		return result
	}
	if err := os.WriteFile(path, []byte(op.Content), 0644); err != nil {
		result.Err = classifyPathError(op.Path, "write", err)
		return result
	}

	f.logger().Debug("file written", "path", path, "bytes", len(op.Content))
	if f.OnWrite != nil {
		f.OnWrite(path)
	}
	result.Success = true
	return result
}

func (f *FileOps) delete(op *blueprint.FileOperation, result StepResult) StepResult {
	path := f.resolve(op.Path)
	if err := os.Remove(path); err != nil {
		result.Err = classifyPathError(op.Path, "delete", err)
		return result
	}

	result.Success = true
	return result
}

func (f *FileOps) move(op *blueprint.FileOperation, result StepResult) StepResult {
	from := f.resolve(op.Path)
	to := f.resolve(op.Destination)
	if err := os.Rename(from, to); err != nil {
		result.Err = classifyPathError(op.Path, "move", err)
		return result
	}

	if f.OnWrite != nil {
		f.OnWrite(to)
	}
	result.Success = true
	return result
}

// exists answers rather than fails: a missing file is Output "false",
// not an error. Only a probe that cannot run at all fails.
func (f *FileOps) exists(op *blueprint.FileOperation, result StepResult) StepResult {
	path := f.resolve(op.Path)
	_, err := os.Stat(path)
	switch {
	case err == nil:
		result.Success = true
		result.Output = "true"
	case os.IsNotExist(err):
		result.Success = true
		result.Output = "false"
	default:
		result.Err = classifyPathError(op.Path, "stat", err)
	}
	return result
}

// statExists reports whether path names an existing file, for
// conditional evaluation
func (f *FileOps) statExists(path string) bool {
	_, err := os.Stat(f.resolve(path))
	return err == nil
}

func (f *FileOps) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || f.WorkDir == "" {
		return path
	}
	return filepath.Join(f.WorkDir, path)
}

func (f *FileOps) logger() *log.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return log.DefaultLogger()
}

// classifyPathError maps filesystem errors onto the engine's failure
// kinds, keeping the underlying description
func classifyPathError(path, op string, err error) error {
	switch {
	case os.IsNotExist(err):
		return errors.NewFileNotFoundError(path)
	case os.IsPermission(err):
		return errors.NewPermissionDeniedError(path)
	default:
		return fmt.Errorf("%s %s: %w", op, path, err)
	}
}
