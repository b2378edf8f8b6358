package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/kballard/go-shellquote"

	"tuneflow/internal/experiment"
)

// Launcher runs the external trainer as a child process. The trainer is
// opaque: the launcher hands it the planned argument list and the contract
// environment variables and mirrors its output.
type Launcher struct {
	// Python is the interpreter used to run the trainer script.
	Python string
	// Script is the path to the trainer entrypoint.
	Script string
	// WorkDir is the child's working directory ("" = inherit).
	WorkDir string

	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

// ExitError reports a trainer process that ran and exited non-zero. The
// wrapper's own exit status must equal the trainer's, so the code travels
// up to main.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("trainer exited with status %d", e.Code)
}

func New(python, script string, logger *slog.Logger) *Launcher {
	if python == "" {
		python = "python"
	}
	return &Launcher{
		Python: python,
		Script: script,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Logger: logger,
	}
}

// Command builds the exec.Cmd for a plan without starting it.
func (l *Launcher) Command(ctx context.Context, plan *experiment.Plan) *exec.Cmd {
	args := append([]string{l.Script}, plan.Args...)
	cmd := exec.CommandContext(ctx, l.Python, args...)
	cmd.Dir = l.WorkDir
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr
	cmd.Env = append(os.Environ(), contractEnv(plan)...)
	return cmd
}

// CommandLine renders the launch as a copy-pasteable shell line.
func (l *Launcher) CommandLine(plan *experiment.Plan) string {
	return shellquote.Join(append([]string{l.Python, l.Script}, plan.Args...)...)
}

// Run launches the trainer and waits for it. A non-zero trainer exit
// comes back as *ExitError; anything else means the trainer never ran
// or was torn down by the context.
func (l *Launcher) Run(ctx context.Context, plan *experiment.Plan) error {
	if l.Script == "" {
		return fmt.Errorf("trainer script not set")
	}
	if err := os.MkdirAll(plan.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	cmd := l.Command(ctx, plan)
	if l.Logger != nil {
		l.Logger.Info("launching trainer",
			"experiment", plan.Experiment,
			"phase", plan.Phase,
			"prefix", plan.Prefix,
			"command", l.CommandLine(plan))
	}

	err := cmd.Run()
	if err == nil {
		return nil
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) && ee.ExitCode() >= 0 {
		return &ExitError{Code: ee.ExitCode()}
	}
	return fmt.Errorf("run trainer: %w", err)
}

// contractEnv is the environment the original launch scripts exported.
// OUTPUR_DIR rides along for trainer revisions that read the misspelled
// name.
func contractEnv(plan *experiment.Plan) []string {
	return []string{
		"MODEL_DIR=" + plan.ModelPath,
		"DATA_DIR=" + plan.DataDir,
		"OUTPUT_DIR=" + plan.OutputBase,
		"OUTPUR_DIR=" + plan.OutputBase,
		"TASK_NAME=" + plan.TaskName,
	}
}
