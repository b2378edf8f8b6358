package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tuneflow/internal/checkpoint"
	"tuneflow/internal/experiment"
	"tuneflow/internal/launcher"
	"tuneflow/internal/manifest"
	"tuneflow/internal/store"
)

// launchCmd builds one of the train/eval/predict commands. They share
// everything except the phase flag handed to the trainer.
func launchCmd(phase string) *cobra.Command {
	var configPath, profile, python, script, workDir string
	var dryRun, noRecord bool
	cmd := &cobra.Command{
		Use:   phase,
		Short: fmt.Sprintf("Launch the external trainer in %s phase", phase),
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("missing --config")
			}

			mf, err := manifest.Read(configPath)
			if err != nil {
				return fmt.Errorf("read experiment: %w", err)
			}
			cfg, err := experiment.LoadYAML([]byte(mf.Content))
			if err != nil {
				return err
			}
			plan, err := experiment.BuildPlan(cfg, phase, profile)
			if err != nil {
				return err
			}

			l := launcher.New(python, script, logger)
			l.WorkDir = workDir

			if dryRun {
				fmt.Println(l.CommandLine(plan))
				return nil
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			var st *store.Store
			var runID string
			if rf.DSN != "" && !noRecord {
				st, err = store.Open(ctx, rf.DSN)
				if err != nil {
					return err
				}
				defer st.Close()
				argsJSON, _ := json.Marshal(plan.Args)
				runID, err = st.CreateRun(ctx, store.Run{
					Experiment: plan.Experiment,
					TaskName:   plan.TaskName,
					ModelType:  plan.ModelType,
					ModelName:  plan.ModelName,
					Phase:      phase,
					Status:     store.StatusRunning,
					ConfigRef:  configPath,
					ConfigSHA:  mf.SHA256,
					ArgsJSON:   argsJSON,
				})
				if err != nil {
					return fmt.Errorf("create run record: %w", err)
				}
				logger.Info("run registered", "run_id", runID)
			}

			runErr := l.Run(ctx, plan)

			if st != nil {
				// The trainer's exit status is the source of truth;
				// registry failures are logged, never substituted.
				finishRun(st, runID, plan, runErr)
			}
			return runErr
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path to experiment YAML file")
	cmd.Flags().StringVar(&profile, "profile", "", "Training profile to merge (training.profiles.<name>)")
	cmd.Flags().StringVar(&python, "python", os.Getenv("TUNEFLOW_PYTHON"), "Trainer interpreter (default TUNEFLOW_PYTHON or python)")
	cmd.Flags().StringVar(&script, "script", os.Getenv("TUNEFLOW_TRAINER"), "Trainer script path (default TUNEFLOW_TRAINER)")
	cmd.Flags().StringVar(&workDir, "workdir", "", "Working directory for the trainer")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the trainer command without running it")
	cmd.Flags().BoolVar(&noRecord, "no-record", false, "Skip the run registry even when a DSN is configured")
	return cmd
}

func finishRun(st *store.Store, runID string, plan *experiment.Plan, runErr error) {
	// Fresh context: the launch context is already canceled when the run
	// was interrupted, and the record still has to be closed out.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	status := store.StatusSucceeded
	exitCode := 0
	if runErr != nil {
		status = store.StatusFailed
		exitCode = 1
		var ee *launcher.ExitError
		if errors.As(runErr, &ee) {
			exitCode = ee.Code
		}
	}

	metrics, err := launcher.OutputMetrics(plan.OutputDir)
	if err != nil {
		logger.Warn("read trainer metrics", "error", err)
	}
	metricsJSON, _ := json.Marshal(metrics)

	if err := st.FinishRun(ctx, runID, status, exitCode, metricsJSON); err != nil {
		logger.Error("update run record", "run_id", runID, "error", err)
	}

	cps, err := checkpoint.Discover(plan.OutputDir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("discover checkpoints", "dir", plan.OutputDir, "error", err)
		}
		return
	}
	for _, cp := range cps {
		cpMetrics, _ := launcher.OutputMetrics(cp.Path)
		mb, _ := json.Marshal(cpMetrics)
		if err := st.RecordCheckpoint(ctx, store.CheckpointRecord{
			RunID:       runID,
			Step:        cp.Step,
			Path:        cp.Path,
			MetricsJSON: mb,
		}); err != nil {
			logger.Error("record checkpoint", "run_id", runID, "step", cp.Step, "error", err)
		}
	}
}
