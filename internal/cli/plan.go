package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tuneflow/internal/experiment"
	"tuneflow/internal/launcher"
)

func planCmd() *cobra.Command {
	var configPath, phase, profile, python, script string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Render the trainer command for an experiment without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("missing --config")
			}
			cfg, err := experiment.LoadFile(configPath)
			if err != nil {
				return err
			}
			plan, err := experiment.BuildPlan(cfg, phase, profile)
			if err != nil {
				return err
			}
			if asJSON {
				b, _ := json.MarshalIndent(plan, "", "  ")
				fmt.Println(string(b))
				return nil
			}
			l := launcher.New(python, script, logger)
			fmt.Println(l.CommandLine(plan))
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path to experiment YAML file")
	cmd.Flags().StringVar(&phase, "phase", experiment.PhaseTrain, "Phase to plan: train|eval|predict")
	cmd.Flags().StringVar(&profile, "profile", "", "Training profile to merge")
	cmd.Flags().StringVar(&python, "python", os.Getenv("TUNEFLOW_PYTHON"), "Trainer interpreter")
	cmd.Flags().StringVar(&script, "script", os.Getenv("TUNEFLOW_TRAINER"), "Trainer script path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full plan as JSON")
	return cmd
}

func validateCmd() *cobra.Command {
	var configPath, profile string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an experiment spec",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("missing --config")
			}
			cfg, err := experiment.LoadFile(configPath)
			if err != nil {
				return err
			}
			cfg = experiment.ApplyEnvDefaults(cfg)
			if profile != "" {
				if cfg, err = experiment.ApplyProfile(cfg, profile); err != nil {
					return err
				}
			}
			out, err := experiment.Validate(cfg)
			if err != nil {
				return err
			}
			b, _ := json.MarshalIndent(out, "", "  ")
			fmt.Println(string(b))
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path to experiment YAML file")
	cmd.Flags().StringVar(&profile, "profile", "", "Training profile to merge")
	return cmd
}
