package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"tuneflow/internal/store"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the run registry",
	}
	cmd.AddCommand(runsListCmd())
	cmd.AddCommand(runsShowCmd())
	return cmd
}

func runsListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn, err := dsnOrErr()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			st, err := store.Open(ctx, dsn)
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.ListRuns(ctx, limit)
			if err != nil {
				return err
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Run ID", "Experiment", "Task", "Model", "Phase", "Status", "Exit", "Started", "Duration"})
			tw.SetStyle(table.StyleRounded)
			for _, r := range runs {
				exit := "-"
				if r.ExitCode != nil {
					exit = fmt.Sprintf("%d", *r.ExitCode)
				}
				dur := "-"
				if r.FinishedAt != nil {
					dur = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
				}
				tw.AppendRow(table.Row{
					r.RunID, r.Experiment, r.TaskName, r.ModelName, r.Phase,
					r.Status, exit, r.StartedAt.Format(time.RFC3339), dur,
				})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}

func runsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run with its args, metrics, and checkpoints",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn, err := dsnOrErr()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			st, err := store.Open(ctx, dsn)
			if err != nil {
				return err
			}
			defer st.Close()

			r, err := st.GetRun(ctx, args[0])
			if err != nil {
				return err
			}
			cps, err := st.ListCheckpoints(ctx, args[0])
			if err != nil {
				return err
			}

			out := map[string]any{
				"run_id":     r.RunID,
				"experiment": r.Experiment,
				"task":       r.TaskName,
				"model_type": r.ModelType,
				"model_name": r.ModelName,
				"phase":      r.Phase,
				"status":     r.Status,
				"config_ref": r.ConfigRef,
				"config_sha": r.ConfigSHA,
				"started_at": r.StartedAt,
				"args":       json.RawMessage(r.ArgsJSON),
				"metrics":    json.RawMessage(r.MetricsJSON),
			}
			if r.ExitCode != nil {
				out["exit_code"] = *r.ExitCode
			}
			if r.FinishedAt != nil {
				out["finished_at"] = *r.FinishedAt
			}
			if len(cps) > 0 {
				list := make([]map[string]any, 0, len(cps))
				for _, cp := range cps {
					list = append(list, map[string]any{
						"step":    cp.Step,
						"path":    cp.Path,
						"metrics": json.RawMessage(cp.MetricsJSON),
					})
				}
				out["checkpoints"] = list
			}

			b, _ := json.MarshalIndent(out, "", "  ")
			fmt.Println(string(b))
			return nil
		},
	}
	return cmd
}
