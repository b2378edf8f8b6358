package cli

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"tuneflow/internal/checkpoint"
	"tuneflow/internal/launcher"
)

func checkpointsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoints",
		Short: "Inspect checkpoints the trainer wrote",
	}
	cmd.AddCommand(checkpointsListCmd())
	return cmd
}

func checkpointsListCmd() *cobra.Command {
	var dir, monitor string
	var last int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List checkpoint-<step> directories under an output dir",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				return fmt.Errorf("missing --dir")
			}
			cps, err := checkpoint.Discover(dir)
			if err != nil {
				return err
			}
			cps = checkpoint.LastN(cps, last)

			var bestStep int
			if monitor != "" {
				if best, ok := checkpoint.Best(cps, monitor); ok {
					bestStep = best.Step
				}
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			header := table.Row{"Step", "Path"}
			if monitor != "" {
				header = append(header, monitor)
			}
			tw.AppendHeader(header)
			tw.SetStyle(table.StyleRounded)
			for _, cp := range cps {
				row := table.Row{cp.Step, cp.Path}
				if monitor != "" {
					cell := "-"
					if m, err := launcher.OutputMetrics(cp.Path); err == nil {
						if v, ok := m.Float(monitor); ok {
							cell = fmt.Sprintf("%.4f", v)
							if cp.Step == bestStep {
								cell += " *"
							}
						}
					}
					row = append(row, cell)
				}
				tw.AppendRow(row)
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Effective output directory of a run")
	cmd.Flags().IntVar(&last, "last", 0, "Only the N most recent checkpoints (0 = all)")
	cmd.Flags().StringVar(&monitor, "monitor", "", "Metric to display and mark the best checkpoint by")
	return cmd
}
