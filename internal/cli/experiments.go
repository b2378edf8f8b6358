package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tuneflow/internal/experiment"
	"tuneflow/internal/manifest"
)

func experimentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "experiments",
		Short: "Discover experiment specs",
	}
	cmd.AddCommand(experimentsListCmd())
	cmd.AddCommand(experimentsFetchCmd())
	return cmd
}

func experimentsListCmd() *cobra.Command {
	var dir string
	var show bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List experiment YAML files under a directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = "experiments"
			}
			found, err := manifest.DiscoverLocal(dir)
			if err != nil {
				return err
			}
			if show {
				for _, m := range found {
					doc, err := manifest.Read(m.Path)
					if err != nil {
						return err
					}
					fmt.Printf("## %s (%s)\n\n%s\n\n", doc.Name, doc.SHA256, doc.Content)
				}
				return nil
			}
			b, _ := json.MarshalIndent(found, "", "  ")
			fmt.Println(string(b))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "experiments", "directory to scan for *.yaml specs")
	cmd.Flags().BoolVar(&show, "show", false, "print spec content")
	return cmd
}

func experimentsFetchCmd() *cobra.Command {
	var out string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Download a published experiment spec over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.FetchHTTP(args[0], timeout)
			if err != nil {
				return err
			}
			if _, err := experiment.LoadYAML([]byte(m.Content)); err != nil {
				return fmt.Errorf("fetched spec: %w", err)
			}
			if out == "" {
				fmt.Print(m.Content)
				return nil
			}
			if err := os.WriteFile(out, []byte(m.Content), 0o644); err != nil {
				return err
			}
			logger.Info("spec fetched", "name", m.Name, "sha256", m.SHA256, "path", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write the spec to this path instead of stdout")
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "HTTP timeout")
	return cmd
}
