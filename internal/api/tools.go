package api

import (
	"context"
	"encoding/json"
	"fmt"

	"tuneflow/internal/experiment"
)

func (s *Server) callTool(ctx context.Context, name string, args json.RawMessage) (any, error) {
	switch name {
	case "experiment.validate":
		var in struct {
			ConfigYAML string `json:"config_yaml"`
			Profile    string `json:"profile"`
		}
		if err := json.Unmarshal(args, &in); err != nil || in.ConfigYAML == "" {
			return nil, fmt.Errorf("missing config_yaml")
		}
		cfg, err := experiment.LoadYAML([]byte(in.ConfigYAML))
		if err != nil {
			return nil, err
		}
		if in.Profile != "" {
			if cfg, err = experiment.ApplyProfile(cfg, in.Profile); err != nil {
				return nil, err
			}
		}
		out, err := experiment.Validate(cfg)
		if err != nil {
			return nil, err
		}
		return out, nil

	case "experiment.plan":
		var in struct {
			ConfigYAML string `json:"config_yaml"`
			Phase      string `json:"phase"`
			Profile    string `json:"profile"`
		}
		if err := json.Unmarshal(args, &in); err != nil || in.ConfigYAML == "" {
			return nil, fmt.Errorf("missing config_yaml")
		}
		cfg, err := experiment.LoadYAML([]byte(in.ConfigYAML))
		if err != nil {
			return nil, err
		}
		if in.Phase == "" {
			in.Phase = experiment.PhaseTrain
		}
		plan, err := experiment.BuildPlan(cfg, in.Phase, in.Profile)
		if err != nil {
			return nil, err
		}
		return plan, nil

	case "runs.list":
		if s.store == nil {
			return nil, fmt.Errorf("run registry not configured (set DATABASE_URL)")
		}
		var in struct {
			Limit int `json:"limit"`
		}
		if len(args) > 0 {
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, fmt.Errorf("invalid arguments")
			}
		}
		runs, err := s.store.ListRuns(ctx, in.Limit)
		if err != nil {
			return nil, err
		}
		out := make([]map[string]any, 0, len(runs))
		for _, r := range runs {
			row := map[string]any{
				"run_id":     r.RunID,
				"experiment": r.Experiment,
				"task":       r.TaskName,
				"model_name": r.ModelName,
				"phase":      r.Phase,
				"status":     r.Status,
				"started_at": r.StartedAt,
			}
			if r.ExitCode != nil {
				row["exit_code"] = *r.ExitCode
			}
			if r.FinishedAt != nil {
				row["finished_at"] = *r.FinishedAt
			}
			out = append(out, row)
		}
		return map[string]any{"runs": out}, nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}
