package experiment

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"tuneflow/internal/task"
)

// Launch phases understood by the external trainer.
const (
	PhaseTrain   = "train"
	PhaseEval    = "eval"
	PhasePredict = "predict"
)

// LoadYAML parses an experiment YAML document into a generic mapping.
func LoadYAML(b []byte) (map[string]any, error) {
	var v any
	if err := yaml.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("yaml parse: %w", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("experiment must be a YAML mapping")
	}
	return m, nil
}

// LoadFile reads and parses an experiment spec from disk.
func LoadFile(path string) (map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadYAML(b)
}

func ExperimentName(cfg map[string]any) (string, error) {
	md, _ := cfg["metadata"].(map[string]any)
	return getStr(md, "name", "metadata.name")
}

// ApplyProfile shallow-merges training.profiles.<name> into training.
// Profiles are named hyperparameter overrides (smoke runs, sweeps).
func ApplyProfile(cfg map[string]any, profile string) (map[string]any, error) {
	if strings.TrimSpace(profile) == "" {
		return cfg, nil
	}
	c := cloneMap(cfg)
	tr, _ := c["training"].(map[string]any)
	if tr == nil {
		return nil, fmt.Errorf("profile %q requested but training section is missing", profile)
	}
	profs, _ := tr["profiles"].(map[string]any)
	ovAny, ok := profs[profile]
	if !ok {
		return nil, fmt.Errorf("profile not found in training.profiles: %s", profile)
	}
	ov, _ := ovAny.(map[string]any)
	if ov == nil {
		return nil, fmt.Errorf("training.profiles.%s must be a mapping", profile)
	}
	nt := cloneMap(tr)
	for k, v := range ov {
		nt[k] = v
	}
	c["training"] = nt
	return c, nil
}

// ApplyEnvDefaults fills fields the experiment spec leaves empty from the contract
// environment variables: MODEL_DIR, DATA_DIR, OUTPUT_DIR, TASK_NAME.
// OUTPUR_DIR is honored as a fallback; early launch scripts exported the
// misspelled name and some trainer configs still reference it.
func ApplyEnvDefaults(cfg map[string]any) map[string]any {
	c := cloneMap(cfg)
	setDefault(c, "model", "path", os.Getenv("MODEL_DIR"))
	setDefault(c, "task", "data_dir", os.Getenv("DATA_DIR"))
	setDefault(c, "task", "name", os.Getenv("TASK_NAME"))
	outDir := os.Getenv("OUTPUT_DIR")
	if outDir == "" {
		outDir = os.Getenv("OUTPUR_DIR")
	}
	setDefault(c, "output", "dir", outDir)
	return c
}

// Validate checks the experiment spec and returns a summary of what would
// be launched. It does not touch the filesystem or start anything.
func Validate(cfg map[string]any) (map[string]any, error) {
	kind, _ := cfg["kind"].(string)
	if kind != "Experiment" {
		return nil, fmt.Errorf("kind must be Experiment, got %q", kind)
	}
	name, err := ExperimentName(cfg)
	if err != nil {
		return nil, err
	}

	model, _ := cfg["model"].(map[string]any)
	if model == nil {
		return nil, fmt.Errorf("missing required field: model")
	}
	modelType, err := getStr(model, "type", "model.type")
	if err != nil {
		return nil, err
	}
	if !task.ValidModelType(modelType) {
		return nil, fmt.Errorf("model.type must be one of %s, got %q", strings.Join(task.ModelTypes(), ", "), modelType)
	}
	modelPath, err := getStr(model, "path", "model.path")
	if err != nil {
		return nil, err
	}

	taskSec, _ := cfg["task"].(map[string]any)
	if taskSec == nil {
		return nil, fmt.Errorf("missing required field: task")
	}
	taskName, err := getStr(taskSec, "name", "task.name")
	if err != nil {
		return nil, err
	}
	tk, err := task.Lookup(taskName)
	if err != nil {
		return nil, err
	}
	if _, err := getStr(taskSec, "data_dir", "task.data_dir"); err != nil {
		return nil, err
	}

	tr, _ := cfg["training"].(map[string]any)
	if tr == nil {
		return nil, fmt.Errorf("missing required field: training")
	}
	for _, key := range []string{
		"train_max_seq_length", "eval_max_seq_length",
		"per_gpu_train_batch_size", "per_gpu_eval_batch_size",
		"logging_steps", "save_steps",
	} {
		if _, err := getPosInt(tr, key, "training."+key); err != nil {
			return nil, err
		}
	}
	if _, err := getPosFloat(tr, "learning_rate", "training.learning_rate"); err != nil {
		return nil, err
	}
	if _, err := getPosFloat(tr, "num_train_epochs", "training.num_train_epochs"); err != nil {
		return nil, err
	}
	if seedAny, ok := tr["seed"]; ok {
		if _, err := toInt(seedAny, "training.seed"); err != nil {
			return nil, err
		}
	}

	out, _ := cfg["output"].(map[string]any)
	if out == nil {
		return nil, fmt.Errorf("missing required field: output")
	}
	if _, err := getStr(out, "dir", "output.dir"); err != nil {
		return nil, err
	}

	return map[string]any{
		"ok":         true,
		"experiment": name,
		"model_type": strings.ToLower(modelType),
		"model_path": modelPath,
		"task":       tk.Name,
		"num_labels": tk.NumLabels(),
		"monitor":    monitorOrDefault(tr, tk),
	}, nil
}

func monitorOrDefault(tr map[string]any, tk task.Task) string {
	if m, _ := tr["monitor"].(string); strings.TrimSpace(m) != "" {
		return m
	}
	return tk.Monitor
}

func setDefault(cfg map[string]any, section, key, value string) {
	if value == "" {
		return
	}
	sec, _ := cfg[section].(map[string]any)
	if sec == nil {
		sec = map[string]any{}
	} else {
		sec = cloneMap(sec)
	}
	if s, _ := sec[key].(string); strings.TrimSpace(s) == "" {
		sec[key] = value
	}
	cfg[section] = sec
}

func getStr(m map[string]any, key string, ctx string) (string, error) {
	if m == nil {
		return "", fmt.Errorf("missing required field: %s", ctx)
	}
	vAny, ok := m[key]
	if !ok {
		return "", fmt.Errorf("missing required field: %s", ctx)
	}
	v, ok := vAny.(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%s must be a non-empty string", ctx)
	}
	return v, nil
}

func getPosInt(m map[string]any, key string, ctx string) (int, error) {
	vAny, ok := m[key]
	if !ok {
		return 0, fmt.Errorf("missing required field: %s", ctx)
	}
	n, err := toInt(vAny, ctx)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be a positive int", ctx)
	}
	return n, nil
}

func getPosFloat(m map[string]any, key string, ctx string) (float64, error) {
	vAny, ok := m[key]
	if !ok {
		return 0, fmt.Errorf("missing required field: %s", ctx)
	}
	f, err := toFloat(vAny, ctx)
	if err != nil {
		return 0, err
	}
	if f <= 0 {
		return 0, fmt.Errorf("%s must be positive", ctx)
	}
	return f, nil
}

func toInt(v any, ctx string) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("%s must be an int", ctx)
	}
}

func toFloat(v any, ctx string) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%s must be a number", ctx)
	}
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
