package experiment

import (
	"fmt"
	"strconv"
	"strings"

	"tuneflow/internal/task"
)

// Plan is a validated, fully-resolved launch: the ordered trainer
// argument list plus the derived names the launcher and run registry use.
type Plan struct {
	Experiment string `json:"experiment"`
	Phase      string `json:"phase"`
	ModelType  string `json:"model_type"`
	ModelPath  string `json:"model_path"`
	ModelName  string `json:"model_name"`
	TaskName   string `json:"task"`
	DataDir    string `json:"data_dir"`
	// OutputBase is what gets passed as --output_dir. The trainer appends
	// the model name to it; OutputDir is that effective directory, which
	// is where checkpoints and eval results land.
	OutputBase string   `json:"output_base"`
	OutputDir  string   `json:"output_dir"`
	Prefix     string   `json:"prefix"`
	Monitor    string   `json:"monitor"`
	Seed       int      `json:"seed"`
	Args       []string `json:"args"`
}

// BuildPlan validates cfg (after env defaults and optional profile merge)
// and renders the trainer argument list for the given phase.
func BuildPlan(cfg map[string]any, phase, profile string) (*Plan, error) {
	pflag, err := phaseFlag(phase)
	if err != nil {
		return nil, err
	}

	cfg = ApplyEnvDefaults(cfg)
	cfg, err = ApplyProfile(cfg, profile)
	if err != nil {
		return nil, err
	}
	if _, err := Validate(cfg); err != nil {
		return nil, err
	}

	name, _ := ExperimentName(cfg)
	model := cfg["model"].(map[string]any)
	taskSec := cfg["task"].(map[string]any)
	tr := cfg["training"].(map[string]any)
	out := cfg["output"].(map[string]any)

	modelType := strings.ToLower(model["type"].(string))
	modelPath := model["path"].(string)
	modelName, _ := model["name"].(string)
	if strings.TrimSpace(modelName) == "" {
		modelName = lastPathSegment(modelPath)
	}

	taskName := strings.ToLower(taskSec["name"].(string))
	tk, _ := task.Lookup(taskName)
	dataDir := taskSec["data_dir"].(string)
	outDir := out["dir"].(string)
	monitor := monitorOrDefault(tr, tk)

	seed := 42
	if sAny, ok := tr["seed"]; ok {
		seed, _ = toInt(sAny, "training.seed")
	}

	args := []string{
		"--model_type", modelType,
		"--model_path", modelPath,
		"--task_name", taskName,
		pflag,
	}
	if gpu := scalarString(tr["gpu"]); gpu != "" {
		args = append(args, "--gpu", gpu)
	}
	if b, _ := model["lower_case"].(bool); b {
		args = append(args, "--do_lower_case")
	}
	args = append(args,
		"--monitor", monitor,
		"--data_dir", dataDir,
		"--train_max_seq_length", intArg(tr["train_max_seq_length"]),
		"--eval_max_seq_length", intArg(tr["eval_max_seq_length"]),
		"--per_gpu_train_batch_size", intArg(tr["per_gpu_train_batch_size"]),
		"--per_gpu_eval_batch_size", intArg(tr["per_gpu_eval_batch_size"]),
		"--learning_rate", floatArg(tr["learning_rate"]),
		"--num_train_epochs", floatArg(tr["num_train_epochs"]),
		"--logging_steps", intArg(tr["logging_steps"]),
		"--save_steps", intArg(tr["save_steps"]),
		"--output_dir", outDir,
	)
	if b, _ := out["overwrite"].(bool); b {
		args = append(args, "--overwrite_output_dir")
	}
	args = append(args, "--seed", strconv.Itoa(seed))

	return &Plan{
		Experiment: name,
		Phase:      phase,
		ModelType:  modelType,
		ModelPath:  modelPath,
		ModelName:  modelName,
		TaskName:   taskName,
		DataDir:    dataDir,
		OutputBase: outDir,
		OutputDir:  outDir + modelName,
		Prefix:     modelName + "_" + taskName,
		Monitor:    monitor,
		Seed:       seed,
		Args:       args,
	}, nil
}

func phaseFlag(phase string) (string, error) {
	switch phase {
	case PhaseTrain:
		return "--do_train", nil
	case PhaseEval:
		return "--do_eval", nil
	case PhasePredict:
		return "--do_predict", nil
	default:
		return "", fmt.Errorf("unknown phase %q (known: train, eval, predict)", phase)
	}
}

func lastPathSegment(p string) string {
	p = strings.TrimRight(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

func scalarString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	default:
		return ""
	}
}

func intArg(v any) string {
	n, _ := toInt(v, "")
	return strconv.Itoa(n)
}

func floatArg(v any) string {
	f, _ := toFloat(v, "")
	return strconv.FormatFloat(f, 'g', -1, 64)
}
