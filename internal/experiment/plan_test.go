package experiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPlanArgs(t *testing.T) {
	cfg := loadSpec(t)
	plan, err := BuildPlan(cfg, PhaseTrain, "")
	require.NoError(t, err)

	want := []string{
		"--model_type", "bert",
		"--model_path", "/models/bert-base-uncased",
		"--task_name", "semeval",
		"--do_train",
		"--gpu", "0",
		"--do_lower_case",
		"--monitor", "eval_f1",
		"--data_dir", "/data/SemEval2010",
		"--train_max_seq_length", "128",
		"--eval_max_seq_length", "128",
		"--per_gpu_train_batch_size", "32",
		"--per_gpu_eval_batch_size", "32",
		"--learning_rate", "2e-05",
		"--num_train_epochs", "5",
		"--logging_steps", "229",
		"--save_steps", "229",
		"--output_dir", "./outputs/",
		"--overwrite_output_dir",
		"--seed", "42",
	}
	assert.Equal(t, want, plan.Args)

	assert.Equal(t, "semeval-bert", plan.Experiment)
	assert.Equal(t, "bert-base-uncased", plan.ModelName)
	assert.Equal(t, "./outputs/", plan.OutputBase)
	assert.Equal(t, "./outputs/bert-base-uncased", plan.OutputDir)
	assert.Equal(t, "bert-base-uncased_semeval", plan.Prefix)
	assert.Equal(t, 42, plan.Seed)
}

func TestBuildPlanPhases(t *testing.T) {
	cfg := loadSpec(t)

	evalPlan, err := BuildPlan(cfg, PhaseEval, "")
	require.NoError(t, err)
	assert.Contains(t, evalPlan.Args, "--do_eval")
	assert.NotContains(t, evalPlan.Args, "--do_train")

	predictPlan, err := BuildPlan(cfg, PhasePredict, "")
	require.NoError(t, err)
	assert.Contains(t, predictPlan.Args, "--do_predict")

	_, err = BuildPlan(cfg, "tune", "")
	assert.ErrorContains(t, err, `unknown phase "tune"`)
}

func TestBuildPlanProfile(t *testing.T) {
	cfg := loadSpec(t)
	plan, err := BuildPlan(cfg, PhaseTrain, "smoke")
	require.NoError(t, err)
	assert.Contains(t, plan.Args, "--num_train_epochs")
	assert.Equal(t, "1", argValue(plan.Args, "--num_train_epochs"))
	assert.Equal(t, "10", argValue(plan.Args, "--logging_steps"))
	assert.Equal(t, "229", argValue(plan.Args, "--save_steps"))

	_, err = BuildPlan(cfg, PhaseTrain, "nightly")
	assert.ErrorContains(t, err, "profile not found")
}

func TestBuildPlanDefaults(t *testing.T) {
	cfg := loadSpec(t)

	// explicit model name wins over the path segment
	cfg["model"].(map[string]any)["name"] = "bert-v2"
	// explicit monitor wins over the task default
	cfg["training"].(map[string]any)["monitor"] = "eval_acc"
	delete(cfg["training"].(map[string]any), "seed")

	plan, err := BuildPlan(cfg, PhaseTrain, "")
	require.NoError(t, err)
	assert.Equal(t, "bert-v2", plan.ModelName)
	assert.Equal(t, "eval_acc", plan.Monitor)
	assert.Equal(t, "eval_acc", argValue(plan.Args, "--monitor"))
	assert.Equal(t, 42, plan.Seed)
}

func TestBuildPlanBooleanFlags(t *testing.T) {
	cfg := loadSpec(t)
	cfg["model"].(map[string]any)["lower_case"] = false
	cfg["output"].(map[string]any)["overwrite"] = false
	delete(cfg["training"].(map[string]any), "gpu")

	plan, err := BuildPlan(cfg, PhaseTrain, "")
	require.NoError(t, err)
	assert.NotContains(t, plan.Args, "--do_lower_case")
	assert.NotContains(t, plan.Args, "--overwrite_output_dir")
	assert.NotContains(t, plan.Args, "--gpu")
}

func TestBuildPlanDeterministic(t *testing.T) {
	cfg := loadSpec(t)
	a, err := BuildPlan(cfg, PhaseTrain, "")
	require.NoError(t, err)
	b, err := BuildPlan(cfg, PhaseTrain, "")
	require.NoError(t, err)
	assert.Equal(t, a.Args, b.Args)
}

func argValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
