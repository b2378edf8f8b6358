package task

import (
	"fmt"
	"sort"
	"strings"
)

// Task describes a fine-tuning task the external trainer knows how to run.
// The launcher only needs enough metadata to validate experiment specs and
// to pick sensible defaults; labels and file layout mirror the trainer's
// per-task data processors.
type Task struct {
	Name      string   `json:"name"`
	Labels    []string `json:"labels"`
	TrainFile string   `json:"train_file"`
	DevFile   string   `json:"dev_file"`
	TestFile  string   `json:"test_file"`
	// Monitor is the eval metric the trainer tracks for checkpoint
	// selection when the experiment does not set one.
	Monitor     string `json:"monitor"`
	Description string `json:"description,omitempty"`
}

var tasks = map[string]Task{
	"semeval": {
		Name: "semeval",
		Labels: []string{
			"Other",
			"Cause-Effect(e1,e2)", "Cause-Effect(e2,e1)",
			"Component-Whole(e1,e2)", "Component-Whole(e2,e1)",
			"Content-Container(e1,e2)", "Content-Container(e2,e1)",
			"Entity-Destination(e1,e2)", "Entity-Destination(e2,e1)",
			"Entity-Origin(e1,e2)", "Entity-Origin(e2,e1)",
			"Instrument-Agency(e1,e2)", "Instrument-Agency(e2,e1)",
			"Member-Collection(e1,e2)", "Member-Collection(e2,e1)",
			"Message-Topic(e1,e2)", "Message-Topic(e2,e1)",
			"Product-Producer(e1,e2)", "Product-Producer(e2,e1)",
		},
		TrainFile:   "train.tsv",
		DevFile:     "dev.tsv",
		TestFile:    "test.tsv",
		Monitor:     "eval_f1",
		Description: "SemEval-2010 Task 8 relation classification",
	},
	"cola": {
		Name:        "cola",
		Labels:      []string{"0", "1"},
		TrainFile:   "train.tsv",
		DevFile:     "dev.tsv",
		TestFile:    "test.tsv",
		Monitor:     "eval_mcc",
		Description: "CoLA linguistic acceptability",
	},
}

// modelTypes lists the pretrained model families the trainer accepts for
// --model_type.
var modelTypes = []string{"albert", "bert"}

// Lookup returns the task registered under name (case-insensitive).
func Lookup(name string) (Task, error) {
	t, ok := tasks[strings.ToLower(name)]
	if !ok {
		return Task{}, fmt.Errorf("unknown task %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return t, nil
}

// Names returns the registered task names, sorted.
func Names() []string {
	out := make([]string, 0, len(tasks))
	for name := range tasks {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ValidModelType reports whether the trainer accepts typ as --model_type.
func ValidModelType(typ string) bool {
	for _, t := range modelTypes {
		if t == strings.ToLower(typ) {
			return true
		}
	}
	return false
}

// ModelTypes returns the accepted --model_type values.
func ModelTypes() []string {
	out := make([]string, len(modelTypes))
	copy(out, modelTypes)
	return out
}

// NumLabels is the label count the trainer derives from the task.
func (t Task) NumLabels() int { return len(t.Labels) }
