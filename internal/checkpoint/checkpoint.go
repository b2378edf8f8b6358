package checkpoint

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"tuneflow/internal/launcher"
)

// WeightsFile is the serialized model file the trainer saves inside each
// checkpoint directory. A directory without it is not a usable checkpoint.
const WeightsFile = "pytorch_model.bin"

const dirPrefix = "checkpoint-"

// Checkpoint is one checkpoint-<step> directory the trainer wrote.
type Checkpoint struct {
	Step int    `json:"step"`
	Path string `json:"path"`
}

// Discover lists the usable checkpoints under a run's output directory,
// sorted by step. Directories that don't match checkpoint-<step> or are
// missing the weights file are skipped.
func Discover(dir string) ([]Checkpoint, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []Checkpoint
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), dirPrefix) {
			continue
		}
		step, err := strconv.Atoi(strings.TrimPrefix(e.Name(), dirPrefix))
		if err != nil {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if _, err := os.Stat(filepath.Join(p, WeightsFile)); err != nil {
			continue
		}
		out = append(out, Checkpoint{Step: step, Path: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Step < out[j].Step })
	return out, nil
}

// LastN keeps the n most recent checkpoints (all of them when n <= 0).
func LastN(cps []Checkpoint, n int) []Checkpoint {
	if n <= 0 || n >= len(cps) {
		return cps
	}
	return cps[len(cps)-n:]
}

// Best returns the checkpoint whose eval results score highest on the
// monitor metric. Checkpoints without a parseable metric are skipped;
// ok is false when none had one.
func Best(cps []Checkpoint, metric string) (Checkpoint, bool) {
	var best Checkpoint
	bestScore := 0.0
	found := false
	for _, cp := range cps {
		m, err := launcher.ReadEvalResults(filepath.Join(cp.Path, launcher.EvalResultsFile))
		if err != nil {
			continue
		}
		score, ok := m.Float(metric)
		if !ok {
			continue
		}
		if !found || score > bestScore {
			best, bestScore, found = cp, score, true
		}
	}
	return best, found
}
