package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tuneflow/internal/launcher"
)

func mkCheckpoint(t *testing.T, dir, name string, withWeights bool, evalResults string) {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(p, 0o755))
	if withWeights {
		require.NoError(t, os.WriteFile(filepath.Join(p, WeightsFile), []byte("x"), 0o644))
	}
	if evalResults != "" {
		require.NoError(t, os.WriteFile(filepath.Join(p, launcher.EvalResultsFile), []byte(evalResults), 0o644))
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	mkCheckpoint(t, dir, "checkpoint-1000", true, "")
	mkCheckpoint(t, dir, "checkpoint-200", true, "")
	mkCheckpoint(t, dir, "checkpoint-600", true, "")
	// skipped: no weights file
	mkCheckpoint(t, dir, "checkpoint-800", false, "")
	// skipped: not a checkpoint dir
	mkCheckpoint(t, dir, "logs", true, "")
	// skipped: non-numeric step
	mkCheckpoint(t, dir, "checkpoint-best", true, "")
	// skipped: plain file
	require.NoError(t, os.WriteFile(filepath.Join(dir, "checkpoint-42"), []byte("x"), 0o644))

	cps, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, cps, 3)

	// numeric order, not lexical: 200 < 600 < 1000
	assert.Equal(t, 200, cps[0].Step)
	assert.Equal(t, 600, cps[1].Step)
	assert.Equal(t, 1000, cps[2].Step)
	assert.Equal(t, filepath.Join(dir, "checkpoint-1000"), cps[2].Path)
}

func TestDiscoverMissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"))
	assert.True(t, os.IsNotExist(err))
}

func TestLastN(t *testing.T) {
	cps := []Checkpoint{{Step: 1}, {Step: 2}, {Step: 3}}
	assert.Equal(t, cps, LastN(cps, 0))
	assert.Equal(t, cps, LastN(cps, 5))
	assert.Equal(t, []Checkpoint{{Step: 2}, {Step: 3}}, LastN(cps, 2))
}

func TestBest(t *testing.T) {
	dir := t.TempDir()
	mkCheckpoint(t, dir, "checkpoint-100", true, "eval_f1 = 0.80\n")
	mkCheckpoint(t, dir, "checkpoint-200", true, "eval_f1 = 0.91\n")
	mkCheckpoint(t, dir, "checkpoint-300", true, "eval_f1 = 0.87\n")
	// no eval results at all
	mkCheckpoint(t, dir, "checkpoint-400", true, "")

	cps, err := Discover(dir)
	require.NoError(t, err)

	best, ok := Best(cps, "eval_f1")
	require.True(t, ok)
	assert.Equal(t, 200, best.Step)

	_, ok = Best(cps, "eval_mcc")
	assert.False(t, ok)

	_, ok = Best(nil, "eval_f1")
	assert.False(t, ok)
}
