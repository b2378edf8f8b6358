package launcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEvalResults(t *testing.T, dir, content string) string {
	t.Helper()
	p := filepath.Join(dir, EvalResultsFile)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestReadEvalResults(t *testing.T) {
	dir := t.TempDir()
	p := writeEvalResults(t, dir, `eval_f1 = 0.8921
eval_loss = 0.3172
eval_acc = 0.9015
checkpoint = checkpoint-2290
malformed line without separator
 = no key
`)

	m, err := ReadEvalResults(p)
	require.NoError(t, err)

	f1, ok := m.Float("eval_f1")
	assert.True(t, ok)
	assert.InDelta(t, 0.8921, f1, 1e-9)

	// non-numeric values stay strings
	assert.Equal(t, "checkpoint-2290", m["checkpoint"])

	// malformed lines are skipped
	assert.Len(t, m, 4)

	_, ok = m.Float("checkpoint")
	assert.False(t, ok)
	_, ok = m.Float("missing")
	assert.False(t, ok)
}

func TestOutputMetricsMissingFile(t *testing.T) {
	m, err := OutputMetrics(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestOutputMetrics(t *testing.T) {
	dir := t.TempDir()
	writeEvalResults(t, dir, "eval_mcc = 0.61\n")
	m, err := OutputMetrics(dir)
	require.NoError(t, err)
	mcc, ok := m.Float("eval_mcc")
	assert.True(t, ok)
	assert.InDelta(t, 0.61, mcc, 1e-9)
}
