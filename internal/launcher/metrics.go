package launcher

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// EvalResultsFile is the name the trainer gives the metrics file it
// writes into the output directory after evaluation.
const EvalResultsFile = "eval_results.txt"

// Metrics holds parsed trainer metrics. Values are float64 when the
// trainer wrote a number, string otherwise.
type Metrics map[string]any

// Float returns the metric as a float64 when present and numeric.
func (m Metrics) Float(key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// ReadEvalResults parses a trainer metrics file. The trainer serializes
// its result dict one "key = value" line at a time; malformed lines are
// skipped.
func ReadEvalResults(path string) (Metrics, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := Metrics{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		key, val, ok := strings.Cut(sc.Text(), " = ")
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		if !ok || key == "" {
			continue
		}
		if n, err := strconv.ParseFloat(val, 64); err == nil {
			out[key] = n
		} else {
			out[key] = val
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// OutputMetrics reads the metrics file from a run's effective output
// directory, returning an empty map when the trainer wrote none.
func OutputMetrics(outputDir string) (Metrics, error) {
	m, err := ReadEvalResults(filepath.Join(outputDir, EvalResultsFile))
	if os.IsNotExist(err) {
		return Metrics{}, nil
	}
	return m, err
}
