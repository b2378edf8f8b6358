package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const specYAML = `
kind: Experiment
metadata:
  name: semeval-bert
model:
  type: bert
  path: /models/bert-base-uncased
  lower_case: true
task:
  name: semeval
  data_dir: /data/SemEval2010
training:
  train_max_seq_length: 128
  eval_max_seq_length: 128
  per_gpu_train_batch_size: 32
  per_gpu_eval_batch_size: 32
  learning_rate: 2.0e-5
  num_train_epochs: 5
  logging_steps: 229
  save_steps: 229
output:
  dir: ./outputs/
`

func newTestServer(t *testing.T) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(NewServer(ServerOptions{}))
	t.Cleanup(srv.Close)
	return srv, NewClient(srv.URL)
}

func postRPC(t *testing.T, url string, body string) rpcResp {
	t.Helper()
	res, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	defer res.Body.Close()
	var out rpcResp
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return out
}

func TestInitialize(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := postRPC(t, srv.URL, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	require.Nil(t, resp.Error)
	result := resp.Result.(map[string]any)
	server := result["server"].(map[string]any)
	assert.Equal(t, "tuneflow", server["name"])
}

func TestToolsList(t *testing.T) {
	_, c := newTestServer(t)
	tools, err := c.ToolsList(context.Background())
	require.NoError(t, err)
	var names []string
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"experiment.validate", "experiment.plan", "runs.list"}, names)
}

func TestValidateTool(t *testing.T) {
	_, c := newTestServer(t)
	res, err := c.CallTool(context.Background(), "experiment.validate", map[string]any{
		"config_yaml": specYAML,
	})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(res, &out))
	assert.Equal(t, true, out["ok"])
	assert.Equal(t, "semeval-bert", out["experiment"])
}

func TestValidateToolRejectsBadSpec(t *testing.T) {
	_, c := newTestServer(t)
	_, err := c.CallTool(context.Background(), "experiment.validate", map[string]any{
		"config_yaml": "kind: Pipeline\n",
	})
	assert.ErrorContains(t, err, "kind must be Experiment")
}

func TestPlanTool(t *testing.T) {
	_, c := newTestServer(t)
	res, err := c.CallTool(context.Background(), "experiment.plan", map[string]any{
		"config_yaml": specYAML,
		"phase":       "eval",
	})
	require.NoError(t, err)

	var out struct {
		Phase string   `json:"phase"`
		Args  []string `json:"args"`
	}
	require.NoError(t, json.Unmarshal(res, &out))
	assert.Equal(t, "eval", out.Phase)
	assert.Contains(t, out.Args, "--do_eval")
}

func TestRunsListWithoutStore(t *testing.T) {
	_, c := newTestServer(t)
	_, err := c.CallTool(context.Background(), "runs.list", map[string]any{})
	assert.ErrorContains(t, err, "run registry not configured")
}

func TestUnknownToolAndMethod(t *testing.T) {
	srv, c := newTestServer(t)

	_, err := c.CallTool(context.Background(), "experiment.delete", nil)
	assert.ErrorContains(t, err, "unknown tool")

	resp := postRPC(t, srv.URL, `{"jsonrpc":"2.0","id":1,"method":"runs/purge"}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32601, resp.Error.Code)

	resp = postRPC(t, srv.URL, `{not json`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32700, resp.Error.Code)
}

func TestGetRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	res, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}
