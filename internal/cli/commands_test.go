package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/relumip/core/network"
)

// exampleJSON is y = ReLU(a+b) + ReLU(a-b).
const exampleJSON = `{
  "model_type": "relu_network",
  "version": "1",
  "layers": [
    {"weights": [[1, 1], [1, -1]], "bias": [0, 0], "activation": "relu"},
    {"weights": [[1, 1]], "bias": [0], "activation": "identity"}
  ]
}`

// deadNeuronYAML has a second hidden neuron that is negative on [-1, 1].
const deadNeuronYAML = `model_type: relu_network
version: "1"
layers:
  - weights: [[1], [-1]]
    bias: [0, -5]
    activation: relu
  - weights: [[2, 3]]
    bias: [1]
    activation: identity
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

type response[T any] struct {
	Status string    `json:"status"`
	Data   T         `json:"data"`
	Error  *CLIError `json:"error"`
}

func decode[T any](t *testing.T, out string) response[T] {
	t.Helper()
	var r response[T]
	require.NoError(t, json.Unmarshal([]byte(out), &r), out)
	return r
}

func TestBoundsCommandJSON(t *testing.T) {
	path := writeFile(t, "net.json", exampleJSON)

	out, err := execute(t, "bounds", path, "--upper=1,1", "--lower=-1,-1", "--format", "json")
	require.NoError(t, err)

	r := decode[BoundsResult](t, out)
	assert.Equal(t, "ok", r.Status)
	assert.Equal(t, "fast", r.Data.Mode)
	assert.Equal(t, []float64{2, 2}, r.Data.Bounds.Upper[0])
	assert.Equal(t, []float64{-2, -2}, r.Data.Bounds.Lower[0])
	assert.Equal(t, 2, r.Data.Binaries)
	assert.Equal(t, 7, r.Data.Constraints)
}

func TestBoundsCommandText(t *testing.T) {
	path := writeFile(t, "net.json", exampleJSON)

	out, err := execute(t, "bounds", path, "--upper=1,1", "--lower=-1,-1", "--mode", "standard")
	require.NoError(t, err)
	assert.Contains(t, out, "mode: standard")
	assert.Contains(t, out, "layer 1")
	assert.Contains(t, out, "[-2, 2]")
}

func TestBoundsCommandCompress(t *testing.T) {
	path := writeFile(t, "net.yaml", deadNeuronYAML)
	target := filepath.Join(t.TempDir(), "compressed.json")

	out, err := execute(t, "bounds", path, "--upper=1", "--lower=-1", "--compress", target, "--format", "json")
	require.NoError(t, err)
	r := decode[BoundsResult](t, out)
	assert.Equal(t, 1, r.Data.Removed)

	net, err := network.Load(target)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1}, net.Widths())
	y, err := net.Forward([]float64{0.5})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, y[0], 1e-12)
}

func TestEvalCommand(t *testing.T) {
	path := writeFile(t, "net.json", exampleJSON)

	out, err := execute(t, "eval", path, "--upper=1,1", "--lower=-1,-1", "--input=1,0", "--format", "json")
	require.NoError(t, err)
	r := decode[EvalResult](t, out)
	require.Len(t, r.Data.Output, 1)
	assert.InDelta(t, 2.0, r.Data.Output[0], 1e-7)
}

func TestEvalCommandInfeasibleInput(t *testing.T) {
	path := writeFile(t, "net.json", exampleJSON)

	out, err := execute(t, "eval", path, "--upper=1,1", "--lower=-1,-1", "--input=2,0", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	r := decode[json.RawMessage](t, out)
	assert.Equal(t, "error", r.Status)
	require.NotNil(t, r.Error)
	assert.Equal(t, ErrCodeInfeasible, r.Error.Code)
}

func TestEvalCommandOutputMode(t *testing.T) {
	path := writeFile(t, "net.json", exampleJSON)
	args := []string{"eval", path, "--upper=1,1", "--lower=-1,-1", "--mode", "output", "--format", "json"}

	out, err := execute(t, append(args, "--output-upper=1", "--input=0.25,0")...)
	require.NoError(t, err)
	r := decode[EvalResult](t, out)
	assert.InDelta(t, 0.5, r.Data.Output[0], 1e-7)

	_, err = execute(t, append(args, "--output-upper=1", "--input=1,0")...)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, err = execute(t, append(args, "--input=1,0")...)
	assert.Equal(t, ExitCommandError, GetExitCode(err), "output mode needs a range")
}

func TestEvalCommandDimensionMismatch(t *testing.T) {
	path := writeFile(t, "net.json", exampleJSON)

	_, err := execute(t, "eval", path, "--upper=1", "--lower=-1", "--input=1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestEvalCommandMissingNetwork(t *testing.T) {
	_, err := execute(t, "eval", filepath.Join(t.TempDir(), "missing.json"), "--upper=1", "--lower=-1", "--input=1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestOptimizeCommand(t *testing.T) {
	path := writeFile(t, "net.json", exampleJSON)
	config := writeFile(t, "solver.yaml", "solver: bnb\nthreads: 2\ntime_limit: 1m\n")

	out, err := execute(t, "optimize", path, "--upper=1,1", "--lower=-1,-1", "--maximize",
		"--solver-config", config, "--mode", "standard", "--format", "json")
	require.NoError(t, err)

	var r struct {
		Status string `json:"status"`
		Data   struct {
			Status    string    `json:"status"`
			Objective float64   `json:"objective"`
			Input     []float64 `json:"input"`
			Output    []float64 `json:"output"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "optimal", r.Data.Status)
	assert.InDelta(t, 2.0, r.Data.Objective, 1e-7)
	assert.Len(t, r.Data.Input, 2)
}

func TestOptimizeCommandBadConfig(t *testing.T) {
	path := writeFile(t, "net.json", exampleJSON)
	config := writeFile(t, "solver.yaml", "solver: simplex-deluxe\n")

	_, err := execute(t, "optimize", path, "--upper=1,1", "--lower=-1,-1", "--solver-config", config)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVerifyCommand(t *testing.T) {
	path := writeFile(t, "net.json", exampleJSON)

	out, err := execute(t, "verify", path, "--upper=1,1", "--lower=-1,-1", "--samples", "10", "--seed", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "samples: 10")
	assert.Contains(t, out, "infeasible: 0")
}

func TestInvalidFormat(t *testing.T) {
	path := writeFile(t, "net.json", exampleJSON)

	_, err := execute(t, "bounds", path, "--upper=1,1", "--lower=-1,-1", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestMissingRequiredFlags(t *testing.T) {
	path := writeFile(t, "net.json", exampleJSON)

	_, err := execute(t, "eval", path, "--upper=1,1", "--lower=-1,-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Contains(t, err.Error(), "input")
}
