package network

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/relumip/pkg/errors"
)

func exampleNetwork(t *testing.T) *Network {
	t.Helper()
	hidden, err := NewLayer([][]float64{{1, 1}, {1, -1}}, []float64{0, 0}, ReLU)
	require.NoError(t, err)
	output, err := NewLayer([][]float64{{1, 1}}, []float64{0}, Identity)
	require.NoError(t, err)
	net, err := New(hidden, output)
	require.NoError(t, err)
	return net
}

func TestForward(t *testing.T) {
	net := exampleNetwork(t)

	tests := []struct {
		name  string
		input []float64
		want  float64
	}{
		{name: "both active", input: []float64{1, 0}, want: 2},
		{name: "one active", input: []float64{0, 1}, want: 1},
		{name: "both inactive", input: []float64{-1, 0}, want: 0},
		{name: "corner", input: []float64{1, -1}, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := net.Forward(tt.input)
			require.NoError(t, err)
			require.Len(t, out, 1)
			assert.InDelta(t, tt.want, out[0], 1e-12)
		})
	}
}

func TestForwardDimensionMismatch(t *testing.T) {
	net := exampleNetwork(t)
	_, err := net.Forward([]float64{1})

	var dimErr *errors.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 2, dimErr.Expected)
}

func TestShapeAccessors(t *testing.T) {
	net := exampleNetwork(t)
	assert.Equal(t, 2, net.NumLayers())
	assert.Equal(t, 2, net.InputDim())
	assert.Equal(t, 1, net.OutputDim())
	assert.Equal(t, []int{2, 1}, net.Widths())
	out, in := net.Layer(1).Dims()
	assert.Equal(t, 2, out)
	assert.Equal(t, 2, in)
}

func TestValidateActivationInvariant(t *testing.T) {
	reluOut, err := NewLayer([][]float64{{1}}, []float64{0}, ReLU)
	require.NoError(t, err)
	identityHidden, err := NewLayer([][]float64{{1}}, []float64{0}, Identity)
	require.NoError(t, err)

	_, err = New(reluOut)
	var valErr *errors.ValidationError
	require.True(t, errors.As(err, &valErr), "relu output layer must be rejected")

	_, err = New(identityHidden, identityHidden)
	require.True(t, errors.As(err, &valErr), "identity hidden layer must be rejected")

	single, err := New(identityHidden)
	require.NoError(t, err)
	assert.Equal(t, 1, single.NumLayers())
}

func TestValidateLayerChain(t *testing.T) {
	hidden, err := NewLayer([][]float64{{1, 1}, {1, -1}}, []float64{0, 0}, ReLU)
	require.NoError(t, err)
	output, err := NewLayer([][]float64{{1, 1, 1}}, []float64{0}, Identity)
	require.NoError(t, err)

	_, err = New(hidden, output)
	var dimErr *errors.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 2, dimErr.Expected)
	assert.Equal(t, 3, dimErr.Got)
}

func TestNewLayerRaggedWeights(t *testing.T) {
	_, err := NewLayer([][]float64{{1, 2}, {3}}, []float64{0, 0}, ReLU)
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	_, err = NewLayer([][]float64{{1, 2}}, []float64{0, 0}, ReLU)
	assert.True(t, errors.As(err, &dimErr))
}

func TestParseActivation(t *testing.T) {
	act, err := ParseActivation("ReLU")
	require.NoError(t, err)
	assert.Equal(t, ReLU, act)

	act, err = ParseActivation("linear")
	require.NoError(t, err)
	assert.Equal(t, Identity, act)

	_, err = ParseActivation("sigmoid")
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	net := exampleNetwork(t)
	dir := t.TempDir()

	for _, name := range []string{"net.json", "net.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, Save(net, path))

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, net.Widths(), loaded.Widths())

			out, err := loaded.Forward([]float64{1, 0})
			require.NoError(t, err)
			assert.InDelta(t, 2.0, out[0], 1e-12)
		})
	}
}

func TestLoadRejectsUnsupportedActivation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	body := `{"layers":[{"weights":[[1]],"bias":[0],"activation":"tanh"},{"weights":[[1]],"bias":[0],"activation":"identity"}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	_, err := Load(path)
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr))
}

func TestCompressRemovesDeadNeurons(t *testing.T) {
	hidden, err := NewLayer([][]float64{{1, 0}, {0, 1}, {-1, -1}}, []float64{0, 0, -5}, ReLU)
	require.NoError(t, err)
	output, err := NewLayer([][]float64{{1, 2, 3}}, []float64{0.5}, Identity)
	require.NoError(t, err)
	net, err := New(hidden, output)
	require.NoError(t, err)

	// Third neuron: -x1-x2-5 <= -3 on [-1,1]^2.
	compressed, removed, err := Compress(net, [][]float64{{1, 1, -3}, {10}})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, []int{2, 1}, compressed.Widths())

	for _, x := range [][]float64{{1, 1}, {-1, 0.5}, {0.3, -0.7}} {
		want, err := net.Forward(x)
		require.NoError(t, err)
		got, err := compressed.Forward(x)
		require.NoError(t, err)
		assert.InDelta(t, want[0], got[0], 1e-12)
	}
}

func TestCompressAllDeadKeepsZeroNeuron(t *testing.T) {
	net := exampleNetwork(t)
	compressed, removed, err := Compress(net, [][]float64{{-1, 0}})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, []int{1, 1}, compressed.Widths())

	out, err := compressed.Forward([]float64{0.2, 0.1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, out[0])
}
